package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serome111/orderflow/internal/config"
	"github.com/serome111/orderflow/internal/logger"
	"github.com/serome111/orderflow/internal/order"
)

type stubEnqueuer struct {
	requests []order.Request
	err      error
}

func (s *stubEnqueuer) Enqueue(ctx context.Context, req order.Request) error {
	if s.err != nil {
		return s.err
	}
	s.requests = append(s.requests, req)
	return nil
}

const validPayload = `{
	"id": 42,
	"customer": "ACME Corp",
	"items": [{"sku": "P001", "quantity": 3, "unit_price": 100.0}],
	"submitted_at": "2025-06-01T12:00:00Z"
}`

func TestDecodeOrder(t *testing.T) {
	req, err := decodeOrder([]byte(validPayload))
	require.NoError(t, err)
	assert.Equal(t, int64(42), req.ID)
	assert.Equal(t, "ACME Corp", req.Customer)
	require.Len(t, req.Items, 1)
	assert.Equal(t, "P001", req.Items[0].SKU)
}

func TestDecodeOrderRejectsInvalidJSON(t *testing.T) {
	_, err := decodeOrder([]byte(`{not json`))
	require.Error(t, err)
}

func TestDecodeOrderRejectsInvalidOrder(t *testing.T) {
	_, err := decodeOrder([]byte(`{"id": 0, "customer": "", "items": []}`))
	require.Error(t, err)
}

func TestDispatchEnqueuesValidPayload(t *testing.T) {
	pipeline := &stubEnqueuer{}

	dispatch(context.Background(), pipeline, []byte(validPayload), "redis", logger.NopLogger())

	require.Len(t, pipeline.requests, 1)
	assert.Equal(t, int64(42), pipeline.requests[0].ID)
}

func TestDispatchDropsMalformedPayload(t *testing.T) {
	pipeline := &stubEnqueuer{}

	dispatch(context.Background(), pipeline, []byte(`garbage`), "redis", logger.NopLogger())

	assert.Empty(t, pipeline.requests)
}

func TestDispatchSurvivesEnqueueFailure(t *testing.T) {
	pipeline := &stubEnqueuer{err: errors.New("queue closed")}

	dispatch(context.Background(), pipeline, []byte(validPayload), "kafka", logger.NopLogger())

	assert.Empty(t, pipeline.requests)
}

func TestNewSourceFactory(t *testing.T) {
	log := logger.NopLogger()

	src, err := New(config.SourceConfig{Type: ""}, nil, log)
	require.NoError(t, err)
	assert.Nil(t, src)

	_, err = New(config.SourceConfig{Type: "redis"}, nil, log)
	require.Error(t, err)

	kafkaCfg := config.SourceConfig{
		Type: "kafka",
		Kafka: config.KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "orders",
			GroupID: "orderflow",
		},
	}
	src, err = New(kafkaCfg, nil, log)
	require.NoError(t, err)
	require.NotNil(t, src)
	require.NoError(t, src.Close())

	_, err = New(config.SourceConfig{Type: "rabbitmq"}, nil, log)
	require.Error(t, err)
}

func TestRedisSourceStopWithoutStart(t *testing.T) {
	src := NewRedisSource(nil, config.SourceConfig{Queue: "q", PollTimeout: time.Second}, logger.NopLogger())
	src.Stop()
	require.NoError(t, src.Close())
}

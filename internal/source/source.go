package source

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/serome111/orderflow/internal/config"
	"github.com/serome111/orderflow/internal/logger"
	"github.com/serome111/orderflow/internal/order"
	"github.com/serome111/orderflow/pkg/logging"
	"github.com/serome111/orderflow/pkg/metrics"
)

// Enqueuer is the part of the pipeline a source feeds into.
type Enqueuer interface {
	Enqueue(ctx context.Context, req order.Request) error
}

// Source reads externally queued order payloads and feeds them into
// the pipeline from its own background loop, decoupled from the HTTP
// ingestion path.
type Source interface {
	Start(pipeline Enqueuer)
	Stop()
	Close() error
}

// New builds the source named by cfg.Type. An empty type disables the
// adapter and returns nil.
func New(cfg config.SourceConfig, redisClient *redis.Client, log logger.Logger) (Source, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis source requires a redis connection")
		}
		return NewRedisSource(redisClient, cfg, log), nil
	case "kafka":
		return NewKafkaSource(cfg.Kafka, log), nil
	default:
		return nil, fmt.Errorf("unsupported source type %q", cfg.Type)
	}
}

// dispatch decodes one raw payload and hands it to the pipeline.
// Malformed payloads are dropped, not retried: they cannot become
// valid by retrying.
func dispatch(ctx context.Context, pipeline Enqueuer, payload []byte, sourceName string, log logger.Logger) {
	req, err := decodeOrder(payload)
	if err != nil {
		metrics.SourceMessagesTotal.WithLabelValues(sourceName, "invalid").Inc()
		log.ErrorwCtx(ctx, "Discarding malformed order payload",
			"source", sourceName,
			"error", err,
		)
		return
	}

	orderCtx := logging.WithOrderID(ctx, req.ID)
	if err := pipeline.Enqueue(orderCtx, req); err != nil {
		metrics.SourceMessagesTotal.WithLabelValues(sourceName, "rejected").Inc()
		log.ErrorwCtx(orderCtx, "Failed to enqueue order from source",
			"source", sourceName,
			"error", err,
		)
		return
	}

	metrics.SourceMessagesTotal.WithLabelValues(sourceName, "accepted").Inc()
	log.InfowCtx(orderCtx, "Order read from external queue", "source", sourceName)
}

func decodeOrder(payload []byte) (order.Request, error) {
	var req order.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return order.Request{}, fmt.Errorf("invalid JSON payload: %w", err)
	}
	if err := req.Validate(); err != nil {
		return order.Request{}, err
	}
	return req, nil
}

package source

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/serome111/orderflow/internal/config"
	"github.com/serome111/orderflow/internal/logger"
)

// KafkaSource consumes order payloads from a Kafka topic as part of a
// consumer group. Offsets are committed after dispatch so malformed
// messages are not redelivered forever.
type KafkaSource struct {
	reader *kafka.Reader
	logger logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewKafkaSource(cfg config.KafkaConfig, log logger.Logger) *KafkaSource {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})

	return &KafkaSource{
		reader: reader,
		logger: log,
	}
}

func (s *KafkaSource) Start(pipeline Enqueuer) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, pipeline)

	s.logger.Infow("Kafka source started",
		"topic", s.reader.Config().Topic,
		"group_id", s.reader.Config().GroupID,
	)
}

func (s *KafkaSource) run(ctx context.Context, pipeline Enqueuer) {
	defer close(s.done)

	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return
			}
			s.logger.Errorw("Kafka fetch failed, backing off", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		dispatch(ctx, pipeline, msg.Value, "kafka", s.logger)

		if err := s.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Errorw("Kafka commit failed", "offset", msg.Offset, "error", err)
		}
	}
}

func (s *KafkaSource) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Infow("Kafka source stopped")
}

func (s *KafkaSource) Close() error {
	return s.reader.Close()
}

package source

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/serome111/orderflow/internal/config"
	"github.com/serome111/orderflow/internal/logger"
)

// RedisSource pops order payloads from a Redis list with BLPOP.
type RedisSource struct {
	client      *redis.Client
	queue       string
	pollTimeout time.Duration
	logger      logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewRedisSource(client *redis.Client, cfg config.SourceConfig, log logger.Logger) *RedisSource {
	return &RedisSource{
		client:      client,
		queue:       cfg.Queue,
		pollTimeout: cfg.PollTimeout,
		logger:      log,
	}
}

// Start launches the polling loop. Call Stop to end it.
func (s *RedisSource) Start(pipeline Enqueuer) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, pipeline)

	s.logger.Infow("Redis source started", "queue", s.queue, "poll_timeout", s.pollTimeout)
}

func (s *RedisSource) run(ctx context.Context, pipeline Enqueuer) {
	defer close(s.done)

	for {
		if ctx.Err() != nil {
			return
		}

		result, err := s.client.BLPop(ctx, s.pollTimeout, s.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			s.logger.Errorw("Redis poll failed, backing off", "queue", s.queue, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		// BLPOP returns [key, value].
		if len(result) < 2 {
			continue
		}
		dispatch(ctx, pipeline, []byte(result[1]), "redis", s.logger)
	}
}

// Stop ends the polling loop and waits for it to exit.
func (s *RedisSource) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Infow("Redis source stopped", "queue", s.queue)
}

// Close is a no-op: the Redis client is shared and closed by the
// application shutdown path.
func (s *RedisSource) Close() error {
	return nil
}

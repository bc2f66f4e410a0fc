package order

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/serome111/orderflow/internal/catalog"
	"github.com/serome111/orderflow/internal/config"
	"github.com/serome111/orderflow/internal/logger"
	pkgerrors "github.com/serome111/orderflow/pkg/errors"
	"github.com/serome111/orderflow/pkg/logging"
	"github.com/serome111/orderflow/pkg/metrics"
	"github.com/serome111/orderflow/pkg/transform"
)

const (
	defaultWorkers     = 4
	defaultPollTimeout = 500 * time.Millisecond
	defaultListLimit   = 50
	maxListLimit       = 500
)

type jobStatus int

const (
	jobSucceeded jobStatus = iota
	jobDuplicate
	jobFailedRetryable
)

// jobOutcome is the tagged result of one processing attempt. The
// worker loop, not the processing step, decides queue placement.
type jobOutcome struct {
	status jobStatus
	err    error
}

// Pipeline owns the job queue and the worker pool. It turns validated
// order requests into processed records via the catalog provider and
// persists them through the store, at most once per order id.
type Pipeline struct {
	store      Store
	provider   catalog.Provider
	transforms *transform.Registry
	logger     logger.Logger

	workers     int
	maxRetries  int
	pollTimeout time.Duration

	queue    *jobQueue
	shutdown atomic.Bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewPipeline(store Store, provider catalog.Provider, transforms *transform.Registry, cfg config.PipelineConfig, log logger.Logger) *Pipeline {
	workers := cfg.Workers
	if workers < 1 {
		workers = defaultWorkers
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}

	return &Pipeline{
		store:       store,
		provider:    provider,
		transforms:  transforms,
		logger:      log,
		workers:     workers,
		maxRetries:  maxRetries,
		pollTimeout: pollTimeout,
		queue:       newJobQueue(),
	}
}

// Start spawns the worker pool. Calling Start on a running pipeline is
// a no-op.
func (p *Pipeline) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	p.shutdown.Store(false)
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.running = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.logger.Infow("Order pipeline started", "workers", p.workers, "max_retries", p.maxRetries)
}

// Stop requests shutdown, waits for already-enqueued jobs to drain,
// then stops the workers and waits for them to exit. Failures that
// happen while draining are logged and dropped instead of re-queued so
// the drain terminates.
func (p *Pipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	p.shutdown.Store(true)
	drainErr := p.WaitForDrain(ctx)

	p.mu.Lock()
	p.cancel()
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Infow("Order pipeline stopped")
	return drainErr
}

// Enqueue validates the request, suppresses duplicates against the
// store and pushes a job at the tail of the queue. It returns as soon
// as the job is accepted; processing outcomes never reach the caller.
func (p *Pipeline) Enqueue(ctx context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	if p.shutdown.Load() {
		return pkgerrors.ErrConflict.WithDetail("message", "pipeline is shutting down")
	}

	exists, err := p.store.Exists(ctx, req.ID)
	if err != nil {
		return pkgerrors.ErrPersistence.WithCause(err)
	}
	if exists {
		metrics.DuplicatesSuppressedTotal.Inc()
		p.logger.InfowCtx(ctx, "Order already processed, ignoring new submission", "order_id", req.ID)
		return nil
	}

	p.queue.push(&job{req: req})
	metrics.OrdersEnqueuedTotal.Inc()
	metrics.SetQueueDepth(p.queue.depth())
	p.logger.InfowCtx(ctx, "Order queued", "order_id", req.ID)
	return nil
}

// WaitForDrain blocks until the queue holds no pending or in-flight
// jobs, or the context expires.
func (p *Pipeline) WaitForDrain(ctx context.Context) error {
	if p.queue.drained() {
		return nil
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if p.queue.drained() {
				return nil
			}
		}
	}
}

func (p *Pipeline) GetProcessed(ctx context.Context, orderID int64) (*Record, error) {
	rec, err := p.store.Get(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.ErrPersistence.WithCause(err)
	}
	if rec == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("message", "order not found")
	}
	return rec, nil
}

func (p *Pipeline) ListProcessed(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	records, err := p.store.List(ctx, limit)
	if err != nil {
		return nil, pkgerrors.ErrPersistence.WithCause(err)
	}
	return records, nil
}

func (p *Pipeline) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()
	p.logger.Debugw("Worker started", "worker", workerID)

	for {
		if p.shutdown.Load() && p.queue.pending() == 0 {
			break
		}
		if ctx.Err() != nil {
			break
		}

		j, ok := p.queue.pop(ctx, p.pollTimeout)
		if !ok {
			continue
		}

		p.handleJob(ctx, workerID, j)
	}

	p.logger.Debugw("Worker finished", "worker", workerID)
}

func (p *Pipeline) handleJob(ctx context.Context, workerID int, j *job) {
	jobCtx := logging.WithOrderID(ctx, j.req.ID)
	start := time.Now()

	out := p.processJob(jobCtx, j)
	switch out.status {
	case jobSucceeded:
		p.queue.finish(j, false)
		metrics.OrdersProcessedTotal.WithLabelValues("success").Inc()
		metrics.ObserveProcessingDuration(time.Since(start), "success")
		p.logger.InfowCtx(jobCtx, "Order processed", "worker", workerID, "attempt", j.attempt+1)
	case jobDuplicate:
		p.queue.finish(j, false)
		metrics.OrdersProcessedTotal.WithLabelValues("duplicate").Inc()
		p.logger.InfowCtx(jobCtx, "Order was already processed, skipping")
	default:
		p.handleFailure(jobCtx, j, out)
		metrics.ObserveProcessingDuration(time.Since(start), "failure")
	}

	metrics.SetQueueDepth(p.queue.depth())
}

// processJob re-checks dedup (a duplicate may have slipped past the
// enqueue-time check while the first copy was still queued), enriches,
// prices and persists. Enrichment and persistence failures are both
// retryable at the job level.
func (p *Pipeline) processJob(ctx context.Context, j *job) jobOutcome {
	exists, err := p.store.Exists(ctx, j.req.ID)
	if err != nil {
		return jobOutcome{status: jobFailedRetryable, err: pkgerrors.ErrPersistence.WithCause(err)}
	}
	if exists {
		return jobOutcome{status: jobDuplicate}
	}

	attrs, err := p.provider.FetchMany(ctx, j.req.SKUs())
	if err != nil {
		return jobOutcome{status: jobFailedRetryable, err: err}
	}

	rec := BuildRecord(j.req, attrs, p.normalizeCategory)
	if err := p.store.Upsert(ctx, &rec); err != nil {
		return jobOutcome{status: jobFailedRetryable, err: pkgerrors.ErrPersistence.WithCause(err)}
	}

	return jobOutcome{status: jobSucceeded}
}

func (p *Pipeline) handleFailure(ctx context.Context, j *job, out jobOutcome) {
	if p.shutdown.Load() {
		p.queue.finish(j, false)
		metrics.OrdersProcessedTotal.WithLabelValues("dropped").Inc()
		p.logger.WarnwCtx(ctx, "Failed processing order during shutdown, dropping job",
			"attempt", j.attempt+1,
			"error", out.err,
		)
		return
	}

	if j.attempt < p.maxRetries {
		j.attempt++
		p.queue.finish(j, true)
		metrics.OrderRetriesTotal.Inc()
		p.logger.WarnwCtx(ctx, "Failed processing order, re-enqueueing",
			"attempt", j.attempt,
			"max_retries", p.maxRetries,
			"error", out.err,
		)
		return
	}

	p.queue.finish(j, false)
	metrics.OrdersProcessedTotal.WithLabelValues("failed").Inc()
	p.logger.ErrorwCtx(ctx, "Giving up on order after exhausting retries",
		"attempts", j.attempt+1,
		"error", out.err,
	)
}

func (p *Pipeline) normalizeCategory(category string) string {
	if p.transforms == nil || category == "" {
		return category
	}
	normalized, err := p.transforms.Call("to_lowercase", category, nil)
	if err != nil {
		return category
	}
	if s, ok := normalized.(string); ok {
		return s
	}
	return category
}

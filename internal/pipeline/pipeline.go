package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-odds/internal/domain"
	"github.com/couchcryptid/climate-odds/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// BatchExtractor reads up to batchSize raw query messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer answers one query message with a report message.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader writes report messages to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Backoff bounds for extract and load failures.
const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline runs the query worker: read queries, compute reports, publish them.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the worker has answered at least one query.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("query worker has not answered any queries yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one extract-transform-load cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.QueriesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	loaded, ok := p.transformAndLoad(ctx, rawBatch, backoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// transformAndLoad answers each query in the batch, publishes the reports and
// commits offsets. Queries that can never be answered are skipped and
// committed; upstream failures are retried with backoff, so a query is only
// committed once its report is published. Nothing is committed when loading
// fails or the pipeline stops mid-batch, leaving the batch for redelivery.
// Returns the number of published reports and false if the pipeline should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, rawBatch []domain.RawEvent, backoff *time.Duration) (int, bool) {
	outBatch := make([]domain.OutputEvent, 0, len(rawBatch))
	processed := make([]domain.RawEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		out, answered, ok := p.transformWithRetry(ctx, raw, backoff)
		if !ok {
			return 0, false
		}
		processed = append(processed, raw)
		if answered {
			outBatch = append(outBatch, out)
		}
	}

	if len(outBatch) > 0 {
		if err := p.loader.LoadBatch(ctx, outBatch); err != nil {
			p.logger.Error("load batch failed", "error", err, "batch_size", len(outBatch))
			return 0, p.backoffOrStop(ctx, backoff)
		}
		p.metrics.ReportsProduced.Add(float64(len(outBatch)))
	}

	for _, raw := range processed {
		p.commitOffset(ctx, raw)
	}

	return len(outBatch), true
}

// transformWithRetry transforms raw, retrying transient failures until they
// succeed or the context ends. answered is false for a query that cannot be
// answered and is logged and skipped; ok is false when the pipeline should stop.
func (p *Pipeline) transformWithRetry(ctx context.Context, raw domain.RawEvent, backoff *time.Duration) (out domain.OutputEvent, answered, ok bool) {
	for {
		event, err := p.transformer.Transform(ctx, raw)
		if err == nil {
			*backoff = initialBackoff
			return event, true, true
		}
		p.metrics.QueryErrors.Inc()
		if Unanswerable(err) {
			p.logger.Warn("query cannot be answered, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			return domain.OutputEvent{}, false, true
		}
		if ctx.Err() != nil {
			return domain.OutputEvent{}, false, false
		}
		p.logger.Warn("query failed, retrying",
			"error", err,
			"offset", raw.Offset,
			"backoff", *backoff,
		)
		if !p.backoffOrStop(ctx, backoff) {
			return domain.OutputEvent{}, false, false
		}
	}
}

// Unanswerable reports whether err means the query itself is at fault, so
// retrying it cannot succeed.
func Unanswerable(err error) bool {
	return errors.Is(err, ErrUnanswerable) ||
		errors.Is(err, domain.ErrInvalidQuery) ||
		errors.Is(err, domain.ErrLocationNotFound)
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

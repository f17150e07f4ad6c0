package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/climate-odds/internal/domain"
)

// ErrUnanswerable marks a transform failure that retrying cannot fix.
var ErrUnanswerable = errors.New("query cannot be answered")

// Outlooker computes a report for a query. outlook.Service implements it.
type Outlooker interface {
	Compute(ctx context.Context, q domain.Query) (domain.Report, error)
}

// QueryTransformer implements Transformer by answering each query message
// with a serialized report.
type QueryTransformer struct {
	outlook Outlooker
	logger  *slog.Logger
}

// NewTransformer creates a QueryTransformer.
func NewTransformer(outlook Outlooker, logger *slog.Logger) *QueryTransformer {
	return &QueryTransformer{
		outlook: outlook,
		logger:  logger,
	}
}

func (t *QueryTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	q, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	report, err := t.outlook.Compute(ctx, q)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	t.logger.Debug("query answered", "query_id", q.ID, "report_id", report.ID, "offset", raw.Offset)

	event, err := domain.SerializeReport(report)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("%w: %w", ErrUnanswerable, err)
	}
	return event, nil
}

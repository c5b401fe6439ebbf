package pipeline

import (
	"context"
	"log/slog"

	"github.com/twhitfield/addrcheck/internal/tabular"
)

// Summary aggregates per-row outcomes for one batch. Total always equals the
// input row count; the three outcome counters always sum to Total.
type Summary struct {
	Total            int
	Valid            int
	ValidationErrors int
	ServiceErrors    int
}

// Runner processes an input table row by row, in order, and produces the
// output table plus a summary. Rows are processed sequentially: the USPS API
// is rate limited and one token is shared across the batch, so concurrent
// calls would invite throttling without helping typical file sizes.
type Runner struct {
	processor *Processor
	metrics   *Metrics
	logger    *slog.Logger
}

// NewRunner creates a batch runner. metrics may be nil when no registry is
// wired (the CLI path).
func NewRunner(processor *Processor, metrics *Metrics, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		processor: processor,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run processes every row of the input table with the given bearer token.
// Row failures never abort the batch: the output table always has exactly
// one row per input row, in input order, with diagnostics inline.
func (r *Runner) Run(ctx context.Context, input *tabular.Table, token string) (*tabular.Table, Summary) {
	headers := outputHeaders(input, r.processor.idColumns)
	output := tabular.New(headers)

	var summary Summary
	for i := 0; i < input.Len(); i++ {
		row := r.processor.Process(ctx, input.RowMap(i), token)
		summary.Total++
		switch row.Outcome {
		case OutcomeValid:
			summary.Valid++
		case OutcomeValidationError:
			summary.ValidationErrors++
		case OutcomeServiceError:
			summary.ServiceErrors++
		}
		if r.metrics != nil {
			r.metrics.ObserveRow(row.Outcome)
		}

		cells := make([]string, len(headers))
		for idx, header := range headers {
			cells[idx] = row.Values[header]
		}
		output.Append(cells)
	}

	if r.metrics != nil {
		r.metrics.ObserveBatch()
	}
	r.logger.Info("batch complete",
		"total", summary.Total,
		"valid", summary.Valid,
		"validation_errors", summary.ValidationErrors,
		"service_errors", summary.ServiceErrors,
	)
	return output, summary
}

// outputHeaders builds the output column order: every original column first,
// then ID columns the input lacked, then the appended output columns.
func outputHeaders(input *tabular.Table, idColumns []string) []string {
	headers := make([]string, 0, len(input.Headers)+len(idColumns)+len(OutputColumns))
	seen := make(map[string]bool, cap(headers))
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			headers = append(headers, name)
		}
	}
	for _, h := range input.Headers {
		add(h)
	}
	for _, id := range idColumns {
		add(id)
	}
	for _, col := range OutputColumns {
		add(col)
	}
	return headers
}

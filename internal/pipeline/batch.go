package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tkbconv/internal"
	"tkbconv/internal/logging"
)

// Observer is told about every row outcome, in row order, and about the
// finished batch.
type Observer interface {
	RowProcessed(res internal.RowResult)
	BatchDone(summary internal.BatchSummary)
}

type RunOptions struct {
	// Workers above 1 normalize rows on that many goroutines. Output
	// order is the input order either way.
	Workers   int
	Observers []Observer
}

type BatchResult struct {
	Records []internal.NormalizedRecord
	Results []internal.RowResult
	Summary internal.BatchSummary
}

// Run normalizes rows and collects the kept and sentinel records in input
// order. Row faults never fail the batch; only a cancelled context does.
func Run(ctx context.Context, n *Normalizer, rows []internal.Row, opts RunOptions) (BatchResult, error) {
	started := time.Now()
	runID := logging.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = logging.WithRunID(ctx, runID)
	}
	logger := logging.FromContext(ctx)

	results := make([]internal.RowResult, len(rows))
	if opts.Workers <= 1 {
		for i, row := range rows {
			if err := ctx.Err(); err != nil {
				return BatchResult{}, err
			}
			results[i] = n.Normalize(i, row)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for i := range rows {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = n.Normalize(i, rows[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return BatchResult{}, err
		}
		if err := ctx.Err(); err != nil {
			return BatchResult{}, err
		}
	}

	summary := internal.BatchSummary{
		RunID:   runID,
		Total:   len(rows),
		Skipped: map[internal.RowStatus]int{},
	}
	records := make([]internal.NormalizedRecord, 0, len(rows))
	for _, res := range results {
		switch res.Status {
		case internal.RowKept:
			summary.Kept++
		case internal.RowSentinel:
			summary.Sentinel++
			summary.Failed++
			logger.Warn("row failed, sentinel emitted", "line", res.Line, "err", res.Err)
		case internal.RowFailedSkipped:
			summary.Failed++
			summary.Skipped[res.Status]++
			logger.Warn("row failed, skipped", "line", res.Line, "err", res.Err)
		default:
			summary.Skipped[res.Status]++
			logger.Debug("row skipped", "line", res.Line, "status", res.Status)
		}
		if res.Record != nil {
			records = append(records, *res.Record)
		}
		for _, o := range opts.Observers {
			o.RowProcessed(res)
		}
	}
	summary.Duration = time.Since(started)

	for _, o := range opts.Observers {
		o.BatchDone(summary)
	}
	logger.Info("batch done",
		"total", summary.Total,
		"kept", summary.Kept,
		"sentinel", summary.Sentinel,
		"failed", summary.Failed,
		"duration", summary.Duration,
	)

	return BatchResult{Records: records, Results: results, Summary: summary}, nil
}

package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/moneyflow/internal/data"
	"github.com/dgnsrekt/moneyflow/internal/download"
	"github.com/dgnsrekt/moneyflow/internal/notify"
	"github.com/dgnsrekt/moneyflow/internal/nse"
	"github.com/dgnsrekt/moneyflow/internal/report"
)

// fetcher is the part of download.Manager the daemon uses
type fetcher interface {
	Fetch(ctx context.Context, dates []time.Time) (*download.BatchResult, error)
}

// Runner performs one end-of-day run: fetch the price list, generate the
// configured reports, notify.
type Runner struct {
	downloads fetcher
	generator *report.Generator
	sink      report.Sink
	symbols   []string
	notifier  notify.Notifier
	logger    *zap.Logger
}

func NewRunner(downloads fetcher, generator *report.Generator, sink report.Sink, symbols []string, notifier notify.Notifier, logger *zap.Logger) *Runner {
	return &Runner{
		downloads: downloads,
		generator: generator,
		sink:      sink,
		symbols:   symbols,
		notifier:  notifier,
		logger:    logger,
	}
}

// Execute runs the day. A missing or failed price list returns an error so
// the caller retries later; report failures are notified but final, since
// the same data would fail the same way.
func (r *Runner) Execute(ctx context.Context, date time.Time) error {
	start := time.Now()
	run := &notify.Run{Date: date.Format(data.DateLayout)}

	result, err := r.downloads.Fetch(ctx, []time.Time{date})
	run.Download = result
	if err == nil && result.Failed > 0 {
		err = fmt.Errorf("%d downloads failed", result.Failed)
	}
	if err == nil && len(result.Missing) > 0 {
		err = fmt.Errorf("%w: %s", nse.ErrNotFound, run.Date)
	}
	if err != nil {
		run.Duration = time.Since(start)
		r.notifyFailure(ctx, run, err)
		return fmt.Errorf("fetching price list: %w", err)
	}

	run.Reports = r.generator.Run(ctx, r.symbols, []time.Time{date}, r.sink)
	run.Duration = time.Since(start)

	if failed := run.Reports.Failed(); len(failed) > 0 {
		r.notifyFailure(ctx, run, fmt.Errorf("%d of %d reports failed", len(failed), len(run.Reports.Outcomes)))
		return nil
	}

	if err := r.notifier.SendSuccess(ctx, run); err != nil {
		r.logger.Warn("failed to send success notification", zap.Error(err))
	}
	return nil
}

func (r *Runner) notifyFailure(ctx context.Context, run *notify.Run, err error) {
	if nErr := r.notifier.SendFailure(ctx, run, err); nErr != nil {
		r.logger.Warn("failed to send failure notification", zap.Error(nErr))
	}
}

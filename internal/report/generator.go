package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dgnsrekt/moneyflow/internal/data"
	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
)

// ParamsFunc builds the pipeline parameters for one symbol and day.
type ParamsFunc func(symbol string, date time.Time, lotSize int) moneyflow.Params

// Sink receives each computed result and returns the files it produced.
type Sink func(res *moneyflow.Result) ([]string, error)

// Generator computes money-flow reports from archived price lists.
type Generator struct {
	loader data.Loader
	lots   *LotSizes
	params ParamsFunc
	logger *zap.Logger
}

func NewGenerator(loader data.Loader, lots *LotSizes, params ParamsFunc, logger *zap.Logger) *Generator {
	return &Generator{
		loader: loader,
		lots:   lots,
		params: params,
		logger: logger,
	}
}

// Generate computes the report for one symbol and day.
func (g *Generator) Generate(ctx context.Context, symbol string, date time.Time) (*moneyflow.Result, error) {
	lotSize, err := g.lots.Lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}

	records, err := g.loader.Records(ctx, date)
	if err != nil {
		return nil, err
	}

	res, err := moneyflow.Compute(records, g.params(symbol, date, lotSize))
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", symbol, date.Format(data.DateLayout), err)
	}
	return res, nil
}

// Outcome is the result of one symbol/day in a batch.
type Outcome struct {
	Symbol  string
	Date    time.Time
	Paths   []string
	Summary *Summary
	Err     error
}

// Batch collects the outcomes of a Run.
type Batch struct {
	RunID    string
	Outcomes []Outcome
	Duration time.Duration
}

// Succeeded returns the outcomes without an error.
func (b *Batch) Succeeded() []Outcome {
	var out []Outcome
	for _, o := range b.Outcomes {
		if o.Err == nil {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the outcomes with an error.
func (b *Batch) Failed() []Outcome {
	var out []Outcome
	for _, o := range b.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Run generates every symbol for every date, handing results to sink.
// Failures are recorded per outcome and do not stop the batch; a cancelled
// context does.
func (g *Generator) Run(ctx context.Context, symbols []string, dates []time.Time, sink Sink) *Batch {
	start := time.Now()
	batch := &Batch{RunID: uuid.New().String()}
	logger := g.logger.With(zap.String("run_id", batch.RunID))

	logger.Info("starting report run",
		zap.Strings("symbols", symbols),
		zap.Int("dates", len(dates)),
	)

	for _, date := range dates {
		for _, symbol := range symbols {
			if ctx.Err() != nil {
				batch.Duration = time.Since(start)
				logger.Warn("report run cancelled", zap.Error(ctx.Err()))
				return batch
			}

			outcome := Outcome{Symbol: symbol, Date: date}
			res, err := g.Generate(ctx, symbol, date)
			if err == nil && sink != nil {
				outcome.Paths, err = sink(res)
			}
			if err != nil {
				outcome.Err = err
				logger.Warn("report failed",
					zap.String("symbol", symbol),
					zap.String("date", date.Format(data.DateLayout)),
					zap.Error(err),
				)
			} else {
				summary := Summarize(res)
				outcome.Summary = &summary
				logger.Info("report generated",
					zap.String("symbol", symbol),
					zap.String("date", date.Format(data.DateLayout)),
					zap.String("expiry", res.Expiry.Format(data.DateLayout)),
					zap.Strings("files", outcome.Paths),
				)
			}
			batch.Outcomes = append(batch.Outcomes, outcome)
		}
	}

	batch.Duration = time.Since(start)
	logger.Info("report run complete",
		zap.Int("succeeded", len(batch.Succeeded())),
		zap.Int("failed", len(batch.Failed())),
		zap.Duration("duration", batch.Duration),
	)
	return batch
}

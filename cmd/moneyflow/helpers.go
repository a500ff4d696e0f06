package main

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/moneyflow/internal/config"
	"github.com/dgnsrekt/moneyflow/internal/data"
	"github.com/dgnsrekt/moneyflow/internal/download"
	"github.com/dgnsrekt/moneyflow/internal/market"
	"github.com/dgnsrekt/moneyflow/internal/nse"
	"github.com/dgnsrekt/moneyflow/internal/report"
	"github.com/dgnsrekt/moneyflow/internal/staging"
)

// maxRangeDays bounds a date range argument.
const maxRangeDays = 366

// parseDates parses date arguments and returns every calendar day in range
func parseDates(args []string) ([]time.Time, error) {
	start, err := time.Parse(data.DateLayout, args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid start date format (use YYYY-MM-DD): %w", err)
	}

	if len(args) == 1 {
		return []time.Time{start}, nil
	}

	end, err := time.Parse(data.DateLayout, args[1])
	if err != nil {
		return nil, fmt.Errorf("invalid end date format (use YYYY-MM-DD): %w", err)
	}

	if end.Before(start) {
		return nil, fmt.Errorf("end date must be after start date")
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return nil, fmt.Errorf("date range exceeds %d days", maxRangeDays)
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}

	return dates, nil
}

// resolveDates parses date arguments, defaulting to the previous trading day
// when none are given
func resolveDates(cal *market.Calendar, args []string) ([]time.Time, error) {
	if len(args) == 0 {
		return []time.Time{cal.PreviousTradingDay(cal.Today())}, nil
	}
	return parseDates(args)
}

// parseSymbols splits comma-separated symbol arguments and upper-cases them
func parseSymbols(arg string) []string {
	var symbols []string
	for _, s := range strings.Split(arg, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

// filterMarketDays drops weekends and NSE holidays, logging each skipped date
func filterMarketDays(cal *market.Calendar, dates []time.Time, logger *zap.Logger) []time.Time {
	trading, skipped := cal.TradingDays(dates)
	for _, d := range skipped {
		logger.Warn("skipping non-trading day", zap.String("date", d.Format(data.DateLayout)))
	}
	return trading
}

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(data.DateLayout))
	}
	return out
}

func newDownloadManager(cfg *config.Config, client *nse.HTTPClient, logger *zap.Logger) *download.Manager {
	stgMgr := staging.NewManager(cfg.Archive.Directory)
	return download.NewManager(client, stgMgr, cfg.Download.Workers, logger)
}

func newGenerator(cfg *config.Config, client *nse.HTTPClient, logger *zap.Logger) (*report.Generator, *report.LotSizes, data.Loader) {
	loader := data.NewMemoryLoader(cfg.Archive.Directory, logger)
	lots := report.NewLotSizes(cfg.LotSizes, client, logger)
	return report.NewGenerator(loader, lots, cfg.Params, logger), lots, loader
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/moneyflow/internal/data"
	"github.com/dgnsrekt/moneyflow/internal/market"
	"github.com/dgnsrekt/moneyflow/internal/nse"
)

func fetchCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "fetch [YYYY-MM-DD] [END_DATE]",
		Short: "Download derivatives price lists into the archive",
		Long: `Download NSE derivatives end-of-day price lists for the specified date(s).

Without a date the previous NSE trading day is fetched. Weekends and NSE
holidays are skipped. Days already archived are not
downloaded again.

Examples:
  # Fetch a single day
  moneyflow fetch 2024-03-27

  # Fetch a range
  moneyflow fetch 2024-03-01 2024-03-28

  # Show what would be downloaded
  moneyflow fetch --dry-run 2024-03-01 2024-03-28`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cal := market.NewCalendar()
			dates, err := resolveDates(cal, args)
			if err != nil {
				return err
			}

			dates = filterMarketDays(cal, dates, logger)
			if len(dates) == 0 {
				logger.Warn("no trading days in range")
				return nil
			}

			logger.Info("fetching price lists", zap.Strings("dates", formatDates(dates)))

			if dryRun {
				for _, d := range dates {
					fmt.Printf("Would download: %s -> %s\n", nse.PriceListPath(d), data.ArchivePath(cfg.Archive.Directory, d))
				}
				return nil
			}

			client := nse.NewClient(cfg.NSEOptions(), logger)
			result, err := newDownloadManager(cfg, client, logger).Fetch(ctx, dates)
			if err != nil {
				return err
			}

			logger.Info("fetch complete",
				zap.Int("total", result.Total),
				zap.Int("downloaded", result.Success),
				zap.Int("skipped", result.Skipped),
				zap.Int("not_found", result.NotFound),
				zap.Int("failed", result.Failed),
			)

			for _, d := range result.Missing {
				logger.Warn("price list not found", zap.String("date", d))
			}

			if result.Failed > 0 {
				for _, e := range result.Errors {
					logger.Error("download error", zap.String("error", e))
				}
				return fmt.Errorf("%d downloads failed", result.Failed)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be downloaded")

	return cmd
}

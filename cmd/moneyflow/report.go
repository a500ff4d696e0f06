package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/moneyflow/internal/config"
	"github.com/dgnsrekt/moneyflow/internal/data"
	"github.com/dgnsrekt/moneyflow/internal/market"
	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
	"github.com/dgnsrekt/moneyflow/internal/nse"
	"github.com/dgnsrekt/moneyflow/internal/report"
)

func reportCmd() *cobra.Command {
	var (
		printTable bool
		noFetch    bool
		formats    []string
	)

	cmd := &cobra.Command{
		Use:   "report SYMBOL[,SYMBOL...] [YYYY-MM-DD] [END_DATE]",
		Short: "Generate money-flow reports",
		Long: `Generate money-flow reports for one or more symbols and trading days.

Without a date the previous NSE trading day is used. Missing price lists
are fetched first. Reports are written to
{output}/{YYYY-MM-DD}/{SYMBOL}_Money_Flow_{YYYY-MM-DD}.xlsx

Examples:
  # Single symbol and day
  moneyflow report NIFTY 2024-03-27

  # Several symbols over a range, with CSV alongside the spreadsheet
  moneyflow report NIFTY,BANKNIFTY,RELIANCE 2024-03-25 2024-03-28 --formats xlsx,csv

  # Print the table instead of only writing files
  moneyflow report NIFTY 2024-03-27 --print`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			symbols := parseSymbols(args[0])
			if err := config.ValidateSymbols(symbols); err != nil {
				return err
			}

			cal := market.NewCalendar()
			dates, err := resolveDates(cal, args[1:])
			if err != nil {
				return err
			}
			dates = filterMarketDays(cal, dates, logger)
			if len(dates) == 0 {
				logger.Warn("no trading days in range")
				return nil
			}

			if len(formats) == 0 {
				formats = cfg.Report.Formats
			}
			for i, f := range formats {
				formats[i] = strings.ToLower(strings.TrimSpace(f))
			}
			reportCfg := cfg.Report
			reportCfg.Formats = formats
			if err := config.ValidateReportConfig(symbols, cfg.LotSizes, reportCfg); err != nil {
				return err
			}
			cfg.Report = reportCfg

			client := nse.NewClient(cfg.NSEOptions(), logger)

			if !noFetch {
				result, err := newDownloadManager(cfg, client, logger).Fetch(ctx, dates)
				if err != nil {
					return err
				}
				for _, d := range result.Missing {
					logger.Warn("price list not found", zap.String("date", d))
				}
			}

			return generateReports(cmd, client, symbols, dates, cfg.OutputFormats(), printTable)
		},
	}

	cmd.Flags().BoolVar(&printTable, "print", false, "print each report as a table")
	cmd.Flags().BoolVar(&noFetch, "no-fetch", false, "use only archived price lists")
	cmd.Flags().StringSliceVar(&formats, "formats", nil, "override report formats from config (xlsx,csv)")

	return cmd
}

func generateReports(cmd *cobra.Command, client *nse.HTTPClient, symbols []string, dates []time.Time, formats []string, printTable bool) error {
	generator, _, _ := newGenerator(cfg, client, logger)
	writer := report.NewFileWriter(cfg.Output.Directory, formats)

	out := cmd.OutOrStdout()
	sink := func(res *moneyflow.Result) ([]string, error) {
		if printTable {
			fmt.Fprintln(out)
			report.RenderTable(out, res)
		}
		return writer.Write(res)
	}

	batch := generator.Run(cmd.Context(), symbols, dates, sink)

	for _, o := range batch.Succeeded() {
		fmt.Fprintln(out, o.Summary.String())
		for _, p := range o.Paths {
			fmt.Fprintf(out, "Money Flow Report Successfully Generated: %s\n", p)
		}
	}

	if failed := batch.Failed(); len(failed) > 0 {
		for _, o := range failed {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", o.Symbol, o.Date.Format(data.DateLayout), o.Err)
		}
		return fmt.Errorf("%d of %d reports failed", len(failed), len(batch.Outcomes))
	}
	return cmd.Context().Err()
}

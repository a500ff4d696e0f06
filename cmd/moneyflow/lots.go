package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/moneyflow/internal/nse"
	"github.com/dgnsrekt/moneyflow/internal/report"
)

func lotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lots [SYMBOL...]",
		Short: "Show F&O market lot sizes",
		Long: `Show market lot sizes from the NSE lot file, with configured
overrides applied. Without arguments every symbol is listed.

Examples:
  moneyflow lots
  moneyflow lots NIFTY RELIANCE`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client := nse.NewClient(cfg.NSEOptions(), logger)
			lots := report.NewLotSizes(cfg.LotSizes, client, logger)

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Symbol", "Lot Size"})
			table.SetAutoFormatHeaders(false)
			table.SetBorder(false)

			if len(args) == 0 {
				all, err := lots.All(ctx)
				if err != nil {
					return err
				}
				symbols := make([]string, 0, len(all))
				for s := range all {
					symbols = append(symbols, s)
				}
				slices.Sort(symbols)
				for _, s := range symbols {
					table.Append([]string{s, fmt.Sprint(all[s])})
				}
				table.Render()
				return nil
			}

			var missing int
			for _, symbol := range parseSymbols(strings.Join(args, ",")) {
				size, err := lots.Lookup(ctx, symbol)
				if err != nil {
					table.Append([]string{symbol, err.Error()})
					missing++
					continue
				}
				table.Append([]string{symbol, fmt.Sprint(size)})
			}
			table.Render()

			if missing > 0 {
				return fmt.Errorf("%d symbols without a lot size", missing)
			}
			return nil
		},
	}

	return cmd
}


package report

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
)

var tableHeader = []string{
	"Strike", "Type", "Premium Turnover", "VWAP", "Chg OI/Lot", "Value (L)", "Breakeven", "Level",
}

// RenderTable prints the labeled rows of res as a terminal table.
func RenderTable(w io.Writer, res *moneyflow.Result) {
	p := message.NewPrinter(language.English)

	table := tablewriter.NewWriter(w)
	table.SetHeader(tableHeader)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	for _, rec := range Records(res) {
		table.Append([]string{
			p.Sprintf("%.2f", rec.Strike),
			rec.OptionType,
			p.Sprintf("%.2f", rec.PremiumTurnover),
			p.Sprintf("%.2f", rec.VWAP),
			p.Sprintf("%.2f", rec.OIPerLot),
			p.Sprintf("%.2f", rec.ValueInLakhs),
			rec.Breakeven,
			rec.Level,
		})
	}

	table.Render()
}

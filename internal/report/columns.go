package report

import (
	"strconv"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/dgnsrekt/moneyflow/internal/data"
	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
)

// Columns is the report header in sheet order. The price list columns come
// first, followed by the derived ones; the level is always last.
var Columns = []string{
	"INSTRUMENT", "SYMBOL", "EXPIRY_DT", "STRIKE_PR", "OPTION_TYP",
	"OPEN", "HIGH", "LOW", "CLOSE", "SETTLE_PR",
	"CONTRACTS", "VAL_INLAKH", "OPEN_INT", "CHG_IN_OI", "TIMESTAMP",
	"LOT_SIZE", "PREMIUM_TURNOVER", "VWAP", "OI/CONTRACTS",
	"OPEN_INT/LOT_SIZE", "VALUE_IN_LAKHS", "BREAKEVEN", "IMPORTANT_LEVELS",
}

// Record is one flattened report row.
type Record struct {
	Instrument         string  `csv:"INSTRUMENT"`
	Symbol             string  `csv:"SYMBOL"`
	Expiry             string  `csv:"EXPIRY_DT"`
	Strike             float64 `csv:"STRIKE_PR"`
	OptionType         string  `csv:"OPTION_TYP"`
	Open               float64 `csv:"OPEN"`
	High               float64 `csv:"HIGH"`
	Low                float64 `csv:"LOW"`
	Close              float64 `csv:"CLOSE"`
	SettlePrice        float64 `csv:"SETTLE_PR"`
	Contracts          float64 `csv:"CONTRACTS"`
	Turnover           float64 `csv:"VAL_INLAKH"`
	OpenInterest       float64 `csv:"OPEN_INT"`
	ChangeInOI         float64 `csv:"CHG_IN_OI"`
	Timestamp          string  `csv:"TIMESTAMP"`
	LotSize            float64 `csv:"LOT_SIZE"`
	PremiumTurnover    float64 `csv:"PREMIUM_TURNOVER"`
	VWAP               float64 `csv:"VWAP"`
	OIPerLot           float64 `csv:"OI/CONTRACTS"`
	OpenInterestPerLot float64 `csv:"OPEN_INT/LOT_SIZE"`
	ValueInLakhs       float64 `csv:"VALUE_IN_LAKHS"`
	Breakeven          string  `csv:"BREAKEVEN"`
	Level              string  `csv:"IMPORTANT_LEVELS"`
}

// Records flattens the labeled rows of res, breakeven rounded to two places.
func Records(res *moneyflow.Result) []Record {
	out := make([]Record, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, newRecord(row))
	}
	return out
}

func newRecord(row moneyflow.Row) Record {
	rec := Record{
		Instrument:         string(row.Instrument),
		Symbol:             row.Symbol,
		Expiry:             formatListDate(row.Expiry),
		Strike:             row.Strike,
		OptionType:         string(row.OptionType),
		Open:               row.Open,
		High:               row.High,
		Low:                row.Low,
		Close:              row.Close,
		SettlePrice:        row.SettlePrice,
		Contracts:          row.Contracts,
		Turnover:           row.Turnover,
		OpenInterest:       row.OpenInterest,
		ChangeInOI:         row.ChangeInOI,
		Timestamp:          formatListDate(row.TradeDate),
		LotSize:            row.LotSize,
		PremiumTurnover:    row.PremiumTurnover,
		VWAP:               row.VWAP,
		OIPerLot:           row.OIPerLot,
		OpenInterestPerLot: row.OpenInterestPerLot,
		ValueInLakhs:       row.ValueInLakhs,
		Level:              string(row.Level),
	}
	if row.Breakeven != nil {
		rec.Breakeven = strconv.FormatFloat(round2(*row.Breakeven), 'f', 2, 64)
	}
	return rec
}

// Cells returns the record's values in Columns order. Numbers stay numeric
// so spreadsheets can sort and sum them.
func (r Record) Cells() []any {
	var breakeven any = r.Breakeven
	if v, err := strconv.ParseFloat(r.Breakeven, 64); err == nil {
		breakeven = v
	}
	return []any{
		r.Instrument, r.Symbol, r.Expiry, r.Strike, r.OptionType,
		r.Open, r.High, r.Low, r.Close, r.SettlePrice,
		r.Contracts, r.Turnover, r.OpenInterest, r.ChangeInOI, r.Timestamp,
		r.LotSize, r.PremiumTurnover, r.VWAP, r.OIPerLot,
		r.OpenInterestPerLot, r.ValueInLakhs, breakeven, r.Level,
	}
}

func formatListDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(data.PriceListDateLayout)
}

func round2(v float64) float64 {
	r, err := stats.Round(v, 2)
	if err != nil {
		return v
	}
	return r
}

package report

import (
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dgnsrekt/moneyflow/internal/data"
	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
)

// Summary aggregates the call and put sides of a report.
type Summary struct {
	Symbol string    `json:"symbol"`
	AsOf   time.Time `json:"as_of"`
	Expiry time.Time `json:"expiry"`

	CallPremium     float64 `json:"call_premium"`
	PutPremium      float64 `json:"put_premium"`
	MeanCallPremium float64 `json:"mean_call_premium"`
	MeanPutPremium  float64 `json:"mean_put_premium"`

	// PutCallRatio is put premium turnover over call premium turnover;
	// zero when no call premium traded.
	PutCallRatio float64 `json:"put_call_ratio"`

	CallValue float64 `json:"call_value_lakhs"`
	PutValue  float64 `json:"put_value_lakhs"`

	Resistance []float64 `json:"resistance"`
	Support    []float64 `json:"support"`
}

// Summarize computes the premium and OI value totals over the labeled rows.
func Summarize(res *moneyflow.Result) Summary {
	var callPremium, putPremium, callValue, putValue stats.Float64Data
	for _, row := range res.Rows {
		switch row.OptionType {
		case moneyflow.Call:
			callPremium = append(callPremium, row.PremiumTurnover)
			callValue = append(callValue, row.ValueInLakhs)
		case moneyflow.Put:
			putPremium = append(putPremium, row.PremiumTurnover)
			putValue = append(putValue, row.ValueInLakhs)
		}
	}

	s := Summary{
		Symbol:          res.Symbol,
		AsOf:            res.AsOf,
		Expiry:          res.Expiry,
		CallPremium:     sum(callPremium),
		PutPremium:      sum(putPremium),
		MeanCallPremium: mean(callPremium),
		MeanPutPremium:  mean(putPremium),
		CallValue:       sum(callValue),
		PutValue:        sum(putValue),
	}
	if s.CallPremium != 0 {
		s.PutCallRatio = round2(s.PutPremium / s.CallPremium)
	}

	for _, level := range moneyflow.AllLevels() {
		row, ok := res.Level(level)
		if !ok {
			continue
		}
		if level.IsResistance() {
			s.Resistance = append(s.Resistance, row.Strike)
		} else if level.IsSupport() {
			s.Support = append(s.Support, row.Strike)
		}
	}
	return s
}

// String renders a one-line summary with grouped digits.
func (s Summary) String() string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%s %s (expiry %s): call premium %.2f L, put premium %.2f L, PCR %.2f, resistance %v, support %v",
		s.Symbol,
		s.AsOf.Format(data.DateLayout),
		s.Expiry.Format(data.DateLayout),
		s.CallPremium,
		s.PutPremium,
		s.PutCallRatio,
		s.Resistance,
		s.Support,
	)
}

func sum(xs stats.Float64Data) float64 {
	if len(xs) == 0 {
		return 0
	}
	v, err := stats.Sum(xs)
	if err != nil {
		return 0
	}
	return v
}

func mean(xs stats.Float64Data) float64 {
	if len(xs) == 0 {
		return 0
	}
	v, err := stats.Mean(xs)
	if err != nil {
		return 0
	}
	return v
}

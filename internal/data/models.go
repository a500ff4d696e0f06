package data

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
)

// PriceListDateLayout is the date format used inside the price list CSV.
const PriceListDateLayout = "02-Jan-2006"

// PriceListRow is one CSV row of the derivatives price list.
type PriceListRow struct {
	Instrument   string  `csv:"INSTRUMENT"`
	Symbol       string  `csv:"SYMBOL"`
	ExpiryDate   string  `csv:"EXPIRY_DT"`
	Strike       float64 `csv:"STRIKE_PR"`
	OptionType   string  `csv:"OPTION_TYP"`
	Open         float64 `csv:"OPEN"`
	High         float64 `csv:"HIGH"`
	Low          float64 `csv:"LOW"`
	Close        float64 `csv:"CLOSE"`
	SettlePrice  float64 `csv:"SETTLE_PR"`
	Contracts    float64 `csv:"CONTRACTS"`
	ValueInLakh  float64 `csv:"VAL_INLAKH"`
	OpenInterest float64 `csv:"OPEN_INT"`
	ChangeInOI   float64 `csv:"CHG_IN_OI"`
	Timestamp    string  `csv:"TIMESTAMP"`
}

// Record converts the CSV row into a pipeline record.
func (r PriceListRow) Record() (moneyflow.ContractRecord, error) {
	expiry, err := parseListDate(r.ExpiryDate)
	if err != nil {
		return moneyflow.ContractRecord{}, fmt.Errorf("parsing EXPIRY_DT: %w", err)
	}

	var traded time.Time
	if strings.TrimSpace(r.Timestamp) != "" {
		traded, err = parseListDate(r.Timestamp)
		if err != nil {
			return moneyflow.ContractRecord{}, fmt.Errorf("parsing TIMESTAMP: %w", err)
		}
	}

	return moneyflow.ContractRecord{
		Instrument:   moneyflow.InstrumentKind(strings.TrimSpace(r.Instrument)),
		Symbol:       strings.TrimSpace(r.Symbol),
		Expiry:       expiry,
		Strike:       r.Strike,
		OptionType:   moneyflow.OptionType(strings.TrimSpace(r.OptionType)),
		Open:         r.Open,
		High:         r.High,
		Low:          r.Low,
		Close:        r.Close,
		SettlePrice:  r.SettlePrice,
		Contracts:    r.Contracts,
		Turnover:     r.ValueInLakh,
		OpenInterest: r.OpenInterest,
		ChangeInOI:   r.ChangeInOI,
		TradeDate:    traded,
	}, nil
}

func parseListDate(s string) (time.Time, error) {
	return time.Parse(PriceListDateLayout, strings.TrimSpace(s))
}

// Package moneyflow computes the money-flow view of one symbol's option chain
// for a single trading day: derived turnover columns, a premium-turnover
// ranking, the top strike selection and support/resistance labels.
//
// Everything in this package is a pure function of its inputs.
package moneyflow

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

const lakh = 100000

// Compute runs the full pipeline over records.
func Compute(records []ContractRecord, params Params) (*Result, error) {
	if params.LotSize <= 0 {
		return nil, fmt.Errorf("%w: lot size must be positive, got %v", ErrInvalidInput, params.LotSize)
	}

	filtered, err := Filter(records, params.Instrument, params.Symbol)
	if err != nil {
		return nil, err
	}

	series, expiry, excluded, err := SelectExpiry(filtered, params.AsOf, params.WeeklyExpiry)
	if err != nil {
		return nil, err
	}

	if params.DropUntraded {
		series = Traded(series)
		if len(series) == 0 {
			return nil, fmt.Errorf("%w: %s has no traded contracts expiring %s",
				ErrEmptyResult, params.Symbol, expiry.Format(time.DateOnly))
		}
	}

	rows, err := Derive(series, params.LotSize)
	if err != nil {
		return nil, err
	}

	ranked := Rank(rows)
	strikes := TopStrikes(ranked, params.topStrikes())
	selected := Rank(SelectStrikes(ranked, strikes))

	labeled, err := Label(selected, params.levels(), params.Policy)
	if err != nil {
		return nil, err
	}

	return &Result{
		Symbol:         params.Symbol,
		Instrument:     params.Instrument,
		AsOf:           params.AsOf,
		LotSize:        params.LotSize,
		Expiry:         expiry,
		ExcludedExpiry: excluded,
		Ranked:         ranked,
		Strikes:        strikes,
		Rows:           labeled,
	}, nil
}

// Filter keeps the records of one instrument kind and symbol, preserving
// their order.
func Filter(records []ContractRecord, instrument InstrumentKind, symbol string) ([]ContractRecord, error) {
	var out []ContractRecord
	for _, rec := range records {
		if rec.Instrument == instrument && rec.Symbol == symbol {
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrEmptyResult, instrument, symbol)
	}
	return out, nil
}

// SelectExpiry keeps the nearest expiry series. When asOf falls on the
// weekly expiry weekday the nearest series is treated as already expired and
// the next one is used; the dropped expiry is returned as excluded.
func SelectExpiry(records []ContractRecord, asOf time.Time, weekly time.Weekday) ([]ContractRecord, time.Time, *time.Time, error) {
	if len(records) == 0 {
		return nil, time.Time{}, nil, fmt.Errorf("%w: no records to select an expiry from", ErrEmptyResult)
	}

	nearest := minExpiry(records)

	var excluded *time.Time
	if asOf.Weekday() == weekly {
		dropped := nearest
		excluded = &dropped

		records = slices.DeleteFunc(slices.Clone(records), func(rec ContractRecord) bool {
			return rec.Expiry.Equal(dropped)
		})
		if len(records) == 0 {
			return nil, time.Time{}, excluded, fmt.Errorf("%w: only the %s series expiring %s is listed",
				ErrEmptyResult, weekly, dropped.Format(time.DateOnly))
		}
		nearest = minExpiry(records)
	}

	var out []ContractRecord
	for _, rec := range records {
		if rec.Expiry.Equal(nearest) {
			out = append(out, rec)
		}
	}
	return out, nearest, excluded, nil
}

func minExpiry(records []ContractRecord) time.Time {
	m := records[0].Expiry
	for _, rec := range records[1:] {
		if rec.Expiry.Before(m) {
			m = rec.Expiry
		}
	}
	return m
}

// Traded drops records with no contracts traded.
func Traded(records []ContractRecord) []ContractRecord {
	out := make([]ContractRecord, 0, len(records))
	for _, rec := range records {
		if rec.Contracts > 0 {
			out = append(out, rec)
		}
	}
	return out
}

// Derive computes the money-flow columns for every record. Row order and
// input positions are preserved.
func Derive(records []ContractRecord, lotSize float64) ([]Row, error) {
	if lotSize <= 0 {
		return nil, fmt.Errorf("%w: lot size must be positive, got %v", ErrInvalidInput, lotSize)
	}

	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		if rec.Contracts <= 0 {
			return nil, fmt.Errorf("%w: %s %v %s has %v contracts",
				ErrInvalidInput, rec.Symbol, rec.Strike, rec.OptionType, rec.Contracts)
		}

		row := Row{ContractRecord: rec, LotSize: lotSize, seq: i}
		row.Notional = rec.Strike * rec.Contracts * lotSize / lakh
		row.PremiumTurnover = rec.Turnover - row.Notional
		row.VWAP = (row.PremiumTurnover * lakh / rec.Contracts) / lotSize
		row.OIPerLot = rec.ChangeInOI / lotSize
		row.OpenInterestPerLot = rec.OpenInterest / lotSize
		row.ValueInLakhs = (row.VWAP * rec.ChangeInOI) / lakh

		var breakeven float64
		switch rec.OptionType {
		case Call:
			breakeven = rec.Strike + row.VWAP
		case Put:
			breakeven = rec.Strike - row.VWAP
		default:
			return nil, fmt.Errorf("%w: unknown option type %q at strike %v", ErrInvalidInput, rec.OptionType, rec.Strike)
		}
		row.Breakeven = &breakeven

		rows = append(rows, row)
	}
	return rows, nil
}

// Rank returns a copy of rows ordered by premium turnover, highest first.
// Equal turnover keeps input order.
func Rank(rows []Row) []Row {
	ranked := slices.Clone(rows)
	slices.SortStableFunc(ranked, func(a, b Row) int {
		if c := cmp.Compare(b.PremiumTurnover, a.PremiumTurnover); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	return ranked
}

// TopStrikes returns the distinct strikes among the first n ranked rows, in
// order of first appearance.
func TopStrikes(ranked []Row, n int) []float64 {
	if n > len(ranked) {
		n = len(ranked)
	}
	strikes := make([]float64, 0, n)
	for _, row := range ranked[:n] {
		if !slices.Contains(strikes, row.Strike) {
			strikes = append(strikes, row.Strike)
		}
	}
	return strikes
}

// SelectStrikes keeps every row, call or put, whose strike is in strikes.
func SelectStrikes(rows []Row, strikes []float64) []Row {
	var out []Row
	for _, row := range rows {
		if slices.Contains(strikes, row.Strike) {
			out = append(out, row)
		}
	}
	return out
}

// Label returns a copy of ranked with the first n calls marked as
// resistance and the first n puts marked as support, in rank order.
func Label(ranked []Row, n int, policy LabelPolicy) ([]Row, error) {
	if n > len(resistanceLevels) {
		n = len(resistanceLevels)
	}

	out := make([]Row, len(ranked))
	var calls, puts int
	for i, row := range ranked {
		row.Level = NoLevel
		switch {
		case row.OptionType == Call && calls < n:
			row.Level = resistanceLevels[calls]
			calls++
		case row.OptionType == Put && puts < n:
			row.Level = supportLevels[puts]
			puts++
		}
		out[i] = row
	}

	if policy == LabelStrict && (calls < n || puts < n) {
		return nil, fmt.Errorf("%w: need %d of each, have %d calls and %d puts",
			ErrInsufficientData, n, calls, puts)
	}
	return out, nil
}

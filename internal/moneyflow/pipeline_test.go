package moneyflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	wed      = time.Date(2024, time.March, 27, 0, 0, 0, 0, time.UTC)
	thu      = time.Date(2024, time.March, 28, 0, 0, 0, 0, time.UTC)
	nextThu  = time.Date(2024, time.April, 4, 0, 0, 0, 0, time.UTC)
	monthEnd = time.Date(2024, time.April, 25, 0, 0, 0, 0, time.UTC)
)

func contract(opt OptionType, strike, contracts, turnover float64) ContractRecord {
	return ContractRecord{
		Instrument: IndexOption,
		Symbol:     "NIFTY",
		Expiry:     thu,
		Strike:     strike,
		OptionType: opt,
		Contracts:  contracts,
		Turnover:   turnover,
		TradeDate:  wed,
	}
}

// withPremium builds a contract whose premium turnover comes out as premium
// for the given lot size.
func withPremium(opt OptionType, strike, premium, lotSize float64) ContractRecord {
	const contracts = 100
	return contract(opt, strike, contracts, strike*contracts*lotSize/lakh+premium)
}

// chain returns twelve strikes, calls richest at the top strikes and puts
// richest at the bottom ones.
func chain(lotSize float64) []ContractRecord {
	var recs []ContractRecord
	for i := 0; i < 12; i++ {
		strike := 21500 + 100*float64(i)
		recs = append(recs,
			withPremium(Call, strike, 10*float64(i+1), lotSize),
			withPremium(Put, strike, 10*float64(12-i)-5, lotSize),
		)
	}
	return recs
}

func TestDerive_NotionalAndPremium(t *testing.T) {
	recs := []ContractRecord{
		contract(Call, 100, 50, 5.0),
		contract(Call, 105, 80, 8.0),
	}

	rows, err := Derive(recs, 25)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.InDelta(t, 1.25, rows[0].Notional, 1e-9)
	assert.InDelta(t, 2.10, rows[1].Notional, 1e-9)
	assert.InDelta(t, 3.75, rows[0].PremiumTurnover, 1e-9)
	assert.InDelta(t, 5.90, rows[1].PremiumTurnover, 1e-9)

	// 3.75 lakh over 50 contracts of 25 units
	assert.InDelta(t, 300.0, rows[0].VWAP, 1e-9)
	require.NotNil(t, rows[0].Breakeven)
	assert.InDelta(t, 400.0, *rows[0].Breakeven, 1e-9)

	ranked := Rank(rows)
	assert.Equal(t, 105.0, ranked[0].Strike)
}

func TestDerive_OpenInterestColumns(t *testing.T) {
	rec := contract(Put, 200, 10, 3.0)
	rec.OpenInterest = 5000
	rec.ChangeInOI = -1000

	rows, err := Derive([]ContractRecord{rec}, 50)
	require.NoError(t, err)
	row := rows[0]

	assert.InDelta(t, -20.0, row.OIPerLot, 1e-9)
	assert.InDelta(t, 100.0, row.OpenInterestPerLot, 1e-9)
	// notional 1.0, premium 2.0, vwap 2.0*1e5/10/50 = 400
	assert.InDelta(t, 400.0, row.VWAP, 1e-9)
	assert.InDelta(t, 400.0*-1000/lakh, row.ValueInLakhs, 1e-9)
	assert.InDelta(t, 200.0-400.0, *row.Breakeven, 1e-9)
}

func TestDerive_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		recs    []ContractRecord
		lotSize float64
	}{
		{"zero lot size", []ContractRecord{contract(Call, 100, 1, 1)}, 0},
		{"negative lot size", []ContractRecord{contract(Call, 100, 1, 1)}, -25},
		{"zero contracts", []ContractRecord{contract(Call, 100, 0, 1)}, 25},
		{"unknown option type", []ContractRecord{contract("XX", 100, 1, 1)}, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Derive(tt.recs, tt.lotSize)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRank_StableOnTies(t *testing.T) {
	rows, err := Derive([]ContractRecord{
		contract(Call, 100, 10, 5),
		contract(Put, 100, 10, 9),
		contract(Call, 100, 10, 5),
		contract(Put, 100, 10, 5),
	}, 1)
	require.NoError(t, err)

	ranked := Rank(rows)
	require.Len(t, ranked, 4)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].PremiumTurnover, ranked[i].PremiumTurnover)
	}
	assert.Equal(t, []int{1, 0, 2, 3}, []int{ranked[0].Seq(), ranked[1].Seq(), ranked[2].Seq(), ranked[3].Seq()})

	// input untouched
	assert.Equal(t, 0, rows[0].Seq())
}

func TestFilter(t *testing.T) {
	stock := contract(Call, 100, 1, 1)
	stock.Instrument = StockOption
	stock.Symbol = "RELIANCE"

	recs := []ContractRecord{contract(Call, 100, 1, 1), stock}

	got, err := Filter(recs, StockOption, "RELIANCE")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "RELIANCE", got[0].Symbol)

	_, err = Filter(recs, StockOption, "NIFTY")
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestSelectExpiry(t *testing.T) {
	recs := []ContractRecord{
		contract(Call, 100, 1, 1),
		contract(Put, 100, 1, 1),
	}
	next := contract(Call, 100, 1, 1)
	next.Expiry = nextThu
	monthly := contract(Put, 100, 1, 1)
	monthly.Expiry = monthEnd
	recs = append(recs, monthly, next)

	t.Run("before expiry day keeps nearest series", func(t *testing.T) {
		out, expiry, excluded, err := SelectExpiry(recs, wed, time.Thursday)
		require.NoError(t, err)
		assert.Nil(t, excluded)
		assert.True(t, expiry.Equal(thu))
		assert.Len(t, out, 2)
	})

	t.Run("on expiry day drops the expiring series", func(t *testing.T) {
		out, expiry, excluded, err := SelectExpiry(recs, thu, time.Thursday)
		require.NoError(t, err)
		require.NotNil(t, excluded)
		assert.True(t, excluded.Equal(thu))
		assert.True(t, expiry.After(*excluded))
		assert.True(t, expiry.Equal(nextThu))
		require.Len(t, out, 1)
		assert.True(t, out[0].Expiry.Equal(nextThu))
	})

	t.Run("weekly weekday is configurable", func(t *testing.T) {
		_, expiry, excluded, err := SelectExpiry(recs, wed, time.Wednesday)
		require.NoError(t, err)
		require.NotNil(t, excluded)
		assert.True(t, expiry.Equal(nextThu))
	})

	t.Run("only expiring series listed", func(t *testing.T) {
		_, _, _, err := SelectExpiry(recs[:2], thu, time.Thursday)
		assert.ErrorIs(t, err, ErrEmptyResult)
	})

	t.Run("input slice is not modified", func(t *testing.T) {
		before := append([]ContractRecord(nil), recs...)
		_, _, _, err := SelectExpiry(recs, thu, time.Thursday)
		require.NoError(t, err)
		assert.Equal(t, before, recs)
	})
}

func TestLabel_InsufficientPuts(t *testing.T) {
	rows, err := Derive([]ContractRecord{
		contract(Call, 100, 10, 9),
		contract(Call, 105, 10, 8),
		contract(Call, 110, 10, 7),
		contract(Put, 100, 10, 6),
		contract(Put, 95, 10, 5),
	}, 1)
	require.NoError(t, err)
	ranked := Rank(rows)

	_, err = Label(ranked, 3, LabelStrict)
	assert.ErrorIs(t, err, ErrInsufficientData)

	labeled, err := Label(ranked, 3, LabelPartial)
	require.NoError(t, err)
	var levels []Level
	for _, row := range labeled {
		levels = append(levels, row.Level)
	}
	assert.Equal(t, []Level{Resistance1, Resistance2, Resistance3, Support1, Support2}, levels)
}

func TestCompute_FullChain(t *testing.T) {
	const lotSize = 50
	params := NewParams("NIFTY", wed, IndexOption, lotSize)

	res, err := Compute(chain(lotSize), params)
	require.NoError(t, err)

	assert.True(t, res.Expiry.Equal(thu))
	assert.Nil(t, res.ExcludedExpiry)
	assert.Len(t, res.Ranked, 24)
	assert.LessOrEqual(t, len(res.Strikes), DefaultTopStrikes)
	assert.Len(t, res.Strikes, 10)
	// ten strikes, both sides each
	assert.Len(t, res.Rows, 20)

	for i := 1; i < len(res.Ranked); i++ {
		assert.GreaterOrEqual(t, res.Ranked[i-1].PremiumTurnover, res.Ranked[i].PremiumTurnover)
	}
	for i := 1; i < len(res.Rows); i++ {
		assert.GreaterOrEqual(t, res.Rows[i-1].PremiumTurnover, res.Rows[i].PremiumTurnover)
	}

	for _, row := range res.Rows {
		assert.Contains(t, res.Strikes, row.Strike)
		require.NotNil(t, row.Breakeven)
		switch row.OptionType {
		case Call:
			assert.Equal(t, row.Strike+row.VWAP, *row.Breakeven)
		case Put:
			assert.Equal(t, row.Strike-row.VWAP, *row.Breakeven)
		}
	}

	expected := map[Level]struct {
		strike float64
		opt    OptionType
	}{
		Resistance1: {22600, Call},
		Resistance2: {22500, Call},
		Resistance3: {22400, Call},
		Support1:    {21500, Put},
		Support2:    {21600, Put},
		Support3:    {21700, Put},
	}
	labeled := 0
	for _, row := range res.Rows {
		if row.Level == NoLevel {
			continue
		}
		labeled++
		want, ok := expected[row.Level]
		require.True(t, ok, "unexpected level %q", row.Level)
		assert.Equal(t, want.strike, row.Strike, row.Level)
		assert.Equal(t, want.opt, row.OptionType, row.Level)
	}
	assert.Equal(t, 6, labeled)

	r1, ok := res.Level(Resistance1)
	require.True(t, ok)
	assert.True(t, r1.Level.IsResistance())
	assert.False(t, r1.Level.IsSupport())

	s3, ok := res.Level(Support3)
	require.True(t, ok)
	assert.True(t, s3.Level.IsSupport())
	assert.False(t, s3.Level.IsResistance())
}

func TestCompute_Deterministic(t *testing.T) {
	params := NewParams("NIFTY", wed, IndexOption, 50)

	first, err := Compute(chain(50), params)
	require.NoError(t, err)
	second, err := Compute(chain(50), params)
	require.NoError(t, err)

	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Strikes, second.Strikes)
}

func TestCompute_ThursdayUsesNextSeries(t *testing.T) {
	recs := chain(50)
	for _, rec := range chain(50) {
		rec.Expiry = nextThu
		recs = append(recs, rec)
	}

	res, err := Compute(recs, NewParams("NIFTY", thu, IndexOption, 50))
	require.NoError(t, err)
	require.NotNil(t, res.ExcludedExpiry)
	assert.True(t, res.Expiry.After(*res.ExcludedExpiry))
	for _, row := range res.Rows {
		assert.True(t, row.Expiry.Equal(nextThu))
	}
}

func TestCompute_Errors(t *testing.T) {
	untraded := append(chain(50), contract(Put, 30000, 0, 0))

	t.Run("unknown symbol", func(t *testing.T) {
		_, err := Compute(chain(50), NewParams("BANKNIFTY", wed, IndexOption, 15))
		assert.ErrorIs(t, err, ErrEmptyResult)
	})

	t.Run("non positive lot size", func(t *testing.T) {
		_, err := Compute(chain(50), NewParams("NIFTY", wed, IndexOption, 0))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("zero contracts reach derive", func(t *testing.T) {
		_, err := Compute(untraded, NewParams("NIFTY", wed, IndexOption, 50))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("zero contracts dropped", func(t *testing.T) {
		params := NewParams("NIFTY", wed, IndexOption, 50)
		params.DropUntraded = true
		res, err := Compute(untraded, params)
		require.NoError(t, err)
		assert.Len(t, res.Ranked, 24)
	})

	t.Run("only two puts", func(t *testing.T) {
		recs := []ContractRecord{
			withPremium(Call, 100, 9, 1),
			withPremium(Call, 105, 8, 1),
			withPremium(Call, 110, 7, 1),
			withPremium(Put, 100, 6, 1),
			withPremium(Put, 95, 5, 1),
		}
		_, err := Compute(recs, NewParams("NIFTY", wed, IndexOption, 1))
		assert.ErrorIs(t, err, ErrInsufficientData)
	})
}

func TestTopStrikes_SharedStrikesExpand(t *testing.T) {
	rows, err := Derive([]ContractRecord{
		contract(Call, 100, 10, 9),
		contract(Put, 100, 10, 8),
		contract(Call, 110, 10, 7),
		contract(Put, 120, 10, 1),
		contract(Call, 120, 10, 0.5),
	}, 1)
	require.NoError(t, err)
	ranked := Rank(rows)

	strikes := TopStrikes(ranked, 2)
	assert.Equal(t, []float64{100}, strikes)

	selected := SelectStrikes(ranked, TopStrikes(ranked, 3))
	assert.Len(t, selected, 3)

	assert.Len(t, TopStrikes(ranked, 50), 3)
}

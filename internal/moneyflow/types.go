package moneyflow

import "time"

// InstrumentKind is the bhavcopy INSTRUMENT code of an option series.
type InstrumentKind string

const (
	IndexOption InstrumentKind = "OPTIDX"
	StockOption InstrumentKind = "OPTSTK"
)

// OptionType is the bhavcopy OPTION_TYP code.
type OptionType string

const (
	Call OptionType = "CE"
	Put  OptionType = "PE"
)

// Level is the support/resistance annotation written into the report.
// The string values are matched verbatim by the spreadsheet writer.
type Level string

const (
	NoLevel     Level = ""
	Resistance1 Level = "Resistance 1"
	Resistance2 Level = "Resistance 2"
	Resistance3 Level = "Resistance 3"
	Support1    Level = "Support 1"
	Support2    Level = "Support 2"
	Support3    Level = "Support 3"
)

var (
	resistanceLevels = []Level{Resistance1, Resistance2, Resistance3}
	supportLevels    = []Level{Support1, Support2, Support3}
)

// AllLevels lists every non-empty level in display order.
func AllLevels() []Level {
	levels := make([]Level, 0, len(resistanceLevels)+len(supportLevels))
	levels = append(levels, resistanceLevels...)
	return append(levels, supportLevels...)
}

// IsResistance reports whether l is one of the call-side labels.
func (l Level) IsResistance() bool {
	for _, r := range resistanceLevels {
		if l == r {
			return true
		}
	}
	return false
}

// IsSupport reports whether l is one of the put-side labels.
func (l Level) IsSupport() bool {
	for _, s := range supportLevels {
		if l == s {
			return true
		}
	}
	return false
}

// ContractRecord is one row of the derivatives end-of-day price list.
type ContractRecord struct {
	Instrument   InstrumentKind `json:"instrument"`
	Symbol       string         `json:"symbol"`
	Expiry       time.Time      `json:"expiry"`
	Strike       float64        `json:"strike"`
	OptionType   OptionType     `json:"option_type"`
	Open         float64        `json:"open"`
	High         float64        `json:"high"`
	Low          float64        `json:"low"`
	Close        float64        `json:"close"`
	SettlePrice  float64        `json:"settle_price"`
	Contracts    float64        `json:"contracts"`
	Turnover     float64        `json:"turnover_lakh"`
	OpenInterest float64        `json:"open_interest"`
	ChangeInOI   float64        `json:"change_in_oi"`
	TradeDate    time.Time      `json:"trade_date"`
}

// Row is a ContractRecord with the money-flow columns appended.
type Row struct {
	ContractRecord

	LotSize            float64  `json:"lot_size"`
	Notional           float64  `json:"notional"`
	PremiumTurnover    float64  `json:"premium_turnover"`
	VWAP               float64  `json:"vwap"`
	OIPerLot           float64  `json:"oi_per_lot"`
	OpenInterestPerLot float64  `json:"open_interest_per_lot"`
	ValueInLakhs       float64  `json:"value_in_lakhs"`
	Breakeven          *float64 `json:"breakeven,omitempty"`
	Level              Level    `json:"level,omitempty"`

	// seq is the position of the record among the rows passed to Derive;
	// it is the tie-break for equal premium turnover.
	seq int
}

// Seq returns the row's input position.
func (r Row) Seq() int {
	return r.seq
}

// LabelPolicy decides what happens when fewer than Levels calls or puts are
// available for labeling.
type LabelPolicy int

const (
	// LabelStrict fails with ErrInsufficientData.
	LabelStrict LabelPolicy = iota
	// LabelPartial labels as many rows as exist.
	LabelPartial
)

const (
	DefaultTopStrikes   = 10
	DefaultLevels       = 3
	DefaultWeeklyExpiry = time.Thursday
)

// Params configures a single pipeline run: one symbol, one trading day.
type Params struct {
	Symbol     string
	AsOf       time.Time
	Instrument InstrumentKind
	LotSize    float64

	// WeeklyExpiry is the weekday on which the nearest weekly series
	// expires. On that day the expiring series is dropped before the
	// nearest expiry is chosen.
	WeeklyExpiry time.Weekday

	// TopStrikes is how many ranked rows contribute strikes to the
	// selection. Zero means DefaultTopStrikes.
	TopStrikes int

	// Levels is the number of resistance and support labels. Zero means
	// DefaultLevels; values above three are clamped.
	Levels int

	// DropUntraded removes zero-contract rows before derived columns are
	// computed instead of failing on them.
	DropUntraded bool

	Policy LabelPolicy
}

// NewParams returns Params with the default weekly expiry, strike count and
// level count.
func NewParams(symbol string, asOf time.Time, instrument InstrumentKind, lotSize float64) Params {
	return Params{
		Symbol:       symbol,
		AsOf:         asOf,
		Instrument:   instrument,
		LotSize:      lotSize,
		WeeklyExpiry: DefaultWeeklyExpiry,
		TopStrikes:   DefaultTopStrikes,
		Levels:       DefaultLevels,
	}
}

func (p Params) topStrikes() int {
	if p.TopStrikes <= 0 {
		return DefaultTopStrikes
	}
	return p.TopStrikes
}

func (p Params) levels() int {
	switch {
	case p.Levels <= 0:
		return DefaultLevels
	case p.Levels > len(resistanceLevels):
		return len(resistanceLevels)
	default:
		return p.Levels
	}
}

// Result is the output of Compute.
type Result struct {
	Symbol     string         `json:"symbol"`
	Instrument InstrumentKind `json:"instrument"`
	AsOf       time.Time      `json:"as_of"`
	LotSize    float64        `json:"lot_size"`
	Expiry     time.Time      `json:"expiry"`

	// ExcludedExpiry is set when the weekly-expiry rule dropped a series.
	ExcludedExpiry *time.Time `json:"excluded_expiry,omitempty"`

	// Ranked is every row of the selected expiry, ordered by premium
	// turnover.
	Ranked []Row `json:"-"`

	// Strikes is the top strike set in order of first appearance.
	Strikes []float64 `json:"strikes"`

	// Rows is the final labeled selection.
	Rows []Row `json:"rows"`
}

// Level returns the row carrying the given label.
func (r *Result) Level(l Level) (Row, bool) {
	for _, row := range r.Rows {
		if row.Level == l {
			return row, true
		}
	}
	return Row{}, false
}

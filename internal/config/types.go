package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
	"github.com/dgnsrekt/moneyflow/internal/nse"
)

// Format represents a report output format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ValidFormats lists the supported report formats
var ValidFormats = []Format{FormatXLSX, FormatCSV}

// DefaultIndexSymbols lists the underlyings traded as index options
func DefaultIndexSymbols() []string {
	return []string{"NIFTY", "BANKNIFTY", "FINNIFTY"}
}

// ParseWeekday parses an English weekday name such as "thursday" or "thu".
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid weekday %q", s)
}

// InstrumentFor returns the option instrument the symbol trades as.
func (c *Config) InstrumentFor(symbol string) moneyflow.InstrumentKind {
	if slices.Contains(c.IndexSymbols, strings.ToUpper(symbol)) {
		return moneyflow.IndexOption
	}
	return moneyflow.StockOption
}

// Params builds the pipeline configuration for one symbol and day.
func (c *Config) Params(symbol string, date time.Time, lotSize int) moneyflow.Params {
	symbol = strings.ToUpper(symbol)

	params := moneyflow.NewParams(symbol, date, c.InstrumentFor(symbol), float64(lotSize))
	if wd, err := ParseWeekday(c.Report.WeeklyExpiry); err == nil {
		params.WeeklyExpiry = wd
	}
	params.TopStrikes = c.Report.TopStrikes
	params.Levels = c.Report.Levels
	params.DropUntraded = c.Report.DropUntraded
	if c.Report.PartialLevels {
		params.Policy = moneyflow.LabelPartial
	}
	return params
}

// HasFormat reports whether f is among the configured report formats.
func (c *Config) HasFormat(f Format) bool {
	return slices.Contains(c.Report.Formats, string(f))
}

// OutputFormats returns the configured formats in ValidFormats order,
// without duplicates.
func (c *Config) OutputFormats() []string {
	var out []string
	for _, f := range ValidFormats {
		if c.HasFormat(f) {
			out = append(out, string(f))
		}
	}
	return out
}

// NSEOptions returns the archive client options.
func (c *Config) NSEOptions() nse.Options {
	return nse.Options{
		BaseURL:       c.NSE.BaseURL,
		UserAgent:     c.NSE.UserAgent,
		Referer:       c.NSE.Referer,
		RatePerSecond: c.Download.RatePerSecond,
		Timeout:       time.Duration(c.NSE.TimeoutSec) * time.Second,
		RetryDelay:    time.Duration(c.NSE.RetryDelay) * time.Second,
		RetryCount:    c.NSE.RetryCount,
	}
}

package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// NSE symbols: upper-case letters, digits, '&' and '-' (M&M, BAJAJ-AUTO)
var symbolPattern = regexp.MustCompile(`^[A-Z0-9&-]{1,20}$`)

// InvalidLotSize represents a non-positive lot size override
type InvalidLotSize struct {
	Symbol string
	Size   int
}

// ValidationErrors collects all validation errors
type ValidationErrors struct {
	InvalidSymbols  []string
	InvalidFormats  []string
	InvalidLotSizes []InvalidLotSize
	InvalidReport   []string
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.InvalidSymbols) > 0 || len(e.InvalidFormats) > 0 ||
		len(e.InvalidLotSizes) > 0 || len(e.InvalidReport) > 0
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")

	if len(e.InvalidSymbols) > 0 {
		sb.WriteString("\nInvalid symbols:\n")
		for _, s := range e.InvalidSymbols {
			sb.WriteString(fmt.Sprintf("  - %s\n", s))
		}
		sb.WriteString("\nSymbols are NSE trading symbols such as NIFTY, RELIANCE or M&M\n")
	}

	if len(e.InvalidFormats) > 0 {
		sb.WriteString("\nInvalid report formats:\n")
		for _, f := range e.InvalidFormats {
			sb.WriteString(fmt.Sprintf("  - %s\n", f))
		}
		sb.WriteString(fmt.Sprintf("\nValid formats: %s\n", validFormatsList()))
	}

	if len(e.InvalidLotSizes) > 0 {
		sb.WriteString("\nInvalid lot size overrides:\n")
		for _, l := range e.InvalidLotSizes {
			sb.WriteString(fmt.Sprintf("  - %s: %d (must be > 0)\n", l.Symbol, l.Size))
		}
	}

	if len(e.InvalidReport) > 0 {
		sb.WriteString("\nInvalid report settings:\n")
		for _, r := range e.InvalidReport {
			sb.WriteString(fmt.Sprintf("  - %s\n", r))
		}
	}

	return sb.String()
}

// ValidateReportConfig validates symbols, lot size overrides and report
// settings
func ValidateReportConfig(symbols []string, lotSizes map[string]int, report ReportConfig) error {
	errs := &ValidationErrors{}

	for _, symbol := range symbols {
		if !symbolPattern.MatchString(symbol) {
			errs.InvalidSymbols = append(errs.InvalidSymbols, symbol)
		}
	}

	for _, f := range report.Formats {
		if !slices.Contains(ValidFormats, Format(f)) {
			errs.InvalidFormats = append(errs.InvalidFormats, f)
		}
	}

	overrides := make([]string, 0, len(lotSizes))
	for symbol := range lotSizes {
		overrides = append(overrides, symbol)
	}
	slices.Sort(overrides)
	for _, symbol := range overrides {
		if size := lotSizes[symbol]; size <= 0 {
			errs.InvalidLotSizes = append(errs.InvalidLotSizes, InvalidLotSize{Symbol: symbol, Size: size})
		}
	}

	if report.TopStrikes < 1 {
		errs.InvalidReport = append(errs.InvalidReport, fmt.Sprintf("top_strikes must be >= 1, got %d", report.TopStrikes))
	}
	if report.Levels < 1 || report.Levels > 3 {
		errs.InvalidReport = append(errs.InvalidReport, fmt.Sprintf("levels must be between 1 and 3, got %d", report.Levels))
	}
	if _, err := ParseWeekday(report.WeeklyExpiry); err != nil {
		errs.InvalidReport = append(errs.InvalidReport, fmt.Sprintf("weekly_expiry: %v", err))
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ValidateSymbols checks command-line symbols against the symbol pattern
func ValidateSymbols(symbols []string) error {
	errs := &ValidationErrors{}
	for _, symbol := range symbols {
		if !symbolPattern.MatchString(symbol) {
			errs.InvalidSymbols = append(errs.InvalidSymbols, symbol)
		}
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validFormatsList() string {
	formats := make([]string, 0, len(ValidFormats))
	for _, f := range ValidFormats {
		formats = append(formats, string(f))
	}
	return strings.Join(formats, ", ")
}

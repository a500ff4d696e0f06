package config

import (
	"strings"
	"testing"
)

func validReport() ReportConfig {
	return ReportConfig{
		TopStrikes:   10,
		Levels:       3,
		WeeklyExpiry: "thursday",
		Formats:      []string{"xlsx"},
	}
}

func TestValidateReportConfig_ValidConfig(t *testing.T) {
	symbols := []string{"NIFTY", "M&M", "BAJAJ-AUTO"}

	err := ValidateReportConfig(symbols, map[string]int{"NIFTY": 25}, validReport())
	if err != nil {
		t.Errorf("expected no error for valid config, got: %v", err)
	}
}

func TestValidateReportConfig_InvalidSymbol(t *testing.T) {
	symbols := []string{"NIFTY", "NOT A SYMBOL", "BANKNIFTY"}

	err := ValidateReportConfig(symbols, nil, validReport())
	if err == nil {
		t.Fatal("expected error for invalid symbol")
	}

	if !strings.Contains(err.Error(), "NOT A SYMBOL") {
		t.Errorf("error should mention invalid symbol, got: %v", err)
	}
}

func TestValidateReportConfig_InvalidFormat(t *testing.T) {
	report := validReport()
	report.Formats = []string{"xlsx", "pdf"}

	err := ValidateReportConfig([]string{"NIFTY"}, nil, report)
	if err == nil {
		t.Fatal("expected error for unknown format")
	}

	if !strings.Contains(err.Error(), "pdf") {
		t.Errorf("error should mention pdf, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Valid formats: xlsx, csv") {
		t.Errorf("error should list valid formats, got: %v", err)
	}
}

func TestValidateReportConfig_MultipleErrors(t *testing.T) {
	report := validReport()
	report.TopStrikes = 0
	report.Levels = 4
	report.WeeklyExpiry = "someday"

	err := ValidateReportConfig([]string{"bad symbol"}, map[string]int{"NIFTY": 0, "RELIANCE": -1}, report)
	if err == nil {
		t.Fatal("expected error for multiple issues")
	}

	errStr := err.Error()
	for _, want := range []string{"bad symbol", "NIFTY: 0", "RELIANCE: -1", "top_strikes", "levels must be", "someday"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("error should mention %q, got: %v", want, err)
		}
	}

	verrs, ok := err.(*ValidationErrors)
	if !ok {
		t.Fatalf("expected *ValidationErrors, got %T", err)
	}
	if len(verrs.InvalidLotSizes) != 2 || verrs.InvalidLotSizes[0].Symbol != "NIFTY" {
		t.Errorf("expected sorted lot size errors, got %+v", verrs.InvalidLotSizes)
	}
}

func TestValidateSymbols(t *testing.T) {
	if err := ValidateSymbols([]string{"NIFTY", "RELIANCE"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateSymbols([]string{"nifty"}); err == nil {
		t.Error("lower-case symbols should be rejected before normalisation")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected defaults to load, got error: %v", err)
	}

	if cfg.NSE.BaseURL != "https://nsearchives.nseindia.com" {
		t.Errorf("expected default base URL, got '%s'", cfg.NSE.BaseURL)
	}

	if cfg.Download.Workers != 2 {
		t.Errorf("expected 2 workers by default, got %d", cfg.Download.Workers)
	}

	if cfg.Report.TopStrikes != 10 || cfg.Report.Levels != 3 {
		t.Errorf("unexpected report defaults: %+v", cfg.Report)
	}

	if !cfg.HasFormat(FormatXLSX) || cfg.HasFormat(FormatCSV) {
		t.Errorf("expected xlsx only, got %v", cfg.Report.Formats)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MONEYFLOW_DOWNLOAD_WORKERS", "5")
	t.Setenv("MONEYFLOW_OUTPUT_DIRECTORY", "/tmp/reports")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Download.Workers != 5 {
		t.Errorf("expected 5 workers from env, got %d", cfg.Download.Workers)
	}
	if cfg.Output.Directory != "/tmp/reports" {
		t.Errorf("expected output directory from env, got '%s'", cfg.Output.Directory)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
symbols: [nifty, reliance]
lot_sizes:
  RELIANCE: 250
  nifty: 25
report:
  weekly_expiry: wed
  partial_levels: true
  formats: [XLSX, csv]
`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Symbols) != 2 || cfg.Symbols[0] != "NIFTY" || cfg.Symbols[1] != "RELIANCE" {
		t.Errorf("expected upper-cased symbols, got %v", cfg.Symbols)
	}
	if cfg.LotSizes["RELIANCE"] != 250 || cfg.LotSizes["NIFTY"] != 25 {
		t.Errorf("expected upper-cased lot size keys, got %v", cfg.LotSizes)
	}
	if !cfg.HasFormat(FormatCSV) || !cfg.HasFormat(FormatXLSX) {
		t.Errorf("expected both formats, got %v", cfg.Report.Formats)
	}
	if got := cfg.OutputFormats(); len(got) != 2 || got[0] != "xlsx" || got[1] != "csv" {
		t.Errorf("expected [xlsx csv], got %v", got)
	}

	day := time.Date(2024, time.March, 27, 0, 0, 0, 0, time.UTC)

	params := cfg.Params("reliance", day, 250)
	if params.Instrument != moneyflow.StockOption {
		t.Errorf("expected stock option for RELIANCE, got %s", params.Instrument)
	}
	if params.WeeklyExpiry != time.Wednesday {
		t.Errorf("expected wednesday expiry, got %s", params.WeeklyExpiry)
	}
	if params.Policy != moneyflow.LabelPartial {
		t.Error("expected partial label policy")
	}
	if params.LotSize != 250 || params.Symbol != "RELIANCE" {
		t.Errorf("unexpected params: %+v", params)
	}

	if got := cfg.Params("NIFTY", day, 25).Instrument; got != moneyflow.IndexOption {
		t.Errorf("expected index option for NIFTY, got %s", got)
	}
}

func TestLoadInvalidWorkers(t *testing.T) {
	t.Setenv("MONEYFLOW_DOWNLOAD_WORKERS", "0")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error when workers is zero")
	}
}

func TestParseWeekday(t *testing.T) {
	tests := map[string]time.Weekday{
		"thursday": time.Thursday,
		"Thu":      time.Thursday,
		" TUESDAY": time.Tuesday,
		"mon":      time.Monday,
	}
	for in, want := range tests {
		got, err := ParseWeekday(in)
		if err != nil || got != want {
			t.Errorf("ParseWeekday(%q) = %s, %v; want %s", in, got, err, want)
		}
	}

	if _, err := ParseWeekday("t"); err == nil {
		t.Error("expected error for ambiguous weekday")
	}
}

package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/moneyflow/internal/download"
	"github.com/dgnsrekt/moneyflow/internal/market"
	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
	"github.com/dgnsrekt/moneyflow/internal/notify"
	"github.com/dgnsrekt/moneyflow/internal/nse"
	"github.com/dgnsrekt/moneyflow/internal/report"
)

func TestScheduler_IsDue(t *testing.T) {
	cal := market.NewCalendar()
	s := NewScheduler(18, 30, cal)

	at := func(hour, minute int) func() time.Time {
		return func() time.Time {
			return time.Date(2024, time.March, 27, hour, minute, 0, 0, cal.Location())
		}
	}

	tests := []struct {
		name string
		now  func() time.Time
		want bool
	}{
		{"before", at(18, 29), false},
		{"exact", at(18, 30), true},
		{"after", at(22, 0), true},
		{"morning", at(9, 15), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.now = tt.now
			if got := s.IsDue(); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}

	s.now = at(23, 59)
	if got := s.TodayDate(); got != "2024-03-27" {
		t.Errorf("expected exchange date 2024-03-27, got %s", got)
	}
}

func TestRunTracker(t *testing.T) {
	tracker := NewRunTracker(filepath.Join(t.TempDir(), "state", ".daemon-state"))

	if tracker.AlreadyRan("2024-03-27") {
		t.Error("fresh tracker should not report a run")
	}
	if err := tracker.SetLastRunDate("2024-03-27"); err != nil {
		t.Fatal(err)
	}
	if !tracker.AlreadyRan("2024-03-27") {
		t.Error("expected run to be recorded")
	}
	if tracker.AlreadyRan("2024-03-28") {
		t.Error("different date should not match")
	}
}

type stubFetcher struct {
	result *download.BatchResult
	err    error
}

func (s *stubFetcher) Fetch(context.Context, []time.Time) (*download.BatchResult, error) {
	return s.result, s.err
}

type stubLoader struct {
	records []moneyflow.ContractRecord
}

func (s *stubLoader) Records(context.Context, time.Time) ([]moneyflow.ContractRecord, error) {
	return s.records, nil
}

func (s *stubLoader) Dates() ([]time.Time, error) { return nil, nil }

type recordingNotifier struct {
	successes int
	failures  []error
}

func (n *recordingNotifier) SendSuccess(context.Context, *notify.Run) error {
	n.successes++
	return nil
}

func (n *recordingNotifier) SendFailure(_ context.Context, _ *notify.Run, err error) error {
	n.failures = append(n.failures, err)
	return nil
}

var runDate = time.Date(2024, time.March, 27, 0, 0, 0, 0, time.UTC)

func chain() []moneyflow.ContractRecord {
	expiry := runDate.AddDate(0, 0, 1)
	var recs []moneyflow.ContractRecord
	for i, strike := range []float64{22500, 22600, 22700} {
		for _, typ := range []moneyflow.OptionType{moneyflow.Call, moneyflow.Put} {
			recs = append(recs, moneyflow.ContractRecord{
				Instrument: moneyflow.IndexOption,
				Symbol:     "NIFTY",
				Expiry:     expiry,
				Strike:     strike,
				OptionType: typ,
				Contracts:  10,
				Turnover:   strike*10*25/100000 + float64(10*(i+1)),
			})
		}
	}
	return recs
}

type stubLots struct{}

func (stubLots) FetchMarketLots(context.Context) ([]byte, error) {
	return []byte("UNDERLYING,SYMBOL,MAR-24\nNIFTY 50,NIFTY,25\n"), nil
}

func newTestRunner(f fetcher, symbols []string, n notify.Notifier) (*Runner, *[]string) {
	logger := zap.NewNop()
	lots := report.NewLotSizes(nil, stubLots{}, logger)
	params := func(symbol string, date time.Time, lotSize int) moneyflow.Params {
		return moneyflow.NewParams(symbol, date, moneyflow.IndexOption, float64(lotSize))
	}
	generator := report.NewGenerator(&stubLoader{records: chain()}, lots, params, logger)

	var written []string
	sink := func(res *moneyflow.Result) ([]string, error) {
		written = append(written, res.Symbol)
		return nil, nil
	}
	return NewRunner(f, generator, sink, symbols, n, logger), &written
}

func TestRunner_Success(t *testing.T) {
	n := &recordingNotifier{}
	f := &stubFetcher{result: &download.BatchResult{Total: 1, Success: 1, Available: []string{"2024-03-27"}}}
	runner, written := newTestRunner(f, []string{"NIFTY"}, n)

	if err := runner.Execute(context.Background(), runDate); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.successes != 1 || len(n.failures) != 0 {
		t.Errorf("expected one success notification, got %d successes %d failures", n.successes, len(n.failures))
	}
	if len(*written) != 1 {
		t.Errorf("expected one report written, got %v", *written)
	}
}

func TestRunner_PriceListMissing(t *testing.T) {
	n := &recordingNotifier{}
	f := &stubFetcher{result: &download.BatchResult{Total: 1, NotFound: 1, Missing: []string{"2024-03-27"}}}
	runner, written := newTestRunner(f, []string{"NIFTY"}, n)

	err := runner.Execute(context.Background(), runDate)
	if !errors.Is(err, nse.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(n.failures) != 1 {
		t.Errorf("expected one failure notification, got %d", len(n.failures))
	}
	if len(*written) != 0 {
		t.Error("no reports should be generated without a price list")
	}
}

func TestRunner_ReportFailureIsFinal(t *testing.T) {
	n := &recordingNotifier{}
	f := &stubFetcher{result: &download.BatchResult{Total: 1, Skipped: 1, Available: []string{"2024-03-27"}}}
	runner, written := newTestRunner(f, []string{"NIFTY", "UNKNOWN"}, n)

	if err := runner.Execute(context.Background(), runDate); err != nil {
		t.Fatalf("report failures should not be retried, got %v", err)
	}
	if len(n.failures) != 1 || n.successes != 0 {
		t.Errorf("expected one failure notification, got %d successes %d failures", n.successes, len(n.failures))
	}
	if len(*written) != 1 {
		t.Errorf("expected NIFTY written, got %v", *written)
	}
}

func TestRunner_FetchError(t *testing.T) {
	n := &recordingNotifier{}
	f := &stubFetcher{result: &download.BatchResult{}, err: context.Canceled}
	runner, _ := newTestRunner(f, []string{"NIFTY"}, n)

	if err := runner.Execute(context.Background(), runDate); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

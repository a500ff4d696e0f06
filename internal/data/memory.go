package data

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
	"github.com/dgnsrekt/moneyflow/internal/nse"
)

var dateDirPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ArchivePath returns where the price list for date is stored under dir.
// Format: {dir}/{YYYY-MM-DD}/fo{DDMMMYYYY}bhav.csv.zip
func ArchivePath(dir string, date time.Time) string {
	return filepath.Join(dir, date.Format(DateLayout), nse.PriceListFileName(date))
}

// MemoryLoader reads price lists from the archive directory and keeps every
// decoded day in memory.
type MemoryLoader struct {
	dir    string
	mu     sync.RWMutex
	days   map[string][]moneyflow.ContractRecord // key: YYYY-MM-DD
	logger *zap.Logger
}

func NewMemoryLoader(dir string, logger *zap.Logger) *MemoryLoader {
	return &MemoryLoader{
		dir:    dir,
		days:   make(map[string][]moneyflow.ContractRecord),
		logger: logger,
	}
}

func (m *MemoryLoader) Records(ctx context.Context, date time.Time) ([]moneyflow.ContractRecord, error) {
	key := date.Format(DateLayout)

	m.mu.RLock()
	recs, ok := m.days[key]
	m.mu.RUnlock()
	if ok {
		return recs, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := ArchivePath(m.dir, date)
	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	recs, err = DecodePriceListZip(body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	m.mu.Lock()
	m.days[key] = recs
	m.mu.Unlock()

	m.logger.Info("loaded price list",
		zap.String("date", key),
		zap.Int("count", len(recs)),
	)
	return recs, nil
}

// Dates scans the archive directory for date folders holding a price list.
func (m *MemoryLoader) Dates() ([]time.Time, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("reading archive directory: %w", err)
	}

	var dates []time.Time
	for _, entry := range entries {
		if !entry.IsDir() || !dateDirPattern.MatchString(entry.Name()) {
			continue
		}
		date, err := time.Parse(DateLayout, entry.Name())
		if err != nil {
			continue
		}
		if _, err := os.Stat(ArchivePath(m.dir, date)); err == nil {
			dates = append(dates, date)
		}
	}

	// Newest first
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates, nil
}

// LatestDate returns the most recent archived day.
func LatestDate(l Loader) (time.Time, error) {
	dates, err := l.Dates()
	if err != nil {
		return time.Time{}, err
	}
	if len(dates) == 0 {
		return time.Time{}, ErrNotFound
	}
	return dates[0], nil
}

// Compile-time interface verification
var _ Loader = (*MemoryLoader)(nil)

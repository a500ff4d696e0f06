package report

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dgnsrekt/moneyflow/internal/data"
)

// LotFetcher downloads the market-lot file.
type LotFetcher interface {
	FetchMarketLots(ctx context.Context) ([]byte, error)
}

// LotSizes resolves a symbol's lot size. Configured overrides win; the
// market-lot file is fetched at most once, on the first miss.
type LotSizes struct {
	overrides map[string]int
	fetcher   LotFetcher
	logger    *zap.Logger

	mu      sync.Mutex
	fetched map[string]int
}

func NewLotSizes(overrides map[string]int, fetcher LotFetcher, logger *zap.Logger) *LotSizes {
	o := make(map[string]int, len(overrides))
	for symbol, size := range overrides {
		o[strings.ToUpper(symbol)] = size
	}
	return &LotSizes{
		overrides: o,
		fetcher:   fetcher,
		logger:    logger,
	}
}

// Lookup returns the lot size of symbol, or ErrUnknownSymbol.
func (l *LotSizes) Lookup(ctx context.Context, symbol string) (int, error) {
	symbol = strings.ToUpper(symbol)
	if size, ok := l.overrides[symbol]; ok {
		return size, nil
	}

	lots, err := l.load(ctx)
	if err != nil {
		return 0, err
	}
	size, ok := lots[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return size, nil
}

// All returns the fetched lot sizes with overrides applied.
func (l *LotSizes) All(ctx context.Context) (map[string]int, error) {
	lots, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(lots)+len(l.overrides))
	for symbol, size := range lots {
		out[symbol] = size
	}
	for symbol, size := range l.overrides {
		out[symbol] = size
	}
	return out, nil
}

func (l *LotSizes) load(ctx context.Context) (map[string]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fetched != nil {
		return l.fetched, nil
	}
	if l.fetcher == nil {
		return map[string]int{}, nil
	}

	body, err := l.fetcher.FetchMarketLots(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching market lots: %w", err)
	}
	lots, err := data.ParseMarketLots(body)
	if err != nil {
		return nil, fmt.Errorf("parsing market lots: %w", err)
	}

	l.logger.Info("loaded market lots", zap.Int("symbols", len(lots)))
	l.fetched = lots
	return lots, nil
}

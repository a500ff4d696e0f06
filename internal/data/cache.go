package data

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
)

// ReportCache keeps computed pipeline results keyed by symbol and day
type ReportCache struct {
	cache *cache.Cache
}

func NewReportCache(ttl time.Duration) *ReportCache {
	return &ReportCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

// CacheKey creates the composite key for a symbol/day
func CacheKey(symbol string, date time.Time) string {
	return strings.ToUpper(symbol) + "/" + date.Format(DateLayout)
}

func (c *ReportCache) Get(symbol string, date time.Time) (*moneyflow.Result, bool) {
	v, found := c.cache.Get(CacheKey(symbol, date))
	if !found {
		return nil, false
	}
	res, ok := v.(*moneyflow.Result)
	return res, ok
}

func (c *ReportCache) Set(symbol string, date time.Time, res *moneyflow.Result) {
	c.cache.Set(CacheKey(symbol, date), res, cache.DefaultExpiration)
}

// Flush drops every cached result and returns how many there were
func (c *ReportCache) Flush() int {
	n := c.cache.ItemCount()
	c.cache.Flush()
	return n
}

package data

import (
	"context"
	"errors"
	"time"

	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
)

var (
	ErrNotFound = errors.New("price list not archived for this date")
)

// DateLayout is the layout of archive directory names and CLI dates.
const DateLayout = "2006-01-02"

// Loader provides decoded price lists by trading day
type Loader interface {
	// Records returns every contract of the day's price list
	Records(ctx context.Context, date time.Time) ([]moneyflow.ContractRecord, error)

	// Dates returns the archived trading days, newest first
	Dates() ([]time.Time, error)
}

package report

import "errors"

var (
	// ErrUnknownSymbol means the symbol has no lot size, i.e. it is not a
	// F&O index or stock.
	ErrUnknownSymbol = errors.New("not a F&O index/stock")
)

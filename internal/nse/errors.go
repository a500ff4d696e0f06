package nse

import "errors"

var (
	ErrNotFound    = errors.New("price list not found for this date")
	ErrRateLimited = errors.New("rate limited by archive")
	ErrForbidden   = errors.New("archive refused the request")
)

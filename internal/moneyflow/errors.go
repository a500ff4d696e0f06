package moneyflow

import "errors"

var (
	ErrEmptyResult      = errors.New("no contracts match the requested instrument and symbol")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInsufficientData = errors.New("not enough calls or puts to label levels")
)

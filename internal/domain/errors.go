package domain

import "errors"

var (
	// ErrNotFound is returned by stores and lookups when the requested entity
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoData is returned when an operation has nothing to work with, e.g. a
	// backtest over an empty signal history.
	ErrNoData = errors.New("no data for window")
)

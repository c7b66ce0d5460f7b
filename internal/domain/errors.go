package domain

import "errors"

var (
	ErrInvalidSymbol   = errors.New("invalid instrument symbol")
	ErrSchedulerClosed = errors.New("scheduler closed")
)

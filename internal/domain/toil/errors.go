package toil

import "errors"

var (
	ErrInvalidHours = errors.New("toil hours must be positive")
	ErrInvalidWeek  = errors.New("week ending must not precede week start")
)

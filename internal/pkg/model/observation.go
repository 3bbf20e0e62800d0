package model

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

const (
	PeriodRaw   Period = "raw"
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"

	ReducerLast Reducer = "last"
	ReducerMean Reducer = "mean"
)

var (
	// ErrSourceUnavailable means the store or feed could not be read at all.
	// Callers render an empty state; they never crash on it.
	ErrSourceUnavailable = errors.New("rate source unavailable")

	// ErrEmptyResult means the load succeeded but no observations matched.
	ErrEmptyResult = errors.New("no observations in range")

	// ErrInvalidConfig means a user-supplied parameter is out of bounds.
	ErrInvalidConfig = errors.New("invalid configuration")
)

type Period string
type Reducer string
type Entity string

// ParsePeriod maps a query-string value to a Period.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case PeriodRaw, "":
		return PeriodRaw, nil
	case PeriodDay:
		return PeriodDay, nil
	case PeriodWeek:
		return PeriodWeek, nil
	case PeriodMonth:
		return PeriodMonth, nil
	case PeriodYear:
		return PeriodYear, nil
	default:
		return "", fmt.Errorf("%w: unknown period '%s'", ErrInvalidConfig, s)
	}
}

// ParseReducer maps a config value to a Reducer.
func ParseReducer(s string) (Reducer, error) {
	switch Reducer(strings.ToLower(strings.TrimSpace(s))) {
	case ReducerLast, "":
		return ReducerLast, nil
	case ReducerMean:
		return ReducerMean, nil
	default:
		return "", fmt.Errorf("%w: unknown reducer '%s'", ErrInvalidConfig, s)
	}
}

// Observation is one published rate for one entity on one calendar date.
// At most one Observation exists per (Date, Entity); the store enforces this.
type Observation struct {
	Date   civil.Date
	Entity Entity
	Rate   decimal.Decimal
}

// DiscountConfig is the user's contract: the bank they borrow from and the
// negotiated discount off the published rate. Never persisted.
type DiscountConfig struct {
	BaseEntity Entity
	Discount   decimal.Decimal
}

// Validate checks the discount against the allowed range [0, max].
func (c DiscountConfig) Validate(max decimal.Decimal) error {
	if c.BaseEntity == "" {
		return fmt.Errorf("%w: base entity is required", ErrInvalidConfig)
	}
	if c.Discount.IsNegative() {
		return fmt.Errorf("%w: discount must not be negative", ErrInvalidConfig)
	}
	if c.Discount.GreaterThan(max) {
		return fmt.Errorf("%w: discount %s exceeds maximum %s", ErrInvalidConfig, c.Discount, max)
	}
	return nil
}

package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownIndicator: the requested indicator is not registered
	ErrUnknownIndicator = errors.New("unknown indicator")

	// ErrMalformedThresholdTable: tiers leave gaps, overlap or are otherwise invalid
	ErrMalformedThresholdTable = errors.New("malformed threshold table")

	// ErrDegenerateRange: optimal and poor normalization bounds coincide
	ErrDegenerateRange = errors.New("degenerate normalization range")

	// ErrDivisionByZero: a formula's divisor is zero
	ErrDivisionByZero = errors.New("division by zero")

	// ErrUndefinedValue: the indicator has no numeric value to work with
	ErrUndefinedValue = errors.New("undefined indicator value")

	// ErrInvalidSnapshot: snapshot figures violate their invariants
	ErrInvalidSnapshot = errors.New("invalid financial snapshot")
)

// IndicatorError attaches an indicator name to a per-indicator failure
type IndicatorError struct {
	Indicator string
	Err       error
}

func (e *IndicatorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Indicator, e.Err)
}

func (e *IndicatorError) Unwrap() error {
	return e.Err
}

// NewIndicatorError wraps err for the given indicator
func NewIndicatorError(indicator string, err error) error {
	return &IndicatorError{Indicator: indicator, Err: err}
}

package correlation

import (
	"errors"
	"fmt"
)

// Kind classifies correlation failures. The same strings tag undefined matrix
// cells, so reports and logs speak one vocabulary.
type Kind string

const (
	// KindInsufficientOverlap: a pair shares fewer trade dates than the
	// policy minimum
	KindInsufficientOverlap Kind = "insufficient_overlap"
	// KindDegenerateSeries: a series is constant over the aligned window,
	// so the coefficient is undefined
	KindDegenerateSeries Kind = "degenerate_series"
	// KindInsufficientTickers: fewer than two usable series reached the
	// matrix builder
	KindInsufficientTickers Kind = "insufficient_tickers"
	// KindMatrixShapeMismatch: two matrices cover different ticker sets
	KindMatrixShapeMismatch Kind = "matrix_shape_mismatch"
	// KindInvalidMethod: an unknown or unsupported correlation method
	KindInvalidMethod Kind = "invalid_method"
	// KindMissingComponent: a combined cell lost one of its inputs to an
	// upstream failure
	KindMissingComponent Kind = "missing_component"
)

// Error is a correlation-specific error carrying the failure kind and the
// tickers involved
type Error struct {
	Kind    Kind   `json:"kind"`
	TickerA string `json:"ticker_a,omitempty"`
	TickerB string `json:"ticker_b,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "unknown correlation error"
	}
	switch {
	case e.TickerA != "" && e.TickerB != "":
		return fmt.Sprintf("[%s] %s/%s: %s", e.Kind, e.TickerA, e.TickerB, e.Message)
	case e.TickerA != "":
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.TickerA, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	}
}

// Is matches any *Error of the same kind, so callers can test against the
// package sentinels with errors.Is regardless of which pair failed.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors for errors.Is checks
var (
	ErrInsufficientOverlap = &Error{Kind: KindInsufficientOverlap, Message: "insufficient overlapping trade dates"}
	ErrDegenerateSeries    = &Error{Kind: KindDegenerateSeries, Message: "series has zero variance over the aligned window"}
	ErrInsufficientTickers = &Error{Kind: KindInsufficientTickers, Message: "fewer than two usable series"}
	ErrMatrixShapeMismatch = &Error{Kind: KindMatrixShapeMismatch, Message: "matrices cover different ticker sets"}
	ErrInvalidMethod       = &Error{Kind: KindInvalidMethod, Message: "invalid correlation method"}
)

// newError builds an Error for a ticker pair; either ticker may be empty
func newError(kind Kind, tickerA, tickerB, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		TickerA: tickerA,
		TickerB: tickerB,
		Message: fmt.Sprintf(format, args...),
	}
}

// reasonFor maps an error to the cell-reason string recorded on undefined
// matrix cells. Unrecognized errors keep their message.
func reasonFor(err error) string {
	var cerr *Error
	if errors.As(err, &cerr) {
		return string(cerr.Kind)
	}
	return err.Error()
}

// internal/engine/errors.go
package engine

import (
	"context"
	"errors"
	"fmt"
)

// Common engine errors
var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrUnsupported     = errors.New("operation not supported by fetcher")
	ErrInvalidURL      = errors.New("invalid URL")
)

// FaultKind classifies what went wrong with a row
type FaultKind string

const (
	// FaultLayout: an expected element is missing in an unexpected way
	FaultLayout FaultKind = "LAYOUT_FAULT"
	// FaultNotFound: the site answered with its not-found page
	FaultNotFound FaultKind = "NOT_FOUND"
	// FaultEmpty: a section is present but blank
	FaultEmpty FaultKind = "EMPTY_CONTENT"
	// FaultTransient: network or driver failure, the row may be retried
	FaultTransient FaultKind = "TRANSIENT_FETCH"
	// FaultMalformed: a measurement is neither a number nor ND
	FaultMalformed FaultKind = "MALFORMED_VALUE"
)

// Targets for errors.Is
var (
	ErrLayout    = &Fault{Kind: FaultLayout}
	ErrNotFound  = &Fault{Kind: FaultNotFound}
	ErrEmpty     = &Fault{Kind: FaultEmpty}
	ErrTransient = &Fault{Kind: FaultTransient}
	ErrMalformed = &Fault{Kind: FaultMalformed}
)

// Fault wraps errors with a kind and additional context
type Fault struct {
	Kind       FaultKind
	Message    string
	Underlying error
	Retry      bool
	Details    map[string]interface{}
}

// Error implements the error interface
func (f *Fault) Error() string {
	if f.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Underlying)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap returns the underlying error
func (f *Fault) Unwrap() error {
	return f.Underlying
}

// Is matches any *Fault of the same kind
func (f *Fault) Is(target error) bool {
	if t, ok := target.(*Fault); ok {
		return f.Kind == t.Kind
	}
	return false
}

// Retryable reports whether the operation may succeed if repeated
func (f *Fault) Retryable() bool {
	return f.Retry
}

// NewFault creates a new Fault
func NewFault(kind FaultKind, message string, err error) *Fault {
	return &Fault{
		Kind:       kind,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithRetry marks the fault as retryable
func (f *Fault) WithRetry() *Fault {
	f.Retry = true
	return f
}

// WithDetail adds a detail to the fault
func (f *Fault) WithDetail(key string, value interface{}) *Fault {
	if f.Details == nil {
		f.Details = make(map[string]interface{})
	}
	f.Details[key] = value
	return f
}

// Transient wraps a fetch failure. Cancellation of the caller's context is
// not retryable.
func Transient(message string, err error) *Fault {
	f := NewFault(FaultTransient, message, err)
	if errors.Is(err, context.Canceled) {
		return f
	}
	return f.WithRetry()
}

// KindOf returns the kind of the first Fault in err's chain
func KindOf(err error) (FaultKind, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}

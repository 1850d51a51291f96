package taxreturn

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation indicates a field value was rejected before mutation.
	ErrValidation = errors.New("validation failed")
	// ErrUnknownPath indicates a path does not address a field in the model.
	ErrUnknownPath = errors.New("unknown field path")
)

// Reason classifies why a field value was rejected.
type Reason string

const (
	ReasonInvalidFormat Reason = "invalid_format"
	ReasonOutOfRange    Reason = "out_of_range"
	ReasonTooLong       Reason = "too_long"
	ReasonReadOnly      Reason = "read_only"
)

// FieldError reports a rejected field value with the offending path and a
// classification usable for inline UI messages.
type FieldError struct {
	Path    string
	Reason  Reason
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

func fieldErrorf(path string, reason Reason, format string, args ...any) *FieldError {
	return &FieldError{
		Path:    path,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// FormatAttempt records one format strategy's failure during a load.
type FormatAttempt struct {
	Format string
	Err    error
}

// LoadError aggregates every attempted format's failure when no strategy
// could load a file.
type LoadError struct {
	Attempts []FormatAttempt
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("no format could load the file")
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "; %s: %v", a.Format, a.Err)
	}
	return b.String()
}

// Unwrap exposes each attempt's error so errors.Is can match the underlying
// cause (for example crypto.ErrDecryptionFailed) through the aggregate.
func (e *LoadError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}

package greeting

import (
	"errors"
	"fmt"
	"strings"

	apperrors "greeter/pkg/errors"
)

// FieldError names one rejected request field by its JSON name.
type FieldError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Param      string `json:"param,omitempty"`
}

func (f FieldError) String() string {
	if f.Param != "" {
		return fmt.Sprintf("%s: %s=%s", f.Field, f.Constraint, f.Param)
	}
	return fmt.Sprintf("%s: %s", f.Field, f.Constraint)
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return "invalid greeting: " + strings.Join(parts, "; ")
}

// HasField reports whether name is among the rejected fields.
func (e *ValidationError) HasField(name string) bool {
	for _, f := range e.Fields {
		if f.Field == name {
			return true
		}
	}
	return false
}

// Kind classifies a backend failure.
type Kind int

const (
	KindPersistence Kind = iota + 1
	KindTransport
	KindTimeout
	KindUnavailable
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindPersistence:
		return "persistence"
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindUnavailable:
		return "unavailable"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// SinkError is returned by every Sink implementation.
type SinkError struct {
	Sink string
	Op   string
	Kind Kind
	Err  error
}

func NewSinkError(sink, op string, kind Kind, err error) *SinkError {
	return &SinkError{Sink: sink, Op: op, Kind: kind, Err: err}
}

func (e *SinkError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s sink %s: %s failure", e.Sink, e.Op, e.Kind)
	}
	return fmt.Sprintf("%s sink %s: %s failure: %v", e.Sink, e.Op, e.Kind, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err carries a *SinkError of the given kind.
func IsKind(err error, kind Kind) bool {
	var sinkErr *SinkError
	if errors.As(err, &sinkErr) {
		return sinkErr.Kind == kind
	}
	return false
}

// ServiceError wraps a sink failure on its way to the HTTP layer.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("greeting service %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// toAppError maps domain failures onto the public error codes. Sink causes
// are attached but never rendered to clients.
func toAppError(err error) *apperrors.Error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return apperrors.ErrValidation.
			WithDetail("fields", validationErr.Fields).
			WithCause(err)
	}

	var sinkErr *SinkError
	if errors.As(err, &sinkErr) {
		switch sinkErr.Kind {
		case KindPersistence:
			return apperrors.ErrPersistence.WithCause(err)
		case KindTransport:
			return apperrors.ErrTransport.WithCause(err)
		case KindTimeout:
			return apperrors.ErrTimeout.WithCause(err)
		case KindUnavailable:
			return apperrors.ErrServiceUnavailable.WithCause(err)
		case KindUnsupported:
			return apperrors.ErrNotImplemented.WithCause(err)
		}
	}

	return apperrors.ErrInternal.WithCause(err)
}

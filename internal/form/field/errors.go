package field

import (
	"NYCU-SDC/form-collector-backend/internal"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrUnknownKind = errors.New("unknown field kind")

type Reason string

const (
	ReasonMissingRequired Reason = "MISSING_REQUIRED"
	ReasonNotNumeric      Reason = "NOT_NUMERIC"
	ReasonUnknownField    Reason = "UNKNOWN_FIELD"
)

// Violation is returned by Validate when a value does not satisfy its kind.
type Violation struct {
	Reason Reason
}

func (v Violation) Error() string {
	return string(v.Reason)
}

func (v Violation) Unwrap() error {
	return internal.ErrValidationFailed
}

type FieldError struct {
	FieldID uuid.UUID
	Label   string
	Reason  Reason
}

func (e FieldError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("field %s: %s", e.FieldID, e.Reason)
	}
	return fmt.Sprintf("field %s (%s): %s", e.FieldID, e.Label, e.Reason)
}

// ValidationError collects every failing field of one submission or edit.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Add(id uuid.UUID, label string, err error) {
	var violation Violation
	reason := ReasonUnknownField
	if errors.As(err, &violation) {
		reason = violation.Reason
	}
	e.Fields = append(e.Fields, FieldError{FieldID: id, Label: label, Reason: reason})
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Messages returns one line per failing field.
func (e *ValidationError) Messages() []string {
	messages := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		messages = append(messages, f.Error())
	}
	return messages
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

func (e *ValidationError) Unwrap() error {
	return internal.ErrValidationFailed
}

package common

import (
	"fmt"
	"strings"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ValidationError aggregates field-level problems found while validating
// caller input. It never indicates a partially persisted record: validation
// runs before any write.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.String())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any field failed validation.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

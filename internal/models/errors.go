package models

import "strings"

// ValidationError reports missing or malformed request fields.
type ValidationError struct {
	Fields []string
	Reason string
}

// MissingFields builds the error returned when required fields are absent.
func MissingFields(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Reason: "Missing required fields"}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	return e.Reason + ": " + strings.Join(e.Fields, ", ")
}

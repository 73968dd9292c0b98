// Package validator collects field-level request errors. HTTP handlers turn
// ValidationErrors into a 422 with one message per field.
package validator

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, err := range v {
		msgs[i] = err.Field + ": " + err.Message
	}
	return strings.Join(msgs, "; ")
}

// ToMap keys messages by field. The first message for a field wins.
func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string, len(v))
	for _, err := range v {
		if _, seen := result[err.Field]; !seen {
			result[err.Field] = err.Message
		}
	}
	return result
}

// Add records a failed field.
func (v *ValidationErrors) Add(field, format string, args ...any) {
	*v = append(*v, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Check records message against field when ok is false.
func (v *ValidationErrors) Check(ok bool, field, message string) {
	if !ok {
		*v = append(*v, ValidationError{Field: field, Message: message})
	}
}

// Err returns v as an error, or nil when nothing failed.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsValidDate parses a YYYY-MM-DD calendar date.
func IsValidDate(s string) (time.Time, bool) {
	date, err := time.Parse(time.DateOnly, s)
	return date, err == nil
}

func IsInSlice(value string, slice []string) bool {
	return slices.Contains(slice, value)
}

func IsValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func IsValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

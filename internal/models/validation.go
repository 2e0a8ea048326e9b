package models

import (
	"fmt"
	"strings"
)

// Validation error codes. Kept stable: they are part of the API response.
const (
	CodeMissingField      = "missing_field"
	CodeMissingDate       = "missing_date"
	CodeInvalidRange      = "invalid_range"
	CodePastDate          = "past_date"
	CodeInvalidTimeWindow = "invalid_time_window"
	CodeTimeConflict      = "time_conflict"
)

// ValidationError is one structured failure of a reservation request.
// Field is set for missing_field, Date for per-day failures.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Date    string `json:"date,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationErrors collects every applicable failure so the caller can show
// them all at once, not just the first.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e))
	for _, ve := range e {
		msgs = append(msgs, ve.Message)
	}
	return strings.Join(msgs, "; ")
}

// HasCode reports whether any collected error carries the given code.
func (e ValidationErrors) HasCode(code string) bool {
	for _, ve := range e {
		if ve.Code == code {
			return true
		}
	}
	return false
}

func MissingFieldError(field string) ValidationError {
	return ValidationError{
		Code:    CodeMissingField,
		Field:   field,
		Message: fmt.Sprintf("Field %q is required.", field),
	}
}

func MissingDateError() ValidationError {
	return ValidationError{
		Code:    CodeMissingDate,
		Message: "Please select a date or date range.",
	}
}

func InvalidRangeError() ValidationError {
	return ValidationError{
		Code:    CodeInvalidRange,
		Message: "End date must be later than start date.",
	}
}

func PastDateError(date string) ValidationError {
	return ValidationError{
		Code:    CodePastDate,
		Date:    date,
		Message: "Cannot make reservations for past dates.",
	}
}

func InvalidTimeWindowError() ValidationError {
	return ValidationError{
		Code:    CodeInvalidTimeWindow,
		Message: "End time must be later than start time.",
	}
}

func TimeConflictError(date string) ValidationError {
	msg := "Time conflict detected. Please choose a different time."
	if date != "" {
		msg = fmt.Sprintf("Time conflict detected for %s. Please choose a different time.", date)
	}
	return ValidationError{
		Code:    CodeTimeConflict,
		Date:    date,
		Message: msg,
	}
}

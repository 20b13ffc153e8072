package models

import (
	"fmt"
	"sort"
	"strings"
)

const (
	MsgRequired = "This field is required."
	MsgBlank    = "This field may not be blank."
)

func MaxLengthMessage(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

func MinValueMessage(n int) string {
	return fmt.Sprintf("Ensure this value is greater than or equal to %d.", n)
}

func MaxValueMessage(n int) string {
	return fmt.Sprintf("Ensure this value is less than or equal to %d.", n)
}

// FieldErrors maps a JSON field name to its validation messages.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// OrNil returns nil when no field failed, so callers can return it as error.
func (e FieldErrors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e[f], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

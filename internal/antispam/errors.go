package antispam

import (
	"errors"
	"fmt"
)

// ErrNoRecord is returned when a clear targets a user with no active record.
var ErrNoRecord = errors.New("no active record")

// ValidationError rejects a configuration value outside its documented
// domain. The whole configuration change is discarded when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for %q: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

package document

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrNotPersisted is returned when an operator is tracked for a document without a stored identity.
	ErrNotPersisted = errors.New("document must be saved")
	// ErrNotNumeric is returned when incrementing a value that is not a number.
	ErrNotNumeric = errors.New("value is not numeric")
	// ErrNoSuchMethod is returned when no attached behavior provides a method.
	ErrNoSuchMethod = errors.New("no such method")
	// ErrNotFound is returned by gateways when a document does not exist.
	ErrNotFound = errors.New("document not found")
)

// ValidationError is returned when a document fails validation.
type ValidationError struct {
	// Errors maps field paths to rule names to messages.
	Errors map[string]map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	var msgs []string
	for _, f := range fields {
		rules := make([]string, 0, len(e.Errors[f]))
		for r := range e.Errors[f] {
			rules = append(rules, r)
		}
		slices.Sort(rules)
		for _, r := range rules {
			msgs = append(msgs, e.Errors[f][r])
		}
	}
	return fmt.Sprintf("document invalid: %s", strings.Join(msgs, "; "))
}

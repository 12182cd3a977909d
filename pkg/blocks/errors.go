package blocks

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports one or more user-facing validation messages for a
// single field.
type ValidationError struct {
	Messages []string
}

// NewValidationError builds a ValidationError from one or more messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// StructBlockError aggregates per-child validation failures keyed by child
// name. Children that validated cleanly do not appear.
type StructBlockError struct {
	BlockErrors map[string]error
}

func (e *StructBlockError) Error() string {
	names := make([]string, 0, len(e.BlockErrors))
	for name := range e.BlockErrors {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation error in struct block: %s", strings.Join(names, ", "))
}

// ErrorMessages flattens an error into user-facing message strings. Aggregated
// struct block failures expand to one "name: message" line per child, sorted
// by name.
func ErrorMessages(err error) []string {
	switch e := err.(type) {
	case nil:
		return nil
	case *ValidationError:
		return e.Messages
	case *StructBlockError:
		names := make([]string, 0, len(e.BlockErrors))
		for name := range e.BlockErrors {
			names = append(names, name)
		}
		sort.Strings(names)
		var out []string
		for _, name := range names {
			for _, msg := range ErrorMessages(e.BlockErrors[name]) {
				out = append(out, fmt.Sprintf("%s: %s", name, msg))
			}
		}
		return out
	default:
		return []string{err.Error()}
	}
}

package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName marks a candidate whose name was already registered.
	ErrDuplicateName = errors.New("duplicate command name")
	// ErrMissingField marks a candidate without a name or description.
	ErrMissingField = errors.New("command must have a name and description")
	// ErrBrokenCandidate marks a candidate that panicked while being read.
	ErrBrokenCandidate = errors.New("command candidate is unusable")
)

// LoadError reports a candidate or namespace that could not be loaded.
// Load errors are logged and skipped; they never abort discovery.
type LoadError struct {
	Namespace string
	Category  string
	Source    string
	Name      string
	Err       error
}

func (e *LoadError) Error() string {
	where := e.Source
	if where == "" {
		where = e.Namespace
	}
	if e.Name != "" {
		return fmt.Sprintf("load %s (%s): %v", where, e.Name, e.Err)
	}
	return fmt.Sprintf("load %s: %v", where, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

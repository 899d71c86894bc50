// Package catalog discovers command definitions and assembles the
// desired-state set.
//
// Sources are Namespaces: Go-registered definitions (Static) and manifest
// directories laid out as <root>/<category>/<file> (Dir). Discovery only
// requires candidates to satisfy command.Describable; the file layout is a
// property of the Dir namespace, not of discovery.
package catalog

import (
	"context"

	"github.com/cristianoliveira/cmdsync/internal/command"
)

// Candidate is one discovered command-shaped value. Err is set instead of
// Value when the source could not be decoded.
type Candidate struct {
	Category string
	Source   string
	Value    command.Describable
	Err      error
}

// Namespace enumerates command candidates.
type Namespace interface {
	Name() string
	Candidates(ctx context.Context) ([]Candidate, error)
}

type staticNamespace struct {
	category string
	values   []command.Describable
}

// Static returns a namespace over values declared in Go code.
func Static(category string, values ...command.Describable) Namespace {
	return &staticNamespace{category: category, values: values}
}

func (s *staticNamespace) Name() string { return "static:" + s.category }

func (s *staticNamespace) Candidates(ctx context.Context) ([]Candidate, error) {
	out := make([]Candidate, 0, len(s.values))
	for _, v := range s.values {
		out = append(out, Candidate{Category: s.category, Source: s.Name(), Value: v})
	}
	return out, nil
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/cristianoliveira/cmdsync/internal/logging"
)

// Discover builds the desired-state set from namespaces, in order.
//
// Each rejected candidate becomes a LoadError and is logged; siblings are
// unaffected. A namespace that fails to enumerate is one LoadError. Names
// are unique: the first registered definition wins and later ones are
// rejected with ErrDuplicateName.
func Discover(ctx context.Context, logger logging.Logger, namespaces ...Namespace) (*Set, []*LoadError) {
	if logger == nil {
		logger = logging.Discard()
	}

	var (
		defs    []*command.Definition
		errs    []*LoadError
		sources = make(map[string]string)
	)
	reject := func(le *LoadError) {
		logger.Warn("command rejected",
			"namespace", le.Namespace,
			"source", le.Source,
			"command", le.Name,
			"error", le.Err.Error())
		errs = append(errs, le)
	}

	for _, ns := range namespaces {
		candidates, err := ns.Candidates(ctx)
		if err != nil {
			reject(&LoadError{Namespace: ns.Name(), Err: err})
			if ctx.Err() != nil {
				break
			}
		}
		for _, c := range candidates {
			def, err := accept(c)
			if err != nil {
				le := &LoadError{Namespace: ns.Name(), Category: c.Category, Source: c.Source, Err: err}
				if c.Value != nil {
					le.Name = candidateName(c.Value)
				}
				reject(le)
				continue
			}
			key := strings.ToLower(def.Name())
			if first, dup := sources[key]; dup {
				reject(&LoadError{
					Namespace: ns.Name(),
					Category:  c.Category,
					Source:    c.Source,
					Name:      def.Name(),
					Err:       fmt.Errorf("%w: already registered by %s", ErrDuplicateName, first),
				})
				continue
			}
			sources[key] = c.Source
			defs = append(defs, def)
			logger.Debug("command loaded", "command", def.Name(), "source", c.Source, "category", c.Category)
		}
	}

	set := NewSet(defs...)
	logger.Info("discovery finished", "commands", set.Len(), "rejected", len(errs))
	return set, errs
}

// candidateName reads a candidate's name for error reports, tolerating
// candidates whose methods panic.
func candidateName(v command.Describable) (name string) {
	defer func() {
		if recover() != nil {
			name = ""
		}
	}()
	return v.Name()
}

// accept validates one candidate. A candidate that panics while being
// inspected, such as a typed nil pointer, is rejected like any other.
func accept(c Candidate) (def *command.Definition, err error) {
	defer func() {
		if r := recover(); r != nil {
			def, err = nil, fmt.Errorf("%w: %v", ErrBrokenCandidate, r)
		}
	}()
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Value == nil {
		return nil, errors.New("candidate has no value")
	}
	if strings.TrimSpace(c.Value.Name()) == "" || strings.TrimSpace(c.Value.Description()) == "" {
		return nil, ErrMissingField
	}
	def, err = command.FromDescribable(c.Value)
	if err != nil {
		return nil, err
	}
	if !def.Ready() {
		return nil, ErrMissingField
	}
	if !def.Bound(command.ModePrefix) && !def.Bound(command.ModeSlash) {
		return nil, command.ErrNoBehavior
	}
	category, source := def.Category(), def.Source()
	if category == "" {
		category = c.Category
	}
	if source == "" {
		source = c.Source
	}
	return def.WithOrigin(category, source), nil
}

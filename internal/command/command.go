// Package command defines the validated command model shared by discovery,
// reconciliation and dispatch.
//
// A Definition is only produced by a Builder, so every Definition that exists
// already satisfies the name, description and option shape rules. Definitions
// are read-only after Build and safe for concurrent use.
package command

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned by Invoke when a definition lacks a name or description.
	ErrNotReady = errors.New("command must have a name and description")
	// ErrNoBehavior indicates a candidate that binds no behavior for any mode.
	ErrNoBehavior = errors.New("command has no callable behavior")
)

// Mode is the invocation style of an inbound event.
type Mode int

const (
	// ModePrefix is a free-text message starting with the configured prefix.
	ModePrefix Mode = iota + 1
	// ModeSlash is a structured slash invocation.
	ModeSlash
	// ModeComponent is an interaction with a message component such as a button.
	ModeComponent
)

func (m Mode) String() string {
	switch m {
	case ModePrefix:
		return "prefix"
	case ModeSlash:
		return "slash"
	case ModeComponent:
		return "component"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Interactive reports whether the mode expects exactly one acknowledgment.
func (m Mode) Interactive() bool {
	return m == ModeSlash || m == ModeComponent
}

// OptionSpec describes one option of a slash command. Attrs carries any
// further attributes (type, required, choices, ...) unchanged.
type OptionSpec struct {
	Name        string
	Description string
	Attrs       map[string]any
}

// Payload flattens the option into the map shape registries expect.
func (o OptionSpec) Payload() map[string]any {
	out := make(map[string]any, len(o.Attrs)+2)
	for k, v := range o.Attrs {
		out[k] = v
	}
	out["name"] = o.Name
	out["description"] = o.Description
	return out
}

// Responder delivers a short text reply for one invocation.
type Responder interface {
	Reply(ctx context.Context, content string) error
}

// Invocation is one inbound request to run a command.
type Invocation struct {
	ID       string
	Mode     Mode
	Name     string
	CallerID string
	// Args holds the whitespace-delimited tokens after the command name (prefix mode).
	Args []string
	// Options holds structured option values (slash mode).
	Options map[string]any
	// CustomID identifies the component for ModeComponent.
	CustomID  string
	Responder Responder
}

// Reply is a convenience wrapper around the invocation's responder.
func (inv *Invocation) Reply(ctx context.Context, content string) error {
	if inv.Responder == nil {
		return errors.New("invocation has no responder")
	}
	return inv.Responder.Reply(ctx, content)
}

// Behavior is the callable bound to a command for one mode.
type Behavior func(ctx context.Context, inv *Invocation) error

func noop(context.Context, *Invocation) error { return nil }

// Describable is the capability discovery requires from a command candidate.
type Describable interface {
	Name() string
	Description() string
	Options() []OptionSpec
	// Behavior returns the callable bound for mode, or nil when none is bound.
	Behavior(mode Mode) Behavior
}

// Flagged is optionally implemented by candidates that carry access or
// lifecycle flags.
type Flagged interface {
	TestingPhase() bool
	DevsOnly() bool
	PrefixOnly() bool
	Deleted() bool
}

// Definition is a validated command declaration.
type Definition struct {
	name         string
	description  string
	options      []OptionSpec
	testingPhase bool
	devsOnly     bool
	prefixOnly   bool
	deleted      bool
	prefix       Behavior
	slash        Behavior
	category     string
	source       string
}

var (
	_ Describable = (*Definition)(nil)
	_ Flagged     = (*Definition)(nil)
)

func (d *Definition) Name() string        { return d.name }
func (d *Definition) Description() string { return d.description }
func (d *Definition) TestingPhase() bool  { return d.testingPhase }
func (d *Definition) DevsOnly() bool      { return d.devsOnly }
func (d *Definition) PrefixOnly() bool    { return d.prefixOnly }
func (d *Definition) Deleted() bool       { return d.deleted }

// Category is the namespace category the definition was discovered in.
func (d *Definition) Category() string { return d.category }

// Source identifies where the definition came from (file path or package).
func (d *Definition) Source() string { return d.source }

// Options returns a copy of the option list.
func (d *Definition) Options() []OptionSpec {
	out := make([]OptionSpec, len(d.options))
	for i, o := range d.options {
		out[i] = OptionSpec{Name: o.Name, Description: o.Description, Attrs: cloneAttrs(o.Attrs)}
	}
	return out
}

// OptionPayloads returns the options in registry payload shape.
func (d *Definition) OptionPayloads() []map[string]any {
	out := make([]map[string]any, 0, len(d.options))
	for _, o := range d.options {
		out = append(out, o.Payload())
	}
	return out
}

// Behavior returns the callable for mode. Unbound modes yield a no-op, never nil.
func (d *Definition) Behavior(mode Mode) Behavior {
	switch mode {
	case ModePrefix:
		if d.prefix != nil {
			return d.prefix
		}
	case ModeSlash:
		if d.slash != nil {
			return d.slash
		}
	}
	return noop
}

// Bound reports whether a behavior was explicitly bound for mode.
func (d *Definition) Bound(mode Mode) bool {
	switch mode {
	case ModePrefix:
		return d.prefix != nil
	case ModeSlash:
		return d.slash != nil
	}
	return false
}

// Ready reports whether the definition has both a name and a description.
func (d *Definition) Ready() bool {
	return d != nil && d.name != "" && d.description != ""
}

// Invoke runs the behavior for inv.Mode. A definition that is not Ready is
// never run; ErrNotReady is returned so callers can report it.
func (d *Definition) Invoke(ctx context.Context, inv *Invocation) error {
	if !d.Ready() {
		return ErrNotReady
	}
	return d.Behavior(inv.Mode)(ctx, inv)
}

// FromDescribable converts a discovered candidate into a Definition,
// re-validating every field. A *Definition is returned as is.
func FromDescribable(c Describable) (*Definition, error) {
	if def, ok := c.(*Definition); ok {
		return def, nil
	}
	prefix := c.Behavior(ModePrefix)
	slash := c.Behavior(ModeSlash)
	if prefix == nil && slash == nil {
		return nil, ErrNoBehavior
	}
	b := New().Name(c.Name()).Description(c.Description()).Options(c.Options())
	if prefix != nil {
		b.PrefixBehavior(prefix)
	}
	if slash != nil {
		b.SlashBehavior(slash)
	}
	if f, ok := c.(Flagged); ok {
		b.TestingPhase(f.TestingPhase()).
			DevsOnly(f.DevsOnly()).
			PrefixOnly(f.PrefixOnly()).
			Deleted(f.Deleted())
	}
	return b.Build()
}

// WithOrigin returns a copy of d tagged with the category and source it was
// discovered from.
func (d *Definition) WithOrigin(category, source string) *Definition {
	c := *d
	c.category = category
	c.source = source
	return &c
}

package command

import "fmt"

// Builder assembles a Definition. Every setter validates its argument
// immediately; the first failure is kept and all later setters are ignored,
// so Build either returns a fully valid Definition or the first error.
type Builder struct {
	def Definition
	err error
}

// New starts a new command definition.
func New() *Builder {
	return &Builder{}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Name sets the command name, lowercasing it.
func (b *Builder) Name(name string) *Builder {
	if b.err != nil {
		return b
	}
	normalized, err := ValidateName(name)
	if err != nil {
		return b.fail(err)
	}
	b.def.name = normalized
	return b
}

// Description sets the command description.
func (b *Builder) Description(description string) *Builder {
	if b.err != nil {
		return b
	}
	d, err := ValidateDescription(description)
	if err != nil {
		return b.fail(err)
	}
	b.def.description = d
	return b
}

// Options replaces the option list. Nothing is applied if any element is invalid.
func (b *Builder) Options(options []OptionSpec) *Builder {
	if b.err != nil {
		return b
	}
	validated, err := ValidateOptions(options)
	if err != nil {
		return b.fail(err)
	}
	b.def.options = validated
	return b
}

func (b *Builder) TestingPhase(v bool) *Builder {
	if b.err == nil {
		b.def.testingPhase = v
	}
	return b
}

func (b *Builder) DevsOnly(v bool) *Builder {
	if b.err == nil {
		b.def.devsOnly = v
	}
	return b
}

// PrefixOnly marks a command that has no slash binding and is never
// registered remotely.
func (b *Builder) PrefixOnly(v bool) *Builder {
	if b.err == nil {
		b.def.prefixOnly = v
	}
	return b
}

// Deleted marks the command for removal from the remote registry.
func (b *Builder) Deleted(v bool) *Builder {
	if b.err == nil {
		b.def.deleted = v
	}
	return b
}

// PrefixBehavior binds the prefix-mode callable.
func (b *Builder) PrefixBehavior(fn Behavior) *Builder {
	if b.err != nil {
		return b
	}
	if fn == nil {
		return b.fail(&ValidationError{Field: "prefix behavior", Value: "<nil>", Reason: "must be a function"})
	}
	b.def.prefix = fn
	return b
}

// SlashBehavior binds the slash-mode callable.
func (b *Builder) SlashBehavior(fn Behavior) *Builder {
	if b.err != nil {
		return b
	}
	if fn == nil {
		return b.fail(&ValidationError{Field: "slash behavior", Value: "<nil>", Reason: "must be a function"})
	}
	b.def.slash = fn
	return b
}

// Behavior binds the same callable for both prefix and slash mode.
func (b *Builder) Behavior(fn Behavior) *Builder {
	return b.PrefixBehavior(fn).SlashBehavior(fn)
}

func (b *Builder) Category(category string) *Builder {
	if b.err == nil {
		b.def.category = category
	}
	return b
}

func (b *Builder) Source(source string) *Builder {
	if b.err == nil {
		b.def.source = source
	}
	return b
}

// Err returns the first validation error recorded so far.
func (b *Builder) Err() error {
	return b.err
}

// Build returns the definition or the first validation error.
func (b *Builder) Build() (*Definition, error) {
	if b.err != nil {
		return nil, b.err
	}
	def := b.def
	def.options = append([]OptionSpec(nil), b.def.options...)
	return &def, nil
}

// MustBuild is Build for definitions declared in Go code, where a
// validation error is a programming error.
func (b *Builder) MustBuild() *Definition {
	def, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("command: %v", err))
	}
	return def
}

package app

import (
	"context"
	"fmt"
	"io"

	"github.com/cristianoliveira/cmdsync/internal/catalog"
	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/cristianoliveira/cmdsync/internal/format"
)

// ListClient defines dependencies required to list commands.
type ListClient interface {
	Discover(ctx context.Context) (*catalog.Set, []*catalog.LoadError)
}

// ListOptions holds the list parameters.
type ListOptions struct {
	// All includes tombstoned commands.
	All    bool
	Format string
}

// ListUseCase prints the desired-state command set.
type ListUseCase struct {
	client ListClient
}

// NewListUseCase creates a new list use-case.
func NewListUseCase(client ListClient) *ListUseCase {
	if client == nil {
		panic("NewListUseCase: client dependency cannot be nil")
	}
	return &ListUseCase{client: client}
}

// Execute writes the discovered commands to w.
func (u *ListUseCase) Execute(ctx context.Context, opts ListOptions, w io.Writer) error {
	set, loadErrs := u.client.Discover(ctx)
	reportLoadErrors(loadErrs)

	var defs []*command.Definition
	for _, def := range set.All() {
		if def.Deleted() && !opts.All {
			continue
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 && format.FormatterType(opts.Format) != format.FormatterTypeJSON {
		_, err := fmt.Fprintln(w, "No commands found")
		return err
	}
	return format.NewFormatter(format.FormatterType(opts.Format)).FormatCommands(defs, w)
}

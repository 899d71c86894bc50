package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cristianoliveira/cmdsync/internal/catalog"
	"github.com/cristianoliveira/cmdsync/internal/colors"
	"github.com/cristianoliveira/cmdsync/internal/format"
	"github.com/cristianoliveira/cmdsync/internal/ports"
	"github.com/cristianoliveira/cmdsync/internal/reconcile"
)

// ErrSyncIncomplete is returned when at least one registry operation failed.
var ErrSyncIncomplete = errors.New("sync incomplete")

// GlobalScope selects the global scope from the command line.
const GlobalScope = "global"

// SyncClient defines dependencies required to reconcile commands.
type SyncClient interface {
	Reload(ctx context.Context) []*catalog.LoadError
	Sync(ctx context.Context, scope ports.Scope, dryRun bool) (*reconcile.Report, error)
	DefaultScope() ports.Scope
}

// SyncOptions holds the sync parameters.
type SyncOptions struct {
	DryRun bool
	// Scope overrides the configured scope; "global" forces the global scope.
	Scope  string
	Format string
}

// SyncUseCase coordinates discovery and reconciliation.
type SyncUseCase struct {
	client SyncClient
}

// NewSyncUseCase creates a new sync use-case.
func NewSyncUseCase(client SyncClient) *SyncUseCase {
	if client == nil {
		panic("NewSyncUseCase: client dependency cannot be nil")
	}
	return &SyncUseCase{client: client}
}

// Execute re-discovers, reconciles and writes the report to w.
func (u *SyncUseCase) Execute(ctx context.Context, opts SyncOptions, w io.Writer) (*reconcile.Report, error) {
	reportLoadErrors(u.client.Reload(ctx))

	scope := u.client.DefaultScope()
	switch s := strings.TrimSpace(opts.Scope); {
	case strings.EqualFold(s, GlobalScope):
		scope = ports.Scope{}
	case s != "":
		scope = ports.Scope{Target: s}
	}

	report, err := u.client.Sync(ctx, scope, opts.DryRun)
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", scope, err)
	}
	if err := format.NewFormatter(format.FormatterType(opts.Format)).FormatReport(report, w); err != nil {
		return report, err
	}
	if n := len(report.Failures); n > 0 {
		return report, fmt.Errorf("%w: %d registry operation(s) failed", ErrSyncIncomplete, n)
	}
	return report, nil
}

func reportLoadErrors(errs []*catalog.LoadError) {
	for _, le := range errs {
		colors.Warning(le.Error())
	}
}

package app

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/cristianoliveira/cmdsync/internal/colors"
	"github.com/cristianoliveira/cmdsync/internal/router"
)

// DispatchClient defines dependencies required to route one invocation.
type DispatchClient interface {
	HandleLine(ctx context.Context, console *Console, callerID, line string) (router.Result, error)
	WaitEvents()
}

// DispatchOptions holds the dispatch parameters.
type DispatchOptions struct {
	CallerID string
	// Slash routes Text as a slash interaction instead of a message.
	Slash bool
	Text  string
}

// DispatchUseCase routes a single message or slash invocation.
type DispatchUseCase struct {
	client DispatchClient
}

// NewDispatchUseCase creates a new dispatch use-case.
func NewDispatchUseCase(client DispatchClient) *DispatchUseCase {
	if client == nil {
		panic("NewDispatchUseCase: client dependency cannot be nil")
	}
	return &DispatchUseCase{client: client}
}

// Execute routes opts.Text and writes replies to w.
func (u *DispatchUseCase) Execute(ctx context.Context, opts DispatchOptions, w io.Writer) (router.Result, error) {
	if strings.TrimSpace(opts.CallerID) == "" {
		return router.Result{}, errors.New("dispatch: caller ID is required")
	}
	line := strings.TrimSpace(opts.Text)
	if opts.Slash && !strings.HasPrefix(line, "/") {
		line = "/" + line
	}

	res, err := u.client.HandleLine(ctx, NewConsole(w), opts.CallerID, line)
	u.client.WaitEvents()
	if err != nil {
		return res, err
	}
	switch res.Outcome {
	case router.OutcomeIgnored:
		colors.Info("No command matched")
	case router.OutcomeFailed, router.OutcomeMisconfigured:
		colors.Debug("dispatch " + string(res.Outcome) + ": " + res.Command)
	}
	return res, nil
}

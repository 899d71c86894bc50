package app

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/cristianoliveira/cmdsync/internal/colors"
	"github.com/cristianoliveira/cmdsync/internal/format"
	"github.com/cristianoliveira/cmdsync/internal/reconcile"
	"github.com/cristianoliveira/cmdsync/internal/router"
	"golang.org/x/sync/errgroup"
)

// ServeClient defines dependencies required to serve console events.
type ServeClient interface {
	Ready(ctx context.Context, skipSync bool) (*reconcile.Report, error)
	HandleLine(ctx context.Context, console *Console, callerID, line string) (router.Result, error)
	Watch(ctx context.Context) error
	DispatchConcurrency() int
	WaitEvents()
}

// ServeOptions holds the serve parameters.
type ServeOptions struct {
	CallerID string
	Watch    bool
	NoSync   bool
	Format   string
	In       io.Reader
}

// ServeUseCase emits ready, then dispatches console lines until input ends
// or ctx is cancelled.
type ServeUseCase struct {
	client ServeClient
}

// NewServeUseCase creates a new serve use-case.
func NewServeUseCase(client ServeClient) *ServeUseCase {
	if client == nil {
		panic("NewServeUseCase: client dependency cannot be nil")
	}
	return &ServeUseCase{client: client}
}

// Execute runs the console loop, writing replies to w.
func (u *ServeUseCase) Execute(ctx context.Context, opts ServeOptions, w io.Writer) error {
	if opts.In == nil {
		return errors.New("serve: no input")
	}
	if strings.TrimSpace(opts.CallerID) == "" {
		return errors.New("serve: caller ID is required")
	}

	report, err := u.client.Ready(ctx, opts.NoSync)
	if err != nil {
		colors.Error("startup registration failed: " + err.Error())
	}
	if report != nil {
		if err := format.NewFormatter(format.FormatterType(opts.Format)).FormatReport(report, w); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	if opts.Watch {
		g.Go(func() error {
			return u.client.Watch(gctx)
		})
	}
	g.Go(func() error {
		// End of input stops the watcher too.
		defer cancel()
		return u.readLoop(gctx, opts, NewConsole(w))
	})
	err = g.Wait()
	u.client.WaitEvents()
	return err
}

func (u *ServeUseCase) readLoop(ctx context.Context, opts ServeOptions, console *Console) error {
	var dispatch errgroup.Group
	dispatch.SetLimit(u.client.DispatchConcurrency())

	lines := make(chan string)
	var scanErr error
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(opts.In)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr = sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return dispatch.Wait()
		case line, ok := <-lines:
			if !ok {
				if err := dispatch.Wait(); err != nil {
					return err
				}
				return scanErr
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			dispatch.Go(func() error {
				if _, err := u.client.HandleLine(ctx, console, opts.CallerID, line); err != nil {
					colors.Error("dispatch failed: " + err.Error())
				}
				return nil
			})
		}
	}
}

package main

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/cristianoliveira/cmdsync/internal/app"
	"github.com/cristianoliveira/cmdsync/internal/colors"
	"github.com/cristianoliveira/cmdsync/internal/config"
	"github.com/cristianoliveira/cmdsync/internal/logging"
	"github.com/cristianoliveira/cmdsync/internal/reconcile"
	"github.com/cristianoliveira/cmdsync/internal/router"
	"github.com/cristianoliveira/cmdsync/internal/version"
)

// cliRuntime builds the application runtime on first use, after cobra has
// loaded the configuration.
type cliRuntime struct {
	mu sync.Mutex
	rt *app.Runtime
}

var runtimeClient = &cliRuntime{}

func (c *cliRuntime) runtime(ctx context.Context) (*app.Runtime, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rt != nil {
		return c.rt, nil
	}
	rt, err := app.NewRuntime(ctx, app.GlobalConfig(), newLogger(), app.Options{Binary: os.Args[0]})
	if err != nil {
		return nil, err
	}
	c.rt = rt
	return rt, nil
}

// newLogger tees the JSON file logger (when enabled) with a stderr console
// logger and mirrors console output into the file.
func newLogger() logging.Logger {
	file, err := logging.InitGlobal()
	if err != nil {
		colors.Warning("file logging disabled: " + err.Error())
	}
	colors.SetLogger(file)

	level := "warn"
	switch {
	case config.GetBool("debug", false):
		level = "debug"
	case config.GetBool("quiet", false):
		level = "error"
	}
	return logging.Tee(file, logging.New(os.Stderr, level))
}

func (c *cliRuntime) Sync(ctx context.Context, opts app.SyncOptions, w io.Writer) (*reconcile.Report, error) {
	rt, err := c.runtime(ctx)
	if err != nil {
		return nil, err
	}
	return app.NewSyncUseCase(rt).Execute(ctx, opts, w)
}

func (c *cliRuntime) List(ctx context.Context, opts app.ListOptions, w io.Writer) error {
	rt, err := c.runtime(ctx)
	if err != nil {
		return err
	}
	return app.NewListUseCase(rt).Execute(ctx, opts, w)
}

func (c *cliRuntime) Dispatch(ctx context.Context, opts app.DispatchOptions, w io.Writer) (router.Result, error) {
	rt, err := c.runtime(ctx)
	if err != nil {
		return router.Result{}, err
	}
	return app.NewDispatchUseCase(rt).Execute(ctx, opts, w)
}

func (c *cliRuntime) Serve(ctx context.Context, opts app.ServeOptions, w io.Writer) error {
	rt, err := c.runtime(ctx)
	if err != nil {
		return err
	}
	return app.NewServeUseCase(rt).Execute(ctx, opts, w)
}

func (c *cliRuntime) Version() string {
	return version.String()
}

// Close releases the runtime if one was built.
func (c *cliRuntime) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rt == nil {
		return nil
	}
	err := c.rt.Close()
	c.rt = nil
	return err
}

// commandContext returns the cobra context, or Background when the command
// runs outside Execute.
func commandContext(c interface{ Context() context.Context }) context.Context {
	if ctx := c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

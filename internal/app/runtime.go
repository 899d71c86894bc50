// Package app wires the command catalog, the remote registry, the access
// gate, the router and the event bus into use-cases for the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cristianoliveira/cmdsync/internal/builtin"
	"github.com/cristianoliveira/cmdsync/internal/catalog"
	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/cristianoliveira/cmdsync/internal/events"
	"github.com/cristianoliveira/cmdsync/internal/gate"
	"github.com/cristianoliveira/cmdsync/internal/logging"
	"github.com/cristianoliveira/cmdsync/internal/mention"
	"github.com/cristianoliveira/cmdsync/internal/ports"
	"github.com/cristianoliveira/cmdsync/internal/reconcile"
	"github.com/cristianoliveira/cmdsync/internal/registry/httpapi"
	"github.com/cristianoliveira/cmdsync/internal/registry/memory"
	"github.com/cristianoliveira/cmdsync/internal/registry/sqlite"
	"github.com/cristianoliveira/cmdsync/internal/router"
	"github.com/cristianoliveira/cmdsync/internal/watch"
)

// Names of the events the runtime emits and of its built-in handlers.
const (
	EventReady             = "ready"
	EventMessageCreate     = "messageCreate"
	EventInteractionCreate = "interactionCreate"

	HandlerRegisterCommands = "01-register-commands"
	HandlerPrefixCommands   = "01-prefix-commands"
	HandlerInteractions     = "01-interactions"
)

// Registry is a command registry that owns resources.
type Registry interface {
	ports.CommandRegistry
	io.Closer
}

// Options overrides parts of the runtime assembly.
type Options struct {
	// Registry replaces the backend selected by registry_backend.
	Registry Registry
	// Resolver confirms mentioned users exist; optional.
	Resolver mention.Resolver
	// Components binds component custom IDs to behaviors.
	Components map[string]command.Behavior
	// Binary is exported to event scripts.
	Binary string
}

// Runtime is the assembled application.
type Runtime struct {
	Config     ports.ConfigProvider
	Logger     logging.Logger
	Live       *catalog.Live
	Registry   Registry
	Reconciler *reconcile.Reconciler
	Policy     gate.Policy
	Router     *router.Router
	Bus        *events.Bus
	Scope      ports.Scope
	// ButtonErrors holds the button manifests rejected at startup.
	ButtonErrors []*catalog.LoadError

	namespaces []catalog.Namespace
}

// NewRuntime assembles the application from cfg and runs the first discovery.
func NewRuntime(ctx context.Context, cfg ports.ConfigProvider, logger logging.Logger, opts Options) (*Runtime, error) {
	if cfg == nil {
		panic("NewRuntime: config dependency cannot be nil")
	}
	if logger == nil {
		panic("NewRuntime: logger dependency cannot be nil")
	}

	rt := &Runtime{
		Config: cfg,
		Logger: logger,
		Live:   catalog.NewLive(catalog.NewSet()),
		Policy: gate.NewPolicy(cfg.GetConfigList("devs"), cfg.GetConfigList("testers")),
		Scope:  ports.Scope{Target: cfg.GetConfigString("registry_scope", "")},
	}

	registry := opts.Registry
	if registry == nil {
		var err error
		if registry, err = openRegistry(cfg); err != nil {
			return nil, err
		}
	}
	rt.Registry = registry
	rt.Reconciler = reconcile.New(registry, logger.With("component", "reconcile"), reconcile.Options{
		OrderSensitive: cfg.GetConfigBool("options_order_sensitive", true),
	})

	rt.Router = router.New(rt.Live, rt.Policy, logger.With("component", "router")).
		WithPrefix(cfg.GetConfigString("prefix", "!"))
	for id, fn := range opts.Components {
		if err := rt.Router.RegisterComponent(id, fn); err != nil {
			_ = registry.Close()
			return nil, err
		}
	}

	deps := builtin.Deps{
		Commands: func() []*command.Definition { return rt.Live.Load().All() },
		Policy:   rt.Policy,
		Prefix:   rt.Router.Prefix(),
		Resolver: opts.Resolver,
	}
	behaviors := builtin.Behaviors(deps)
	rt.namespaces = []catalog.Namespace{
		builtin.Namespace(deps),
		catalog.Dir(cfg.GetConfigString("commands_dir", ""), behaviors),
	}
	rt.registerButtons(ctx, cfg.GetConfigString("buttons_dir", ""), behaviors)

	rt.Bus = events.NewBus(logger.With("component", "events"), events.Options{
		FailureMode:  events.FailureMode(cfg.GetConfigString("events_failure_mode", string(events.FailWarn))),
		Async:        cfg.GetConfigBool("events_async", false),
		AsyncTimeout: time.Duration(cfg.GetConfigInt("events_async_timeout", 30)) * time.Second,
		MaxPending:   cfg.GetConfigInt("max_event_scripts", 10),
		Binary:       opts.Binary,
	})
	if err := rt.registerHandlers(); err != nil {
		_ = registry.Close()
		return nil, err
	}
	if dir := cfg.GetConfigString("events_dir", ""); dir != "" {
		n, err := rt.Bus.LoadDir(dir)
		if err != nil {
			_ = registry.Close()
			return nil, err
		}
		logger.Debug("event scripts loaded", "count", n, "dir", dir)
	}

	rt.Reload(ctx)
	return rt, nil
}

// registerButtons binds manifest-declared buttons to the router. Rejected
// files are logged and skipped; a custom ID already bound from Go keeps its
// Go behavior.
func (rt *Runtime) registerButtons(ctx context.Context, dir string, behaviors catalog.Behaviors) {
	if dir == "" {
		return
	}
	logger := rt.Logger.With("component", "catalog")
	buttons, loadErrs := catalog.LoadButtons(ctx, logger, dir, behaviors)
	rt.ButtonErrors = loadErrs
	for _, b := range buttons {
		if err := rt.Router.RegisterComponent(b.CustomID, b.Behavior); err != nil {
			logger.Warn("button skipped", "custom_id", b.CustomID, "source", b.Source, "error", err.Error())
		}
	}
	logger.Debug("buttons loaded", "count", len(buttons), "rejected", len(loadErrs), "dir", dir)
}

func openRegistry(cfg ports.ConfigProvider) (Registry, error) {
	switch backend := cfg.GetConfigString("registry_backend", "sqlite"); backend {
	case "memory":
		return memory.New(), nil
	case "http":
		hc, err := httpapi.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("http registry: %w", err)
		}
		client, err := httpapi.New(hc, nil)
		if err != nil {
			return nil, fmt.Errorf("http registry: %w", err)
		}
		return client, nil
	case "sqlite":
		path := cfg.GetConfigString("registry_db_path", "")
		if path == "" {
			return nil, errors.New("sqlite registry: registry_db_path is not set")
		}
		reg, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		return reg, nil
	default:
		return nil, fmt.Errorf("unknown registry backend %q", backend)
	}
}

// Discover runs discovery over the built-in and manifest namespaces without
// touching the live set.
func (rt *Runtime) Discover(ctx context.Context) (*catalog.Set, []*catalog.LoadError) {
	return catalog.Discover(ctx, rt.Logger.With("component", "catalog"), rt.namespaces...)
}

// Reload re-discovers and stores the result as the live set.
func (rt *Runtime) Reload(ctx context.Context) []*catalog.LoadError {
	set, loadErrs := rt.Discover(ctx)
	rt.Live.Store(set)
	return loadErrs
}

// Sync reconciles the live set against scope. dryRun only plans.
func (rt *Runtime) Sync(ctx context.Context, scope ports.Scope, dryRun bool) (*reconcile.Report, error) {
	defs := rt.Live.Load().All()
	if dryRun {
		return rt.Reconciler.Plan(ctx, scope, defs)
	}
	return rt.Reconciler.Apply(ctx, scope, defs)
}

// NewWatcher returns a watcher that hot-reloads the commands directory
// into the live set and reconciles changes against the runtime scope.
func (rt *Runtime) NewWatcher() *watch.Watcher {
	debounce, err := time.ParseDuration(rt.Config.GetConfigString("watch_debounce", ""))
	if err != nil {
		debounce = watch.DefaultDebounce
	}
	retry, err := time.ParseDuration(rt.Config.GetConfigString("watch_retry", ""))
	if err != nil {
		retry = watch.DefaultRetry
	}
	logger := rt.Logger.With("component", "watch")
	return watch.New(rt.Config.GetConfigString("commands_dir", ""), rt.Live, rt.Discover, rt.Reconciler, logger, watch.Options{
		Debounce: debounce,
		Retry:    retry,
		Scope:    rt.Scope,
		OnReload: func(set *catalog.Set, report *reconcile.Report) {
			if report != nil {
				logger.Info("reload reconciled", "scope", report.Scope.String(), "result", report.Counts().String())
			}
		},
	})
}

// Close waits for background event scripts and releases the registry.
func (rt *Runtime) Close() error {
	rt.Bus.Wait()
	return rt.Registry.Close()
}

// DefaultScope is the scope configured by registry_scope.
func (rt *Runtime) DefaultScope() ports.Scope {
	return rt.Scope
}

// DispatchConcurrency bounds concurrent console dispatches.
func (rt *Runtime) DispatchConcurrency() int {
	n := rt.Config.GetConfigInt("dispatch_concurrency", 8)
	if n <= 0 {
		return 8
	}
	return n
}

// Watch hot-reloads the commands directory until ctx is done.
func (rt *Runtime) Watch(ctx context.Context) error {
	return rt.NewWatcher().Run(ctx)
}

// WaitEvents blocks until background event scripts finish.
func (rt *Runtime) WaitEvents() {
	rt.Bus.Wait()
}

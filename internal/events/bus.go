// Package events delivers named events to ordered handler chains.
//
// A chain is the set of handlers registered for one event, run in key
// order. Keys carry a numeric or lexical prefix (for example
// "01-register-commands") so the caller controls the sequence. Handlers are
// Go functions or executable scripts found under <events_dir>/<event>/.
package events

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cristianoliveira/cmdsync/internal/logging"
)

// FailureMode decides what a failing handler does to the rest of its chain.
type FailureMode string

const (
	// FailAbort stops the chain and returns the error from Emit.
	FailAbort FailureMode = "abort"
	// FailWarn logs the failure and continues.
	FailWarn FailureMode = "warn"
	// FailIgnore continues silently.
	FailIgnore FailureMode = "ignore"
)

// Event is one occurrence delivered to a chain.
type Event struct {
	Name string
	// Payload is handed to Go handlers as is and to scripts as JSON on stdin.
	Payload any
	// Env holds extra environment variables for scripts.
	Env map[string]string
}

// Handler processes one event.
type Handler func(ctx context.Context, ev Event) error

// Options configures a Bus.
type Options struct {
	FailureMode FailureMode
	// Async runs scripts in the background; Go handlers always run inline.
	Async        bool
	AsyncTimeout time.Duration
	MaxPending   int
	// Binary is exported to scripts as CMDSYNC_BINARY.
	Binary string
}

type entry struct {
	key     string
	handler Handler
	script  bool
}

// Bus holds the per-event handler chains.
type Bus struct {
	logger logging.Logger
	opts   Options

	mu     sync.RWMutex
	chains map[string][]entry

	pendingMu    sync.Mutex
	pendingCount int
	pending      sync.WaitGroup
}

// NewBus creates an empty bus.
func NewBus(logger logging.Logger, opts Options) *Bus {
	if logger == nil {
		panic("NewBus: logger dependency cannot be nil")
	}
	switch opts.FailureMode {
	case FailAbort, FailWarn, FailIgnore:
	default:
		opts.FailureMode = FailWarn
	}
	if opts.AsyncTimeout <= 0 {
		opts.AsyncTimeout = 30 * time.Second
	}
	if opts.MaxPending <= 0 {
		opts.MaxPending = 10
	}
	return &Bus{logger: logger, opts: opts, chains: make(map[string][]entry)}
}

// Register adds h to the chain for event under key. Keys are unique per event.
func (b *Bus) Register(event, key string, h Handler) error {
	return b.register(event, entry{key: key, handler: h})
}

func (b *Bus) register(event string, e entry) error {
	if event == "" || e.key == "" {
		return fmt.Errorf("register handler: event and key must not be empty")
	}
	if e.handler == nil {
		return fmt.Errorf("register handler %s/%s: handler is nil", event, e.key)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	chain := b.chains[event]
	for _, existing := range chain {
		if existing.key == e.key {
			return fmt.Errorf("register handler %s/%s: key already registered", event, e.key)
		}
	}
	chain = append(chain, e)
	sort.SliceStable(chain, func(i, j int) bool { return chain[i].key < chain[j].key })
	b.chains[event] = chain
	return nil
}

// Handlers returns the chain keys for event in execution order.
func (b *Bus) Handlers(event string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.chains[event]))
	for _, e := range b.chains[event] {
		keys = append(keys, e.key)
	}
	return keys
}

// Events returns the names of events with at least one handler, sorted.
func (b *Bus) Events() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.chains))
	for name := range b.chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Emit runs the chain for ev.Name in order. Only FailAbort makes Emit
// return an error; a panicking handler counts as a failure.
func (b *Bus) Emit(ctx context.Context, ev Event) error {
	b.mu.RLock()
	chain := append([]entry(nil), b.chains[ev.Name]...)
	b.mu.RUnlock()

	for _, e := range chain {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := b.invoke(ctx, e, ev)
		if err == nil {
			continue
		}
		switch b.opts.FailureMode {
		case FailAbort:
			b.logger.Error("event handler failed, aborting chain", "event", ev.Name, "handler", e.key, "error", err.Error())
			return fmt.Errorf("event %s: handler %s: %w", ev.Name, e.key, err)
		case FailWarn:
			b.logger.Warn("event handler failed", "event", ev.Name, "handler", e.key, "error", err.Error())
		default:
			b.logger.Debug("event handler failed", "event", ev.Name, "handler", e.key, "error", err.Error())
		}
	}
	return nil
}

func (b *Bus) invoke(ctx context.Context, e entry, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return e.handler(ctx, ev)
}

// Wait blocks until all background scripts have finished.
func (b *Bus) Wait() {
	b.pending.Wait()
}

// Pending reports the number of background scripts still running.
func (b *Bus) Pending() int {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	return b.pendingCount
}

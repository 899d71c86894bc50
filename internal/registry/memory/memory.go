// Package memory provides an in-process command registry.
//
// It keeps a journal of every call and supports failure injection, so it
// serves both as the `memory` backend and as the registry fake in tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cristianoliveira/cmdsync/internal/ports"
)

// ErrNotFound is returned when editing or deleting an unknown ID.
var ErrNotFound = errors.New("command not found")

// Call is one recorded registry call.
type Call struct {
	Op      string
	Scope   string
	ID      string
	Name    string
	Payload ports.CommandPayload
}

type failure struct {
	op, key string
	err     error
}

// Registry is a thread-safe in-memory CommandRegistry.
type Registry struct {
	mu       sync.Mutex
	nextID   int
	records  map[string][]ports.RemoteCommand
	journal  []Call
	failures []failure
}

var _ ports.CommandRegistry = (*Registry)(nil)

// New creates an empty registry.
func New() *Registry {
	return &Registry{records: make(map[string][]ports.RemoteCommand)}
}

// Seed inserts records directly, bypassing the journal. Records without an ID get one.
func (r *Registry) Seed(scope ports.Scope, records ...ports.RemoteCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = r.allocID()
		}
		r.records[scope.Target] = append(r.records[scope.Target], cloneRecord(rec))
	}
}

// FailOn makes the next calls for op fail with err. key matches the command
// name for create, the ID for edit and delete, and the scope target for
// fetch; "*" matches anything.
func (r *Registry) FailOn(op, key string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, failure{op: op, key: key, err: err})
}

// ClearFailures removes all injected failures.
func (r *Registry) ClearFailures() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = nil
}

// Journal returns a copy of the recorded mutating calls (fetches excluded).
func (r *Registry) Journal() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, 0, len(r.journal))
	for _, c := range r.journal {
		if c.Op != ports.OpFetch {
			out = append(out, c)
		}
	}
	return out
}

// Fetches counts FetchAll calls.
func (r *Registry) Fetches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.journal {
		if c.Op == ports.OpFetch {
			n++
		}
	}
	return n
}

// ResetJournal clears the call journal.
func (r *Registry) ResetJournal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journal = nil
}

// Records returns the scope's records sorted by name.
func (r *Registry) Records(scope ports.Scope) []ports.RemoteCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(scope)
}

func (r *Registry) FetchAll(ctx context.Context, scope ports.Scope) ([]ports.RemoteCommand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journal = append(r.journal, Call{Op: ports.OpFetch, Scope: scope.Target})
	if err := r.injected(ports.OpFetch, scope.Target); err != nil {
		return nil, &ports.RegistryError{Op: ports.OpFetch, Scope: scope, Err: err}
	}
	return r.snapshot(scope), nil
}

func (r *Registry) Create(ctx context.Context, scope ports.Scope, payload ports.CommandPayload) (ports.RemoteCommand, error) {
	if err := ctx.Err(); err != nil {
		return ports.RemoteCommand{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journal = append(r.journal, Call{Op: ports.OpCreate, Scope: scope.Target, Name: payload.Name, Payload: payload})
	if err := r.injected(ports.OpCreate, payload.Name); err != nil {
		return ports.RemoteCommand{}, &ports.RegistryError{Op: ports.OpCreate, Scope: scope, Name: payload.Name, Err: err}
	}
	for _, rec := range r.records[scope.Target] {
		if strings.EqualFold(rec.Name, payload.Name) {
			return ports.RemoteCommand{}, &ports.RegistryError{
				Op: ports.OpCreate, Scope: scope, Name: payload.Name,
				Err: fmt.Errorf("command %q already exists", payload.Name),
			}
		}
	}
	rec := ports.RemoteCommand{
		ID:          r.allocID(),
		Name:        payload.Name,
		Description: payload.Description,
		Options:     cloneOptions(payload.Options),
	}
	r.records[scope.Target] = append(r.records[scope.Target], rec)
	return cloneRecord(rec), nil
}

func (r *Registry) Edit(ctx context.Context, scope ports.Scope, id string, payload ports.CommandPayload) (ports.RemoteCommand, error) {
	if err := ctx.Err(); err != nil {
		return ports.RemoteCommand{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journal = append(r.journal, Call{Op: ports.OpEdit, Scope: scope.Target, ID: id, Name: payload.Name, Payload: payload})
	if err := r.injected(ports.OpEdit, id); err != nil {
		return ports.RemoteCommand{}, &ports.RegistryError{Op: ports.OpEdit, Scope: scope, ID: id, Err: err}
	}
	recs := r.records[scope.Target]
	for i := range recs {
		if recs[i].ID == id {
			recs[i].Description = payload.Description
			recs[i].Options = cloneOptions(payload.Options)
			return cloneRecord(recs[i]), nil
		}
	}
	return ports.RemoteCommand{}, &ports.RegistryError{Op: ports.OpEdit, Scope: scope, ID: id, Err: ErrNotFound}
}

func (r *Registry) Delete(ctx context.Context, scope ports.Scope, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journal = append(r.journal, Call{Op: ports.OpDelete, Scope: scope.Target, ID: id})
	if err := r.injected(ports.OpDelete, id); err != nil {
		return &ports.RegistryError{Op: ports.OpDelete, Scope: scope, ID: id, Err: err}
	}
	recs := r.records[scope.Target]
	for i := range recs {
		if recs[i].ID == id {
			r.records[scope.Target] = append(recs[:i:i], recs[i+1:]...)
			return nil
		}
	}
	return &ports.RegistryError{Op: ports.OpDelete, Scope: scope, ID: id, Err: ErrNotFound}
}

// Close is a no-op so the registry satisfies io.Closer like the other backends.
func (r *Registry) Close() error { return nil }

func (r *Registry) allocID() string {
	r.nextID++
	return strconv.Itoa(r.nextID)
}

func (r *Registry) injected(op, key string) error {
	for _, f := range r.failures {
		if f.op == op && (f.key == "*" || strings.EqualFold(f.key, key)) {
			return f.err
		}
	}
	return nil
}

func (r *Registry) snapshot(scope ports.Scope) []ports.RemoteCommand {
	recs := r.records[scope.Target]
	out := make([]ports.RemoteCommand, len(recs))
	for i, rec := range recs {
		out[i] = cloneRecord(rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func cloneRecord(rec ports.RemoteCommand) ports.RemoteCommand {
	rec.Options = cloneOptions(rec.Options)
	return rec
}

func cloneOptions(opts []map[string]any) []map[string]any {
	if opts == nil {
		return nil
	}
	out := make([]map[string]any, len(opts))
	for i, o := range opts {
		m := make(map[string]any, len(o))
		for k, v := range o {
			m[k] = v
		}
		out[i] = m
	}
	return out
}

// Package reconcile makes a remote command registry match the local
// desired-state set.
//
// Reconciliation is per item: a failed create, edit or delete is logged
// and recorded, and the run continues. Only a failed snapshot fetch aborts
// the run, since there is nothing safe to diff against. Remote records are
// fetched fresh on every run and never cached.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/cristianoliveira/cmdsync/internal/logging"
	"github.com/cristianoliveira/cmdsync/internal/ports"
)

// ErrFetch wraps a failed remote snapshot fetch.
var ErrFetch = errors.New("fetch remote commands")

// Action is what a step does to the remote registry.
type Action string

const (
	ActionCreate    Action = "create"
	ActionEdit      Action = "edit"
	ActionDelete    Action = "delete"
	ActionUnchanged Action = "unchanged"
	ActionSkip      Action = "skip"
)

// SkipReason explains an ActionSkip step.
type SkipReason string

const (
	SkipPrefixOnly      SkipReason = "prefix-only"
	SkipInvalid         SkipReason = "invalid"
	SkipTombstoneAbsent SkipReason = "tombstone-absent"
)

// Step is the decision for one local definition.
type Step struct {
	Action   Action
	Name     string
	RemoteID string
	Reason   SkipReason
	// Changes lists the differing fields of an edit: description, options.
	Changes []string
	Payload ports.CommandPayload
}

// Mutates reports whether the step calls the registry.
func (s Step) Mutates() bool {
	return s.Action == ActionCreate || s.Action == ActionEdit || s.Action == ActionDelete
}

// Failure is a step whose registry call failed.
type Failure struct {
	Step Step
	Err  error
}

// Report is the outcome of one Plan or Apply.
type Report struct {
	Scope    ports.Scope
	DryRun   bool
	Steps    []Step
	Failures []Failure
}

// Counts summarizes a report. Failed steps are counted in Failed only.
type Counts struct {
	Created   int
	Edited    int
	Deleted   int
	Unchanged int
	Skipped   int
	Failed    int
}

func (r *Report) Counts() Counts {
	failed := make(map[string]bool, len(r.Failures))
	for _, f := range r.Failures {
		failed[f.Step.Name] = true
	}
	var c Counts
	for _, s := range r.Steps {
		if s.Mutates() && failed[s.Name] {
			continue
		}
		switch s.Action {
		case ActionCreate:
			c.Created++
		case ActionEdit:
			c.Edited++
		case ActionDelete:
			c.Deleted++
		case ActionUnchanged:
			c.Unchanged++
		case ActionSkip:
			c.Skipped++
		}
	}
	c.Failed = len(r.Failures)
	return c
}

func (c Counts) String() string {
	return fmt.Sprintf("%d created, %d edited, %d deleted, %d unchanged, %d skipped, %d failed",
		c.Created, c.Edited, c.Deleted, c.Unchanged, c.Skipped, c.Failed)
}

// Options tunes the diff.
type Options struct {
	// OrderSensitive compares options as an ordered sequence. When false,
	// options are matched by name.
	OrderSensitive bool
}

// Reconciler diffs and applies. Plan and Apply hold a single-writer lock,
// so concurrent runs (startup plus hot reload) never race on the registry.
type Reconciler struct {
	mu       sync.Mutex
	registry ports.CommandRegistry
	logger   logging.Logger
	opts     Options
}

// New creates a reconciler.
func New(registry ports.CommandRegistry, logger logging.Logger, opts Options) *Reconciler {
	if registry == nil {
		panic("New: registry dependency cannot be nil")
	}
	if logger == nil {
		panic("New: logger dependency cannot be nil")
	}
	return &Reconciler{registry: registry, logger: logger, opts: opts}
}

// Plan fetches the remote snapshot and returns the steps Apply would take,
// without mutating anything.
func (r *Reconciler) Plan(ctx context.Context, scope ports.Scope, defs []*command.Definition) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	steps, err := r.plan(ctx, scope, defs)
	if err != nil {
		return nil, err
	}
	return &Report{Scope: scope, DryRun: true, Steps: steps}, nil
}

// Apply fetches the remote snapshot and issues create, edit and delete
// calls one at a time.
func (r *Reconciler) Apply(ctx context.Context, scope ports.Scope, defs []*command.Definition) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	steps, err := r.plan(ctx, scope, defs)
	if err != nil {
		return nil, err
	}
	report := &Report{Scope: scope, Steps: steps}
	for _, step := range steps {
		if !step.Mutates() {
			continue
		}
		if err := ctx.Err(); err != nil {
			report.Failures = append(report.Failures, Failure{Step: step, Err: err})
			continue
		}
		logger := r.logger.With("command", step.Name, "scope", scope.String(), "remote_id", step.RemoteID)
		if err := r.apply(ctx, scope, step); err != nil {
			logger.Error("reconcile step failed", "action", string(step.Action), "error", err.Error())
			report.Failures = append(report.Failures, Failure{Step: step, Err: err})
			continue
		}
		logger.Info("reconcile step applied", "action", string(step.Action))
	}
	r.logger.Info("reconciliation finished", "scope", scope.String(), "summary", report.Counts().String())
	return report, nil
}

func (r *Reconciler) apply(ctx context.Context, scope ports.Scope, step Step) error {
	switch step.Action {
	case ActionCreate:
		_, err := r.registry.Create(ctx, scope, step.Payload)
		return err
	case ActionEdit:
		_, err := r.registry.Edit(ctx, scope, step.RemoteID, step.Payload)
		return err
	case ActionDelete:
		return r.registry.Delete(ctx, scope, step.RemoteID)
	}
	return nil
}

func (r *Reconciler) plan(ctx context.Context, scope ports.Scope, defs []*command.Definition) ([]Step, error) {
	remote, err := r.registry.FetchAll(ctx, scope)
	if err != nil {
		r.logger.Error("fetch remote commands failed, aborting reconciliation", "scope", scope.String(), "error", err.Error())
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	index := make(map[string]ports.RemoteCommand, len(remote))
	for _, rec := range remote {
		key := strings.ToLower(rec.Name)
		if _, dup := index[key]; !dup {
			index[key] = rec
		}
	}

	steps := make([]Step, 0, len(defs))
	for _, def := range defs {
		steps = append(steps, r.decide(def, index))
	}
	return steps, nil
}

func (r *Reconciler) decide(def *command.Definition, index map[string]ports.RemoteCommand) Step {
	if !def.Ready() {
		name := ""
		if def != nil {
			name = def.Name()
		}
		return Step{Action: ActionSkip, Name: name, Reason: SkipInvalid}
	}
	step := Step{Name: def.Name()}
	if def.PrefixOnly() {
		step.Action, step.Reason = ActionSkip, SkipPrefixOnly
		return step
	}

	rec, found := index[strings.ToLower(def.Name())]
	if found {
		step.RemoteID = rec.ID
	}
	switch {
	case found && def.Deleted():
		step.Action = ActionDelete
	case !found && def.Deleted():
		step.Action, step.Reason = ActionSkip, SkipTombstoneAbsent
	case !found:
		step.Action = ActionCreate
		step.Payload = payloadFor(def)
	default:
		step.Payload = payloadFor(def)
		if rec.Description != def.Description() {
			step.Changes = append(step.Changes, "description")
		}
		if !optionsEqual(step.Payload.Options, rec.Options, r.opts.OrderSensitive) {
			step.Changes = append(step.Changes, "options")
		}
		if len(step.Changes) > 0 {
			step.Action = ActionEdit
		} else {
			step.Action = ActionUnchanged
			step.Payload = ports.CommandPayload{}
		}
	}
	return step
}

func payloadFor(def *command.Definition) ports.CommandPayload {
	return ports.CommandPayload{
		Name:        def.Name(),
		Description: def.Description(),
		Options:     def.OptionPayloads(),
	}
}

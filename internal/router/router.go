// Package router matches inbound events to command definitions, applies
// the access gate and runs the bound behavior.
//
// Every invocation is isolated: a failing or panicking behavior is logged
// and, for interactive modes that have not replied yet, answered with a
// generic failure message. Nothing a behavior does can stop the router.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/cristianoliveira/cmdsync/internal/gate"
	"github.com/cristianoliveira/cmdsync/internal/logging"
	"github.com/google/uuid"
)

// User-visible failure replies.
const (
	MsgCommandFailed   = "There was an error executing this command!"
	MsgButtonNotFound  = "Button handler not found"
	MsgButtonFailed    = "There was an error processing this button."
	defaultPrefix      = "!"
	componentSeparator = ":"
)

// Outcome classifies a dispatch.
type Outcome string

const (
	// OutcomeIgnored means the event was not a command; nothing was replied or logged.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeDenied means the gate refused and the denial message was replied.
	OutcomeDenied Outcome = "denied"
	// OutcomeInvoked means the behavior ran and returned nil.
	OutcomeInvoked Outcome = "invoked"
	// OutcomeFailed means the behavior returned an error or panicked.
	OutcomeFailed Outcome = "failed"
	// OutcomeMisconfigured means the target exists but cannot be run.
	OutcomeMisconfigured Outcome = "misconfigured"
)

// Result describes one dispatch.
type Result struct {
	InvocationID string
	Outcome      Outcome
	Command      string
	Denial       gate.Denial
	Err          error
}

// DispatchError wraps a behavior failure.
type DispatchError struct {
	Command      string
	Mode         command.Mode
	InvocationID string
	Panicked     bool
	Err          error
}

func (e *DispatchError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("dispatch %s (%s): panic: %v", e.Command, e.Mode, e.Err)
	}
	return fmt.Sprintf("dispatch %s (%s): %v", e.Command, e.Mode, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Lookup resolves a command by case-insensitive name.
type Lookup interface {
	Lookup(name string) (*command.Definition, bool)
}

// Authorizer evaluates the access gate.
type Authorizer interface {
	Evaluate(def *command.Definition, caller string, mode command.Mode) gate.Decision
}

// Message is a free-text message that may carry a prefix command.
type Message struct {
	ID        string            `json:"id"`
	AuthorID  string            `json:"author_id"`
	AuthorBot bool              `json:"author_bot"`
	Content   string            `json:"content"`
	Responder command.Responder `json:"-"`
}

// Interaction is a structured slash or component interaction.
type Interaction struct {
	ID        string            `json:"id"`
	CallerID  string            `json:"caller_id"`
	Name      string            `json:"name,omitempty"`
	Options   map[string]any    `json:"options,omitempty"`
	CustomID  string            `json:"custom_id,omitempty"`
	Responder command.Responder `json:"-"`
}

// Router dispatches invocations. It is safe for concurrent use.
type Router struct {
	lookup Lookup
	policy Authorizer
	logger logging.Logger
	prefix string

	mu         sync.RWMutex
	components map[string]command.Behavior
}

// New creates a router.
func New(lookup Lookup, policy Authorizer, logger logging.Logger) *Router {
	if lookup == nil {
		panic("New: lookup dependency cannot be nil")
	}
	if policy == nil {
		panic("New: policy dependency cannot be nil")
	}
	if logger == nil {
		panic("New: logger dependency cannot be nil")
	}
	return &Router{
		lookup:     lookup,
		policy:     policy,
		logger:     logger,
		prefix:     defaultPrefix,
		components: make(map[string]command.Behavior),
	}
}

// WithPrefix sets the message prefix. Blank prefixes are ignored.
func (r *Router) WithPrefix(prefix string) *Router {
	if strings.TrimSpace(prefix) != "" {
		r.prefix = prefix
	}
	return r
}

// Prefix returns the configured message prefix.
func (r *Router) Prefix() string { return r.prefix }

// RegisterComponent binds a component custom ID to a behavior.
func (r *Router) RegisterComponent(customID string, fn command.Behavior) error {
	if customID == "" {
		return errors.New("register component: custom ID must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("register component %q: behavior is nil", customID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.components[customID]; exists {
		return fmt.Errorf("register component %q: already registered", customID)
	}
	r.components[customID] = fn
	return nil
}

// ParsePrefix splits a prefixed message into a lowercase command name and
// whitespace-delimited arguments. ok is false when content does not start
// with prefix or names no command.
func ParsePrefix(content, prefix string) (name string, args []string, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(content[len(prefix):])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// HandleMessage routes a prefix command. Bot authors are ignored.
func (r *Router) HandleMessage(ctx context.Context, msg Message) Result {
	if msg.AuthorBot {
		return Result{Outcome: OutcomeIgnored}
	}
	name, args, ok := ParsePrefix(msg.Content, r.prefix)
	if !ok {
		return Result{Outcome: OutcomeIgnored}
	}
	return r.Dispatch(ctx, &command.Invocation{
		Mode:      command.ModePrefix,
		Name:      name,
		CallerID:  msg.AuthorID,
		Args:      args,
		Responder: msg.Responder,
	})
}

// HandleSlash routes a slash interaction.
func (r *Router) HandleSlash(ctx context.Context, it Interaction) Result {
	return r.Dispatch(ctx, &command.Invocation{
		ID:        it.ID,
		Mode:      command.ModeSlash,
		Name:      it.Name,
		CallerID:  it.CallerID,
		Options:   it.Options,
		Responder: it.Responder,
	})
}

// Dispatch resolves inv.Name, applies the gate and runs the behavior for
// inv.Mode. Unknown names are ignored silently.
func (r *Router) Dispatch(ctx context.Context, inv *command.Invocation) Result {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	res := Result{InvocationID: inv.ID, Command: inv.Name}

	def, ok := r.lookup.Lookup(inv.Name)
	if !ok {
		res.Outcome = OutcomeIgnored
		return res
	}
	res.Command = def.Name()
	logger := r.logger.With(
		"invocation_id", inv.ID,
		"command", def.Name(),
		"mode", inv.Mode.String(),
		"caller", inv.CallerID)

	if !def.Ready() {
		logger.Warn("command misconfigured, skipping dispatch", "error", command.ErrNotReady.Error())
		res.Outcome, res.Err = OutcomeMisconfigured, command.ErrNotReady
		return res
	}

	responder := guard(inv.Responder, inv.Mode)
	inv.Responder = responder

	if decision := r.policy.Evaluate(def, inv.CallerID, inv.Mode); !decision.Allowed {
		logger.Info("command denied", "denial", decision.Denial.String())
		if err := responder.Reply(ctx, decision.Denial.Message()); err != nil {
			logger.Warn("failed to reply denial", "error", err.Error())
		}
		res.Outcome, res.Denial = OutcomeDenied, decision.Denial
		return res
	}

	if err := r.invoke(ctx, def.Name(), inv, def.Invoke); err != nil {
		logger.Error("command failed", "error", err.Error())
		r.replyFailure(ctx, logger, inv.Mode, responder, MsgCommandFailed)
		res.Outcome, res.Err = OutcomeFailed, err
		return res
	}
	logger.Debug("command invoked")
	res.Outcome = OutcomeInvoked
	return res
}

// HandleComponent routes a component interaction by custom ID. An exact
// match wins; otherwise the part before the first ':' is tried, so
// "confirm:42" reaches the "confirm" handler.
func (r *Router) HandleComponent(ctx context.Context, it Interaction) Result {
	inv := &command.Invocation{
		ID:        it.ID,
		Mode:      command.ModeComponent,
		Name:      it.CustomID,
		CallerID:  it.CallerID,
		Options:   it.Options,
		CustomID:  it.CustomID,
		Responder: it.Responder,
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	responder := guard(inv.Responder, inv.Mode)
	inv.Responder = responder
	res := Result{InvocationID: inv.ID, Command: it.CustomID}
	logger := r.logger.With("invocation_id", inv.ID, "custom_id", it.CustomID, "caller", it.CallerID)

	fn, ok := r.component(it.CustomID)
	if !ok {
		logger.Warn("no component handler")
		if err := responder.Reply(ctx, MsgButtonNotFound); err != nil {
			logger.Warn("failed to reply", "error", err.Error())
		}
		res.Outcome = OutcomeMisconfigured
		return res
	}

	if err := r.invoke(ctx, it.CustomID, inv, fn); err != nil {
		logger.Error("component handler failed", "error", err.Error())
		r.replyFailure(ctx, logger, inv.Mode, responder, MsgButtonFailed)
		res.Outcome, res.Err = OutcomeFailed, err
		return res
	}
	res.Outcome = OutcomeInvoked
	return res
}

func (r *Router) component(customID string) (command.Behavior, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fn, ok := r.components[customID]; ok {
		return fn, true
	}
	if i := strings.Index(customID, componentSeparator); i > 0 {
		fn, ok := r.components[customID[:i]]
		return fn, ok
	}
	return nil, false
}

func (r *Router) invoke(ctx context.Context, name string, inv *command.Invocation, fn command.Behavior) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &DispatchError{Command: name, Mode: inv.Mode, InvocationID: inv.ID, Panicked: true, Err: fmt.Errorf("%v", p)}
		}
	}()
	if callErr := fn(ctx, inv); callErr != nil {
		return &DispatchError{Command: name, Mode: inv.Mode, InvocationID: inv.ID, Err: callErr}
	}
	return nil
}

// replyFailure sends the generic failure text for interactive modes that
// have not replied yet. Prefix-mode failures are only logged.
func (r *Router) replyFailure(ctx context.Context, logger logging.Logger, mode command.Mode, responder *guardedResponder, msg string) {
	if !mode.Interactive() || responder.Replied() {
		return
	}
	if err := responder.Reply(ctx, msg); err != nil {
		logger.Warn("failed to reply failure", "error", err.Error())
	}
}

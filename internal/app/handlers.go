package app

import (
	"context"
	"fmt"

	"github.com/cristianoliveira/cmdsync/internal/events"
	"github.com/cristianoliveira/cmdsync/internal/reconcile"
	"github.com/cristianoliveira/cmdsync/internal/router"
)

// ReadyPayload is the payload of the ready event. The register handler
// fills Report unless SkipSync is set.
type ReadyPayload struct {
	Scope    string `json:"scope"`
	Commands int    `json:"commands"`
	SkipSync bool   `json:"skip_sync"`

	Report *reconcile.Report `json:"-"`
	Err    error             `json:"-"`
}

// MessagePayload is the payload of messageCreate.
type MessagePayload struct {
	Message router.Message `json:"message"`
	Result  router.Result  `json:"-"`
}

// InteractionPayload is the payload of interactionCreate. Kind is "slash"
// or "component".
type InteractionPayload struct {
	Kind        string             `json:"kind"`
	Interaction router.Interaction `json:"interaction"`
	Result      router.Result      `json:"-"`
}

// Interaction kinds.
const (
	KindSlash     = "slash"
	KindComponent = "component"
)

func (rt *Runtime) registerHandlers() error {
	handlers := []struct {
		event, key string
		fn         events.Handler
	}{
		{EventReady, HandlerRegisterCommands, rt.onReady},
		{EventMessageCreate, HandlerPrefixCommands, rt.onMessage},
		{EventInteractionCreate, HandlerInteractions, rt.onInteraction},
	}
	for _, h := range handlers {
		if err := rt.Bus.Register(h.event, h.key, h.fn); err != nil {
			return err
		}
	}
	return nil
}

// onReady reconciles the live set. A fetch failure is recorded on the
// payload and returned so the bus failure mode decides what happens next.
func (rt *Runtime) onReady(ctx context.Context, ev events.Event) error {
	p, ok := ev.Payload.(*ReadyPayload)
	if !ok {
		return fmt.Errorf("ready: unexpected payload %T", ev.Payload)
	}
	if p.SkipSync {
		return nil
	}
	p.Report, p.Err = rt.Sync(ctx, rt.Scope, false)
	if p.Err != nil {
		return p.Err
	}
	rt.Logger.Info("commands registered", "scope", rt.Scope.String(), "result", p.Report.Counts().String())
	return nil
}

func (rt *Runtime) onMessage(ctx context.Context, ev events.Event) error {
	p, ok := ev.Payload.(*MessagePayload)
	if !ok {
		return fmt.Errorf("messageCreate: unexpected payload %T", ev.Payload)
	}
	p.Result = rt.Router.HandleMessage(ctx, p.Message)
	return nil
}

func (rt *Runtime) onInteraction(ctx context.Context, ev events.Event) error {
	p, ok := ev.Payload.(*InteractionPayload)
	if !ok {
		return fmt.Errorf("interactionCreate: unexpected payload %T", ev.Payload)
	}
	switch p.Kind {
	case KindComponent:
		p.Result = rt.Router.HandleComponent(ctx, p.Interaction)
	default:
		p.Result = rt.Router.HandleSlash(ctx, p.Interaction)
	}
	return nil
}

// Ready emits the ready event and returns the registration report, which
// is nil when skipSync is set.
func (rt *Runtime) Ready(ctx context.Context, skipSync bool) (*reconcile.Report, error) {
	p := &ReadyPayload{
		Scope:    rt.Scope.String(),
		Commands: rt.Live.Load().Len(),
		SkipSync: skipSync,
	}
	if err := rt.Bus.Emit(ctx, events.Event{Name: EventReady, Payload: p}); err != nil {
		return p.Report, err
	}
	return p.Report, p.Err
}

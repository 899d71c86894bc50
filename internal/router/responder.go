package router

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/cristianoliveira/cmdsync/internal/command"
)

// ErrAlreadyReplied is returned by a second reply to an interactive invocation.
var ErrAlreadyReplied = errors.New("invocation already replied")

var errNoResponder = errors.New("invocation has no responder")

// guardedResponder enforces at most one reply for interactive modes and
// remembers whether any reply was sent.
type guardedResponder struct {
	next        command.Responder
	interactive bool
	replied     atomic.Bool
}

func guard(next command.Responder, mode command.Mode) *guardedResponder {
	if g, ok := next.(*guardedResponder); ok {
		return g
	}
	return &guardedResponder{next: next, interactive: mode.Interactive()}
}

func (g *guardedResponder) Reply(ctx context.Context, content string) error {
	if g.next == nil {
		return errNoResponder
	}
	if g.interactive {
		if !g.replied.CompareAndSwap(false, true) {
			return ErrAlreadyReplied
		}
	} else {
		g.replied.Store(true)
	}
	return g.next.Reply(ctx, content)
}

func (g *guardedResponder) Replied() bool {
	return g.replied.Load()
}

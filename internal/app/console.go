package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/cristianoliveira/cmdsync/internal/events"
	"github.com/cristianoliveira/cmdsync/internal/router"
	"github.com/google/uuid"
)

// ButtonPrefix marks a console line as a component interaction.
const ButtonPrefix = "@button:"

// Console is a line-oriented transport: replies are written to out, one
// block per reply, serialized across concurrent invocations.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console writing replies to out.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		panic("NewConsole: out dependency cannot be nil")
	}
	return &Console{out: out}
}

func (c *Console) write(content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, content)
	return err
}

// responder returns a command.Responder tied to this console.
func (c *Console) responder() command.Responder {
	return consoleResponder{console: c}
}

type consoleResponder struct {
	console *Console
}

func (r consoleResponder) Reply(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.console.write(content)
}

// HandleLine turns one console line into an event and emits it:
// "@button:<id>" is a component interaction, "/name k=v ..." a slash
// interaction, anything else a message. Blank lines are ignored.
func (rt *Runtime) HandleLine(ctx context.Context, console *Console, callerID, line string) (router.Result, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return router.Result{Outcome: router.OutcomeIgnored}, nil

	case strings.HasPrefix(line, ButtonPrefix):
		p := &InteractionPayload{
			Kind: KindComponent,
			Interaction: router.Interaction{
				ID:        uuid.NewString(),
				CallerID:  callerID,
				CustomID:  strings.TrimSpace(strings.TrimPrefix(line, ButtonPrefix)),
				Responder: console.responder(),
			},
		}
		err := rt.emit(ctx, EventInteractionCreate, p)
		return p.Result, err

	case strings.HasPrefix(line, "/"):
		name, options := rt.parseSlash(strings.TrimPrefix(line, "/"))
		p := &InteractionPayload{
			Kind: KindSlash,
			Interaction: router.Interaction{
				ID:        uuid.NewString(),
				CallerID:  callerID,
				Name:      name,
				Options:   options,
				Responder: console.responder(),
			},
		}
		err := rt.emit(ctx, EventInteractionCreate, p)
		return p.Result, err

	default:
		p := &MessagePayload{
			Message: router.Message{
				ID:        uuid.NewString(),
				AuthorID:  callerID,
				Content:   line,
				Responder: console.responder(),
			},
		}
		err := rt.emit(ctx, EventMessageCreate, p)
		return p.Result, err
	}
}

func (rt *Runtime) emit(ctx context.Context, name string, payload any) error {
	return rt.Bus.Emit(ctx, events.Event{Name: name, Payload: payload})
}

// parseSlash splits "name a=1 b" into a lowercase name and options. key=value
// tokens set options by name; bare tokens fill the command's declared
// options in order, skipping those already set.
func (rt *Runtime) parseSlash(text string) (string, map[string]any) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	name := strings.ToLower(fields[0])
	options := make(map[string]any)
	var bare []string
	for _, tok := range fields[1:] {
		if k, v, ok := strings.Cut(tok, "="); ok && k != "" {
			options[strings.ToLower(k)] = v
			continue
		}
		bare = append(bare, tok)
	}
	if len(bare) > 0 {
		if def, ok := rt.Live.Lookup(name); ok {
			for _, opt := range def.Options() {
				if len(bare) == 0 {
					break
				}
				if _, set := options[opt.Name]; set {
					continue
				}
				options[opt.Name] = bare[0]
				bare = bare[1:]
			}
		}
	}
	if len(options) == 0 {
		return name, nil
	}
	return name, options
}

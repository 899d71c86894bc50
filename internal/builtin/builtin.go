// Package builtin provides the commands every deployment ships with.
package builtin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cristianoliveira/cmdsync/internal/catalog"
	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/cristianoliveira/cmdsync/internal/mention"
)

// Category is the category of the built-in commands.
const Category = "general"

// Visibility decides whether a caller may see a command in help output.
type Visibility interface {
	Visible(def *command.Definition, caller string) bool
}

// Deps wires the built-ins to the running system.
type Deps struct {
	// Commands returns the current desired-state set, for help.
	Commands func() []*command.Definition
	Policy   Visibility
	Prefix   string
	// Resolver is optional; without it whois and channel trust any
	// well-formed mention.
	Resolver mention.Resolver
}

// Namespace returns the built-in command namespace.
func Namespace(deps Deps) catalog.Namespace {
	return catalog.Static(Category, Ping(), Help(deps), Whois(deps), Channel(deps))
}

// Behaviors exposes the built-in behaviors to command manifests by name.
func Behaviors(deps Deps) catalog.Behaviors {
	return catalog.Behaviors{
		"ping":    pong,
		"help":    help(deps),
		"whois":   whois(deps),
		"channel": channel(deps),
	}
}

func pong(ctx context.Context, inv *command.Invocation) error {
	return inv.Reply(ctx, "Pong!")
}

// Ping answers "Pong!" in both modes.
func Ping() *command.Definition {
	return command.New().
		Name("ping").
		Description("Pong!").
		Behavior(pong).
		Category(Category).
		MustBuild()
}

// Help lists the commands the caller can run in the current mode.
func Help(deps Deps) *command.Definition {
	return command.New().
		Name("help").
		Description("List the commands you can use").
		Behavior(help(deps)).
		Category(Category).
		MustBuild()
}

func help(deps Deps) command.Behavior {
	return func(ctx context.Context, inv *command.Invocation) error {
		if deps.Commands == nil {
			return errors.New("help: no command source configured")
		}
		prefix := deps.Prefix
		if prefix == "" {
			prefix = "!"
		}
		if inv.Mode == command.ModeSlash {
			prefix = "/"
		}

		var lines []string
		for _, def := range deps.Commands() {
			if !def.Ready() || def.Deleted() {
				continue
			}
			if inv.Mode == command.ModeSlash && def.PrefixOnly() {
				continue
			}
			if deps.Policy != nil && !deps.Policy.Visible(def, inv.CallerID) {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s%s - %s", prefix, def.Name(), def.Description()))
		}
		if len(lines) == 0 {
			return inv.Reply(ctx, "No commands available.")
		}
		sort.Strings(lines)
		return inv.Reply(ctx, "Available commands:\n"+strings.Join(lines, "\n"))
	}
}

// Whois reports the ID of a mentioned user, or of the caller. Prefix only.
func Whois(deps Deps) *command.Definition {
	return command.New().
		Name("whois").
		Description("Show the ID of a mentioned user").
		PrefixOnly(true).
		PrefixBehavior(whois(deps)).
		Category(Category).
		MustBuild()
}

func whois(deps Deps) command.Behavior {
	return func(ctx context.Context, inv *command.Invocation) error {
		if len(inv.Args) == 0 {
			return inv.Reply(ctx, "Your ID is "+inv.CallerID)
		}
		var (
			id  string
			err error
		)
		if deps.Resolver != nil {
			id, err = mention.ResolveUser(ctx, deps.Resolver, inv.Args[0])
		} else {
			id, err = mention.User(inv.Args[0])
		}
		switch {
		case errors.Is(err, mention.ErrInvalidMention), errors.Is(err, mention.ErrUnknownTarget):
			return inv.Reply(ctx, "Please mention a valid user.")
		case err != nil:
			return err
		}
		return inv.Reply(ctx, "User ID: "+id)
	}
}

// Channel reports the ID of a mentioned channel. Prefix only.
func Channel(deps Deps) *command.Definition {
	return command.New().
		Name("channel").
		Description("Show the ID of a mentioned channel").
		PrefixOnly(true).
		PrefixBehavior(channel(deps)).
		Category(Category).
		MustBuild()
}

func channel(deps Deps) command.Behavior {
	return func(ctx context.Context, inv *command.Invocation) error {
		if len(inv.Args) == 0 {
			return inv.Reply(ctx, "Please mention a channel.")
		}
		var (
			id  string
			err error
		)
		if deps.Resolver != nil {
			id, err = mention.ResolveChannel(ctx, deps.Resolver, inv.Args[0])
		} else {
			id, err = mention.Channel(inv.Args[0])
		}
		switch {
		case errors.Is(err, mention.ErrInvalidMention), errors.Is(err, mention.ErrUnknownTarget):
			return inv.Reply(ctx, "Please mention a valid channel.")
		case err != nil:
			return err
		}
		return inv.Reply(ctx, "Channel ID: "+id)
	}
}

package builtin

import (
	"context"
	"testing"

	"github.com/cristianoliveira/cmdsync/internal/catalog"
	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/cristianoliveira/cmdsync/internal/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingResponder struct {
	replies []string
}

func (r *recordingResponder) Reply(_ context.Context, content string) error {
	r.replies = append(r.replies, content)
	return nil
}

func run(t *testing.T, def *command.Definition, inv *command.Invocation) []string {
	t.Helper()
	resp := &recordingResponder{}
	inv.Responder = resp
	require.NoError(t, def.Invoke(context.Background(), inv))
	return resp.replies
}

func TestNamespaceDiscovers(t *testing.T) {
	set, errs := catalog.Discover(context.Background(), nil, Namespace(Deps{}))
	require.Empty(t, errs)
	assert.Equal(t, 4, set.Len())

	whois, ok := set.Lookup("whois")
	require.True(t, ok)
	assert.True(t, whois.PrefixOnly())
	assert.Equal(t, Category, whois.Category())
}

func TestPing(t *testing.T) {
	assert.Equal(t, []string{"Pong!"}, run(t, Ping(), &command.Invocation{Mode: command.ModeSlash}))
	assert.Equal(t, []string{"Pong!"}, run(t, Ping(), &command.Invocation{Mode: command.ModePrefix}))
}

func TestHelpFiltersByTierAndMode(t *testing.T) {
	eval := command.New().Name("eval").Description("Evaluate").DevsOnly(true).MustBuild()
	old := command.New().Name("old").Description("Old").Deleted(true).MustBuild()
	var deps Deps
	deps.Policy = gate.NewPolicy([]string{"dev"}, nil)
	deps.Prefix = "?"
	deps.Commands = func() []*command.Definition {
		return []*command.Definition{Ping(), Whois(deps), eval, old}
	}
	h := Help(deps)

	got := run(t, h, &command.Invocation{Mode: command.ModePrefix, CallerID: "someone"})
	assert.Equal(t, []string{"Available commands:\n?ping - Pong!\n?whois - Show the ID of a mentioned user"}, got)

	got = run(t, h, &command.Invocation{Mode: command.ModeSlash, CallerID: "dev"})
	assert.Equal(t, []string{"Available commands:\n/eval - Evaluate\n/ping - Pong!"}, got)

	empty := Help(Deps{Commands: func() []*command.Definition { return nil }})
	assert.Equal(t, []string{"No commands available."}, run(t, empty, &command.Invocation{Mode: command.ModeSlash}))
}

func TestHelpWithoutSource(t *testing.T) {
	err := Help(Deps{}).Invoke(context.Background(), &command.Invocation{Mode: command.ModeSlash, Responder: &recordingResponder{}})
	require.Error(t, err)
}

type fakeResolver struct{ known string }

func (f fakeResolver) UserExists(_ context.Context, id string) (bool, error)    { return id == f.known, nil }
func (f fakeResolver) ChannelExists(_ context.Context, id string) (bool, error) { return id == f.known, nil }

func TestWhois(t *testing.T) {
	w := Whois(Deps{})
	assert.Equal(t, []string{"Your ID is 42"}, run(t, w, &command.Invocation{Mode: command.ModePrefix, CallerID: "42"}))
	assert.Equal(t, []string{"User ID: 123456789012345678"},
		run(t, w, &command.Invocation{Mode: command.ModePrefix, Args: []string{"<@!123456789012345678>"}}))
	assert.Equal(t, []string{"Please mention a valid user."},
		run(t, w, &command.Invocation{Mode: command.ModePrefix, Args: []string{"bob"}}))

	resolved := Whois(Deps{Resolver: fakeResolver{known: "123456789012345678"}})
	assert.Equal(t, []string{"Please mention a valid user."},
		run(t, resolved, &command.Invocation{Mode: command.ModePrefix, Args: []string{"<@223456789012345678>"}}))
}

func TestChannel(t *testing.T) {
	c := Channel(Deps{})
	assert.True(t, c.PrefixOnly())
	assert.Equal(t, []string{"Please mention a channel."}, run(t, c, &command.Invocation{Mode: command.ModePrefix}))
	assert.Equal(t, []string{"Channel ID: 123456789012345678"},
		run(t, c, &command.Invocation{Mode: command.ModePrefix, Args: []string{"<#123456789012345678>"}}))
	assert.Equal(t, []string{"Please mention a valid channel."},
		run(t, c, &command.Invocation{Mode: command.ModePrefix, Args: []string{"<@123456789012345678>"}}))

	resolved := Channel(Deps{Resolver: fakeResolver{known: "123456789012345678"}})
	assert.Equal(t, []string{"Channel ID: 123456789012345678"},
		run(t, resolved, &command.Invocation{Mode: command.ModePrefix, Args: []string{"<#123456789012345678>"}}))
	assert.Equal(t, []string{"Please mention a valid channel."},
		run(t, resolved, &command.Invocation{Mode: command.ModePrefix, Args: []string{"<#223456789012345678>"}}))
}

func TestBehaviorsTable(t *testing.T) {
	b := Behaviors(Deps{})
	for _, name := range []string{"ping", "help", "whois", "channel"} {
		assert.NotNil(t, b[name], name)
	}
}

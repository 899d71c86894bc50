package catalog

import (
	"context"
	"testing"

	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadButtons(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "polls", "a_confirm.toml", "custom_id = \"confirm\"\nreply = \"confirmed\"\n")
	writeManifest(t, root, "polls", "b_ping.yaml", "custom_id: ping-button\nhandler: ping\n")
	writeManifest(t, root, "polls", "c_dup.json", `{"custom_id": "confirm", "reply": "again"}`)
	writeManifest(t, root, "polls", "d_empty.jsonc", `{"custom_id": " ", "reply": "x"}`)
	writeManifest(t, root, "polls", "e_unbound.toml", "custom_id = \"lonely\"\n")
	writeManifest(t, root, "polls", "f_unknown.toml", "custom_id = \"ghost\"\nhandler = \"nope\"\n")
	writeManifest(t, root, "polls", "g_broken.toml", "custom_id = \n")
	writeManifest(t, root, "polls", "notes.txt", "ignored")

	var pinged bool
	behaviors := Behaviors{"ping": func(context.Context, *command.Invocation) error {
		pinged = true
		return nil
	}}

	buttons, errs := LoadButtons(context.Background(), nil, root, behaviors)
	require.Len(t, buttons, 2)
	assert.Equal(t, "confirm", buttons[0].CustomID)
	assert.Equal(t, "polls", buttons[0].Category)
	assert.Equal(t, "ping-button", buttons[1].CustomID)

	resp := &recordingResponder{}
	require.NoError(t, buttons[0].Behavior(context.Background(), &command.Invocation{Mode: command.ModeComponent, Responder: resp}))
	assert.Equal(t, []string{"confirmed"}, resp.replies)
	require.NoError(t, buttons[1].Behavior(context.Background(), &command.Invocation{Mode: command.ModeComponent}))
	assert.True(t, pinged)

	require.Len(t, errs, 5)
	assert.ErrorIs(t, errs[0], ErrDuplicateButton)
	assert.Equal(t, "confirm", errs[0].Name)
	var verr *command.ValidationError
	assert.ErrorAs(t, errs[1], &verr)
	assert.ErrorIs(t, errs[2], command.ErrNoBehavior)
	assert.Contains(t, errs[3].Error(), `unknown handler "nope"`)
	assert.Contains(t, errs[4].Error(), "parse manifest")
}

func TestLoadButtonsMissingRoot(t *testing.T) {
	buttons, errs := LoadButtons(context.Background(), nil, "/does/not/exist", nil)
	assert.Empty(t, buttons)
	assert.Empty(t, errs)
}

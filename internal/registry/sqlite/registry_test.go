package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cristianoliveira/cmdsync/internal/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "registry.db")
	r, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, r.Close())
	})
	return r
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestCreateAndFetch(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	scope := ports.Scope{Target: "123"}

	rec, err := r.Create(ctx, scope, ports.CommandPayload{
		Name:        "kick",
		Description: "Kick a member",
		Options:     []map[string]any{{"name": "user", "description": "Who", "type": 6, "required": true}},
	})
	require.NoError(t, err)
	_, err = uuid.Parse(rec.ID)
	require.NoError(t, err)

	_, err = r.Create(ctx, scope, ports.CommandPayload{Name: "KICK", Description: "again"})
	require.ErrorIs(t, err, ErrCommandExists)

	recs, err := r.FetchAll(ctx, scope)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "kick", recs[0].Name)
	require.Len(t, recs[0].Options, 1)
	// JSON round trip turns numbers into float64.
	require.Equal(t, float64(6), recs[0].Options[0]["type"])

	global, err := r.FetchAll(ctx, ports.Scope{})
	require.NoError(t, err)
	require.Empty(t, global)
}

func TestEdit(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	rec, err := r.Create(ctx, ports.Scope{}, ports.CommandPayload{Name: "ping", Description: "Pong!"})
	require.NoError(t, err)

	edited, err := r.Edit(ctx, ports.Scope{}, rec.ID, ports.CommandPayload{Name: "ping", Description: "Pong!!"})
	require.NoError(t, err)
	require.Equal(t, "Pong!!", edited.Description)
	require.Nil(t, edited.Options)

	all, err := r.FetchAll(ctx, ports.Scope{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "Pong!!", all[0].Description)

	_, err = r.Edit(ctx, ports.Scope{Target: "other"}, rec.ID, ports.CommandPayload{Description: "x"})
	require.ErrorIs(t, err, ErrCommandNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	rec, err := r.Create(ctx, ports.Scope{}, ports.CommandPayload{Name: "old", Description: "Old"})
	require.NoError(t, err)
	require.NoError(t, r.Delete(ctx, ports.Scope{}, rec.ID))

	err = r.Delete(ctx, ports.Scope{}, rec.ID)
	var rerr *ports.RegistryError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, ports.OpDelete, rerr.Op)
	require.ErrorIs(t, err, ErrCommandNotFound)

	all, err := r.FetchAll(ctx, ports.Scope{})
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "registry.db")

	r, err := Open(dbPath)
	require.NoError(t, err)
	_, err = r.Create(ctx, ports.Scope{}, ports.CommandPayload{Name: "help", Description: "Help"})
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r, err = Open(dbPath)
	require.NoError(t, err)
	defer r.Close()
	recs, err := r.FetchAll(ctx, ports.Scope{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cristianoliveira/cmdsync/internal/catalog"
	"github.com/cristianoliveira/cmdsync/internal/logging"
	"github.com/cristianoliveira/cmdsync/internal/ports"
	"github.com/cristianoliveira/cmdsync/internal/reconcile"
	"github.com/cristianoliveira/cmdsync/internal/registry/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setup(t *testing.T) (string, *catalog.Live, *memory.Registry, *Watcher) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "commands")
	require.NoError(t, os.MkdirAll(root, 0o755))
	live := catalog.NewLive(catalog.NewSet())
	reg := memory.New()
	logger := logging.Discard()
	rec := reconcile.New(reg, logger, reconcile.Options{OrderSensitive: true})
	discover := func(ctx context.Context) (*catalog.Set, []*catalog.LoadError) {
		return catalog.Discover(ctx, logger, catalog.Dir(root, nil))
	}
	w := New(root, live, discover, rec, logger, Options{Debounce: 20 * time.Millisecond, Retry: 50 * time.Millisecond})
	return root, live, reg, w
}

func write(t *testing.T, root, category, file, content string) {
	t.Helper()
	dir := filepath.Join(root, category)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
}

func TestReloadSkipsUnchanged(t *testing.T) {
	root, live, reg, w := setup(t)
	write(t, root, "fun", "roll.toml", "name = \"roll\"\ndescription = \"Roll\"\nreply = \"4\"\n")

	changed, err := w.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	_, ok := live.Lookup("roll")
	assert.True(t, ok)
	require.Len(t, reg.Journal(), 1)

	changed, err = w.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, reg.Journal(), 1)
}

func TestReloadRetriesAfterFetchFailure(t *testing.T) {
	root, _, reg, w := setup(t)
	write(t, root, "fun", "roll.toml", "name = \"roll\"\ndescription = \"Roll\"\nreply = \"4\"\n")
	reg.FailOn(ports.OpFetch, "*", errors.New("network down"))

	changed, err := w.Reload(context.Background())
	require.Error(t, err)
	assert.True(t, changed)
	assert.False(t, w.Synced())
	assert.Empty(t, reg.Records(ports.Scope{}))

	reg.ClearFailures()
	changed, err = w.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, w.Synced())
	require.Len(t, reg.Records(ports.Scope{}), 1)
	assert.Equal(t, "roll", reg.Records(ports.Scope{})[0].Name)

	changed, err = w.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestReloadRetriesAfterItemFailure(t *testing.T) {
	root, _, reg, w := setup(t)
	write(t, root, "fun", "roll.toml", "name = \"roll\"\ndescription = \"Roll\"\nreply = \"4\"\n")
	reg.FailOn(ports.OpCreate, "roll", errors.New("rate limited"))

	var reports []*reconcile.Report
	w.opts.OnReload = func(_ *catalog.Set, report *reconcile.Report) {
		reports = append(reports, report)
	}

	changed, err := w.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, w.Synced())

	reg.ClearFailures()
	changed, err = w.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, w.Synced())
	assert.Len(t, reg.Records(ports.Scope{}), 1)

	require.Len(t, reports, 2)
	assert.Len(t, reports[0].Failures, 1)
	assert.Empty(t, reports[1].Failures)
}

func TestRunRetriesFailedReconcile(t *testing.T) {
	root, _, reg, w := setup(t)
	reg.FailOn(ports.OpFetch, "*", errors.New("network down"))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	write(t, root, "fun", "roll.toml", "name = \"roll\"\ndescription = \"Roll\"\nreply = \"4\"\n")
	require.Eventually(t, func() bool { return reg.Fetches() >= 1 }, 5*time.Second, 10*time.Millisecond)

	// No further file changes; the retry timer alone must reach the registry.
	reg.ClearFailures()
	require.Eventually(t, func() bool {
		return len(reg.Records(ports.Scope{})) == 1
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, w.Synced())

	cancel()
	require.NoError(t, <-done)
}

func TestRunPicksUpNewManifests(t *testing.T) {
	root, live, reg, w := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give Run time to register its watches.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "fun"), 0o755))
	time.Sleep(50 * time.Millisecond)
	write(t, root, "fun", "roll.toml", "name = \"roll\"\ndescription = \"Roll\"\nreply = \"4\"\n")

	require.Eventually(t, func() bool {
		_, ok := live.Lookup("roll")
		return ok && len(reg.Records(ports.Scope{})) == 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestNewPanicsOnNilDependencies(t *testing.T) {
	require.Panics(t, func() {
		New("x", nil, func(context.Context) (*catalog.Set, []*catalog.LoadError) { return nil, nil }, nil, logging.Discard(), Options{})
	})
	require.Panics(t, func() {
		New("x", catalog.NewLive(nil), nil, nil, logging.Discard(), Options{})
	})
}

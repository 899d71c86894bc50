package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/cristianoliveira/cmdsync/internal/logging"
	"github.com/cristianoliveira/cmdsync/internal/ports"
	"github.com/cristianoliveira/cmdsync/internal/registry/memory"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func def(name, description string) *command.Builder {
	return command.New().Name(name).Description(description)
}

func newReconciler(reg ports.CommandRegistry, orderSensitive bool) *Reconciler {
	return New(reg, logging.Discard(), Options{OrderSensitive: orderSensitive})
}

func TestNewPanicsOnNilDependencies(t *testing.T) {
	require.PanicsWithValue(t, "New: registry dependency cannot be nil", func() {
		New(nil, logging.Discard(), Options{})
	})
	require.PanicsWithValue(t, "New: logger dependency cannot be nil", func() {
		New(memory.New(), nil, Options{})
	})
}

func TestCreateMissing(t *testing.T) {
	reg := memory.New()
	r := newReconciler(reg, true)

	report, err := r.Apply(context.Background(), ports.Scope{}, []*command.Definition{def("ping", "Pong!").MustBuild()})
	require.NoError(t, err)

	want := []memory.Call{{
		Op:      ports.OpCreate,
		Name:    "ping",
		Payload: ports.CommandPayload{Name: "ping", Description: "Pong!", Options: []map[string]any{}},
	}}
	if diff := cmp.Diff(want, reg.Journal()); diff != "" {
		t.Errorf("journal mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Counts{Created: 1}, report.Counts())
}

func TestEditChangedDescription(t *testing.T) {
	reg := memory.New()
	reg.Seed(ports.Scope{}, ports.RemoteCommand{ID: "1", Name: "ping", Description: "Pong!"})
	r := newReconciler(reg, true)

	report, err := r.Apply(context.Background(), ports.Scope{}, []*command.Definition{def("ping", "Pong!!").MustBuild()})
	require.NoError(t, err)

	calls := reg.Journal()
	require.Len(t, calls, 1)
	assert.Equal(t, ports.OpEdit, calls[0].Op)
	assert.Equal(t, "1", calls[0].ID)
	assert.Equal(t, "Pong!!", calls[0].Payload.Description)
	assert.Equal(t, []string{"description"}, report.Steps[0].Changes)
}

func TestTombstones(t *testing.T) {
	reg := memory.New()
	reg.Seed(ports.Scope{}, ports.RemoteCommand{ID: "2", Name: "old", Description: "Old"})
	r := newReconciler(reg, true)

	defs := []*command.Definition{
		def("old", "Old").Deleted(true).MustBuild(),
		def("gone", "Never existed").Deleted(true).MustBuild(),
	}
	report, err := r.Apply(context.Background(), ports.Scope{}, defs)
	require.NoError(t, err)

	calls := reg.Journal()
	require.Len(t, calls, 1)
	assert.Equal(t, memory.Call{Op: ports.OpDelete, ID: "2"}, calls[0])
	assert.Equal(t, ActionSkip, report.Steps[1].Action)
	assert.Equal(t, SkipTombstoneAbsent, report.Steps[1].Reason)
	assert.Empty(t, reg.Records(ports.Scope{}))
}

func TestPrefixOnlyNeverTouched(t *testing.T) {
	reg := memory.New()
	reg.Seed(ports.Scope{}, ports.RemoteCommand{ID: "3", Name: "whois", Description: "Stale"})
	r := newReconciler(reg, true)

	defs := []*command.Definition{
		def("whois", "Who is").PrefixOnly(true).MustBuild(),
		def("whois2", "Who is").PrefixOnly(true).Deleted(true).MustBuild(),
	}
	report, err := r.Apply(context.Background(), ports.Scope{}, defs)
	require.NoError(t, err)
	assert.Empty(t, reg.Journal())
	for _, s := range report.Steps {
		assert.Equal(t, SkipPrefixOnly, s.Reason)
	}
}

func TestInvalidDefinitionsSkipped(t *testing.T) {
	reg := memory.New()
	r := newReconciler(reg, true)

	defs := []*command.Definition{nil, command.New().Description("nameless").MustBuild()}
	report, err := r.Apply(context.Background(), ports.Scope{}, defs)
	require.NoError(t, err)
	assert.Empty(t, reg.Journal())
	assert.Equal(t, Counts{Skipped: 2}, report.Counts())
}

func TestIdempotent(t *testing.T) {
	reg := memory.New()
	r := newReconciler(reg, true)
	defs := []*command.Definition{
		def("ping", "Pong!").MustBuild(),
		def("kick", "Kick").Options([]command.OptionSpec{
			{Name: "user", Description: "Who", Attrs: map[string]any{"type": 6, "required": true}},
		}).MustBuild(),
	}

	_, err := r.Apply(context.Background(), ports.Scope{}, defs)
	require.NoError(t, err)
	require.Len(t, reg.Journal(), 2)
	reg.ResetJournal()

	report, err := r.Apply(context.Background(), ports.Scope{}, defs)
	require.NoError(t, err)
	assert.Empty(t, reg.Journal())
	assert.Equal(t, Counts{Unchanged: 2}, report.Counts())
}

func TestPerItemFailureIsolation(t *testing.T) {
	reg := memory.New()
	reg.Seed(ports.Scope{}, ports.RemoteCommand{ID: "9", Name: "c", Description: "old"})
	boom := errors.New("rejected")
	reg.FailOn(ports.OpCreate, "a", boom)
	r := newReconciler(reg, true)

	defs := []*command.Definition{
		def("a", "A").MustBuild(),
		def("b", "B").MustBuild(),
		def("c", "C").MustBuild(),
	}
	report, err := r.Apply(context.Background(), ports.Scope{}, defs)
	require.NoError(t, err)

	ops := []string{}
	for _, c := range reg.Journal() {
		ops = append(ops, c.Op+":"+c.Name)
	}
	assert.Equal(t, []string{"create:a", "create:b", "edit:c"}, ops)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "a", report.Failures[0].Step.Name)
	require.ErrorIs(t, report.Failures[0].Err, boom)
	assert.Equal(t, Counts{Created: 1, Edited: 1, Failed: 1}, report.Counts())
}

func TestFetchFailureAborts(t *testing.T) {
	reg := memory.New()
	reg.FailOn(ports.OpFetch, "*", errors.New("unreachable"))
	r := newReconciler(reg, true)

	report, err := r.Apply(context.Background(), ports.Scope{}, []*command.Definition{def("ping", "Pong!").MustBuild()})
	require.ErrorIs(t, err, ErrFetch)
	var rerr *ports.RegistryError
	require.ErrorAs(t, err, &rerr)
	assert.Nil(t, report)
	assert.Empty(t, reg.Journal())
}

func TestPlanDoesNotMutate(t *testing.T) {
	reg := memory.New()
	reg.Seed(ports.Scope{Target: "g"}, ports.RemoteCommand{ID: "1", Name: "PING", Description: "Pong!"})
	r := newReconciler(reg, true)

	report, err := r.Plan(context.Background(), ports.Scope{Target: "g"}, []*command.Definition{
		def("ping", "Pong!").MustBuild(),
		def("new", "New").MustBuild(),
	})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Empty(t, reg.Journal())

	got := []Action{}
	for _, s := range report.Steps {
		got = append(got, s.Action)
	}
	assert.Equal(t, []Action{ActionUnchanged, ActionCreate}, got)
	assert.Equal(t, "1", report.Steps[0].RemoteID)
}

func TestEchoedDefaultsAreUnchanged(t *testing.T) {
	reg := memory.New()
	reg.Seed(ports.Scope{}, ports.RemoteCommand{
		ID: "1", Name: "kick", Description: "Kick",
		Options: []map[string]any{{
			"name": "user", "description": "Who", "type": float64(6),
			"required": false, "autocomplete": nil, "choices": []any{},
		}},
	})
	r := newReconciler(reg, true)

	report, err := r.Apply(context.Background(), ports.Scope{}, []*command.Definition{
		def("kick", "Kick").Options([]command.OptionSpec{
			{Name: "user", Description: "Who", Attrs: map[string]any{"type": int64(6)}},
		}).MustBuild(),
	})
	require.NoError(t, err)
	assert.Equal(t, ActionUnchanged, report.Steps[0].Action)
}

func TestOptionOrder(t *testing.T) {
	remote := []map[string]any{
		{"name": "b", "description": "B"},
		{"name": "a", "description": "A"},
	}
	local := def("x", "X").Options([]command.OptionSpec{
		{Name: "a", Description: "A"},
		{Name: "b", Description: "B"},
	}).MustBuild()

	for _, tt := range []struct {
		orderSensitive bool
		want           Action
	}{
		{true, ActionEdit},
		{false, ActionUnchanged},
	} {
		reg := memory.New()
		reg.Seed(ports.Scope{}, ports.RemoteCommand{ID: "1", Name: "x", Description: "X", Options: remote})
		report, err := newReconciler(reg, tt.orderSensitive).Plan(context.Background(), ports.Scope{}, []*command.Definition{local})
		require.NoError(t, err)
		assert.Equal(t, tt.want, report.Steps[0].Action, "orderSensitive=%v", tt.orderSensitive)
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"int vs float", 3, float64(3), true},
		{"different numbers", 3, 4, false},
		{"missing bool", nil, false, true},
		{"missing true", nil, true, false},
		{"nested choices", []map[string]any{{"name": "x", "value": 1}}, []any{map[string]any{"name": "x", "value": float64(1)}}, true},
		{"choices order", []any{"a", "b"}, []any{"b", "a"}, false},
		{"strings slice", []string{"a"}, []any{"a"}, true},
		{"type mismatch", "1", 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valueEqual(tt.a, tt.b))
		})
	}
}

func TestConcurrentApplySerialized(t *testing.T) {
	reg := memory.New()
	r := newReconciler(reg, true)
	defs := []*command.Definition{def("ping", "Pong!").MustBuild()}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Apply(context.Background(), ports.Scope{}, defs)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, reg.Journal(), 1)
	assert.Len(t, reg.Records(ports.Scope{}), 1)
}

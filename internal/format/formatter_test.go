package format

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/cristianoliveira/cmdsync/internal/ports"
	"github.com/cristianoliveira/cmdsync/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *command.Invocation) error { return nil }

func sampleDefs() []*command.Definition {
	return []*command.Definition{
		command.New().Name("ping").Description("Pong!").Behavior(noop).MustBuild().WithOrigin("general", "builtin"),
		command.New().Name("stats").Description("Show stats").PrefixBehavior(noop).PrefixOnly(true).DevsOnly(true).MustBuild(),
	}
}

func sampleReport() *reconcile.Report {
	return &reconcile.Report{
		Scope: ports.Scope{Target: "42"},
		Steps: []reconcile.Step{
			{Action: reconcile.ActionCreate, Name: "ping"},
			{Action: reconcile.ActionEdit, Name: "roll", RemoteID: "7", Changes: []string{"description"}},
			{Action: reconcile.ActionSkip, Name: "stats", Reason: reconcile.SkipPrefixOnly},
		},
		Failures: []reconcile.Failure{
			{Step: reconcile.Step{Action: reconcile.ActionEdit, Name: "roll", RemoteID: "7"}, Err: errors.New("boom")},
		},
	}
}

func TestFormatterFactory(t *testing.T) {
	tests := []struct {
		name     string
		ftype    FormatterType
		expected interface{}
	}{
		{"Table", FormatterTypeTable, &TableFormatter{}},
		{"Simple", FormatterTypeSimple, &SimpleFormatter{}},
		{"JSON", FormatterTypeJSON, &JSONFormatter{}},
		{"Unknown", FormatterType("unknown"), &TableFormatter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.IsType(t, tt.expected, NewFormatter(tt.ftype))
		})
	}
}

func TestFlagsAndModes(t *testing.T) {
	defs := sampleDefs()
	assert.Empty(t, Flags(defs[0]))
	assert.Equal(t, []string{"prefix", "slash"}, Modes(defs[0]))
	assert.Equal(t, []string{"devs-only", "prefix-only"}, Flags(defs[1]))
	assert.Equal(t, []string{"prefix"}, Modes(defs[1]))
}

func TestSimpleFormatter(t *testing.T) {
	f := NewSimpleFormatter()
	var buf bytes.Buffer
	require.NoError(t, f.FormatCommands(sampleDefs(), &buf))
	assert.Equal(t, "ping - Pong!\nstats - Show stats [devs-only,prefix-only]\n", buf.String())

	buf.Reset()
	require.NoError(t, f.FormatReport(sampleReport(), &buf))
	out := buf.String()
	assert.Contains(t, out, "create ping\n")
	assert.Contains(t, out, "edit roll (description)\n")
	assert.Contains(t, out, "skip stats (prefix-only)\n")
	assert.Contains(t, out, "failed roll: boom\n")
	assert.Contains(t, out, "42: 1 created, 0 edited, 0 deleted, 0 unchanged, 1 skipped, 1 failed")
}

func TestSimpleFormatterDryRunSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSimpleFormatter().FormatReport(&reconcile.Report{DryRun: true}, &buf))
	assert.Equal(t, "(dry run) global: 0 created, 0 edited, 0 deleted, 0 unchanged, 0 skipped, 0 failed\n", buf.String())
}

func TestJSONFormatter(t *testing.T) {
	f := NewJSONFormatter()
	var buf bytes.Buffer
	require.NoError(t, f.FormatCommands(sampleDefs(), &buf))

	var cmds []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &cmds))
	require.Len(t, cmds, 2)
	assert.Equal(t, "ping", cmds[0]["name"])
	assert.Equal(t, "general", cmds[0]["category"])
	assert.NotContains(t, cmds[0], "flags")

	buf.Reset()
	require.NoError(t, f.FormatReport(sampleReport(), &buf))
	var rep struct {
		Scope  string `json:"scope"`
		Steps  []map[string]any
		Counts reconcile.Counts
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	assert.Equal(t, "42", rep.Scope)
	require.Len(t, rep.Steps, 3)
	assert.Equal(t, "boom", rep.Steps[1]["error"])
	assert.Equal(t, 1, rep.Counts.Failed)
}

func TestTableFormatterCommands(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().FormatCommands(sampleDefs(), &buf))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Name")
	assert.Contains(t, lines[0], "Description")
	assert.Contains(t, lines[1], "----")
	assert.True(t, strings.HasPrefix(lines[2], "ping "))
	assert.Contains(t, lines[2], "general")
	assert.Contains(t, lines[2], "prefix,slash")
	assert.Contains(t, lines[3], "devs-only,prefix-only")
}

func TestTableFormatterEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().FormatCommands(nil, &buf))
	assert.Empty(t, buf.String())
}

func TestTableFormatterReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().FormatReport(sampleReport(), &buf))
	out := buf.String()
	assert.Contains(t, out, "Remote ID")
	assert.Contains(t, out, "prefix-only")
	assert.Contains(t, out, "failed roll: boom")
	assert.True(t, strings.HasSuffix(out, "42: 1 created, 0 edited, 0 deleted, 0 unchanged, 1 skipped, 1 failed\n"))
}

// Package format renders command sets and reconciliation reports for the CLI.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/cristianoliveira/cmdsync/internal/reconcile"
)

// Formatter defines the interface for output formatters.
type Formatter interface {
	// FormatCommands writes the desired-state command set.
	FormatCommands(defs []*command.Definition, writer io.Writer) error

	// FormatReport writes the outcome of a reconciliation run.
	FormatReport(report *reconcile.Report, writer io.Writer) error
}

// FormatterType represents the type of formatter to use.
type FormatterType string

const (
	// FormatterTypeTable displays columns with headers.
	FormatterTypeTable FormatterType = "table"

	// FormatterTypeSimple displays one line per item.
	FormatterTypeSimple FormatterType = "simple"

	// FormatterTypeJSON displays items as JSON.
	FormatterTypeJSON FormatterType = "json"
)

// NewFormatter creates a new formatter of the specified type.
func NewFormatter(formatterType FormatterType) Formatter {
	switch formatterType {
	case FormatterTypeSimple:
		return NewSimpleFormatter()
	case FormatterTypeJSON:
		return NewJSONFormatter()
	default:
		return NewTableFormatter()
	}
}

// Flags lists the access and lifecycle flags set on def.
func Flags(def *command.Definition) []string {
	var flags []string
	if def.TestingPhase() {
		flags = append(flags, "testing")
	}
	if def.DevsOnly() {
		flags = append(flags, "devs-only")
	}
	if def.PrefixOnly() {
		flags = append(flags, "prefix-only")
	}
	if def.Deleted() {
		flags = append(flags, "deleted")
	}
	return flags
}

// Modes lists the invocation modes def has a bound behavior for.
func Modes(def *command.Definition) []string {
	var modes []string
	if def.Bound(command.ModePrefix) {
		modes = append(modes, command.ModePrefix.String())
	}
	if def.Bound(command.ModeSlash) && !def.PrefixOnly() {
		modes = append(modes, command.ModeSlash.String())
	}
	return modes
}

// stepDetail is the free-form column of a report step.
func stepDetail(s reconcile.Step) string {
	switch {
	case s.Reason != "":
		return string(s.Reason)
	case len(s.Changes) > 0:
		return strings.Join(s.Changes, ",")
	}
	return ""
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}

// SimpleFormatter prints one line per command or step.
type SimpleFormatter struct{}

// NewSimpleFormatter creates a new SimpleFormatter.
func NewSimpleFormatter() *SimpleFormatter {
	return &SimpleFormatter{}
}

func (f *SimpleFormatter) FormatCommands(defs []*command.Definition, writer io.Writer) error {
	for _, def := range defs {
		line := fmt.Sprintf("%s - %s", def.Name(), def.Description())
		if flags := Flags(def); len(flags) > 0 {
			line += " [" + strings.Join(flags, ",") + "]"
		}
		if _, err := fmt.Fprintln(writer, line); err != nil {
			return err
		}
	}
	return nil
}

func (f *SimpleFormatter) FormatReport(report *reconcile.Report, writer io.Writer) error {
	for _, s := range report.Steps {
		line := fmt.Sprintf("%s %s", s.Action, s.Name)
		if d := stepDetail(s); d != "" {
			line += " (" + d + ")"
		}
		if _, err := fmt.Fprintln(writer, line); err != nil {
			return err
		}
	}
	for _, fail := range report.Failures {
		if _, err := fmt.Fprintf(writer, "failed %s: %v\n", fail.Step.Name, fail.Err); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(writer, summary(report))
	return err
}

func summary(report *reconcile.Report) string {
	prefix := ""
	if report.DryRun {
		prefix = "(dry run) "
	}
	return fmt.Sprintf("%s%s: %s", prefix, report.Scope.String(), report.Counts().String())
}

// JSONFormatter writes indented JSON documents.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

type jsonCommand struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    string           `json:"category,omitempty"`
	Source      string           `json:"source,omitempty"`
	Flags       []string         `json:"flags,omitempty"`
	Modes       []string         `json:"modes,omitempty"`
	Options     []map[string]any `json:"options,omitempty"`
}

type jsonStep struct {
	Action   string   `json:"action"`
	Name     string   `json:"name"`
	RemoteID string   `json:"remote_id,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	Changes  []string `json:"changes,omitempty"`
	Error    string   `json:"error,omitempty"`
}

type jsonReport struct {
	Scope  string           `json:"scope"`
	DryRun bool             `json:"dry_run"`
	Steps  []jsonStep       `json:"steps"`
	Counts reconcile.Counts `json:"counts"`
}

func (f *JSONFormatter) FormatCommands(defs []*command.Definition, writer io.Writer) error {
	out := make([]jsonCommand, 0, len(defs))
	for _, def := range defs {
		out = append(out, jsonCommand{
			Name:        def.Name(),
			Description: def.Description(),
			Category:    def.Category(),
			Source:      def.Source(),
			Flags:       Flags(def),
			Modes:       Modes(def),
			Options:     def.OptionPayloads(),
		})
	}
	return encode(writer, out)
}

func (f *JSONFormatter) FormatReport(report *reconcile.Report, writer io.Writer) error {
	failed := make(map[string]error, len(report.Failures))
	for _, fail := range report.Failures {
		failed[fail.Step.Name] = fail.Err
	}
	out := jsonReport{
		Scope:  report.Scope.String(),
		DryRun: report.DryRun,
		Steps:  make([]jsonStep, 0, len(report.Steps)),
		Counts: report.Counts(),
	}
	for _, s := range report.Steps {
		js := jsonStep{
			Action:   string(s.Action),
			Name:     s.Name,
			RemoteID: s.RemoteID,
			Reason:   string(s.Reason),
			Changes:  s.Changes,
		}
		if err, ok := failed[s.Name]; ok && s.Mutates() {
			js.Error = err.Error()
		}
		out.Steps = append(out.Steps, js)
	}
	return encode(writer, out)
}

func encode(writer io.Writer, v any) error {
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

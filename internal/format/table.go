package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/cristianoliveira/cmdsync/internal/reconcile"
)

// TableConfig holds configuration for table formatting.
type TableConfig struct {
	// ShowHeaders determines whether to show column headers.
	ShowHeaders bool

	// HeaderStyle renders the header and separator rows.
	HeaderStyle lipgloss.Style

	// ColumnWidths defines the width for each column.
	ColumnWidths map[string]int
}

// DefaultTableConfig returns a default table configuration.
func DefaultTableConfig() *TableConfig {
	return &TableConfig{
		ShowHeaders: true,
		HeaderStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4")),
		ColumnWidths: map[string]int{
			"Name":        20,
			"Category":    12,
			"Modes":       12,
			"Flags":       24,
			"Description": 40,
			"Action":      10,
			"Remote ID":   20,
			"Detail":      24,
		},
	}
}

// TableColumn represents a column in a table.
type TableColumn[T any] struct {
	// Name is the column name displayed in the header.
	Name string

	// Width is the column width in characters.
	Width int

	// Extractor extracts the cell value from a row.
	Extractor func(T) string
}

// TableFormatter renders commands and reports as aligned columns.
type TableFormatter struct {
	config *TableConfig
}

// NewTableFormatter creates a new TableFormatter with the default config.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{config: DefaultTableConfig()}
}

// WithConfig replaces the table configuration.
func (f *TableFormatter) WithConfig(config *TableConfig) *TableFormatter {
	f.config = config
	return f
}

func (f *TableFormatter) column(name string) int {
	if w, ok := f.config.ColumnWidths[name]; ok && w > 0 {
		return w
	}
	return len(name)
}

func (f *TableFormatter) commandColumns() []TableColumn[*command.Definition] {
	return []TableColumn[*command.Definition]{
		{Name: "Name", Width: f.column("Name"), Extractor: (*command.Definition).Name},
		{Name: "Category", Width: f.column("Category"), Extractor: (*command.Definition).Category},
		{Name: "Modes", Width: f.column("Modes"), Extractor: func(d *command.Definition) string { return joinOrDash(Modes(d)) }},
		{Name: "Flags", Width: f.column("Flags"), Extractor: func(d *command.Definition) string { return joinOrDash(Flags(d)) }},
		{Name: "Description", Width: f.column("Description"), Extractor: (*command.Definition).Description},
	}
}

func (f *TableFormatter) stepColumns() []TableColumn[reconcile.Step] {
	return []TableColumn[reconcile.Step]{
		{Name: "Action", Width: f.column("Action"), Extractor: func(s reconcile.Step) string { return string(s.Action) }},
		{Name: "Name", Width: f.column("Name"), Extractor: func(s reconcile.Step) string { return s.Name }},
		{Name: "Remote ID", Width: f.column("Remote ID"), Extractor: func(s reconcile.Step) string {
			if s.RemoteID == "" {
				return "-"
			}
			return s.RemoteID
		}},
		{Name: "Detail", Width: f.column("Detail"), Extractor: stepDetail},
	}
}

// FormatCommands writes one row per definition.
func (f *TableFormatter) FormatCommands(defs []*command.Definition, writer io.Writer) error {
	if len(defs) == 0 {
		return nil
	}
	return writeTable(writer, f.config, f.commandColumns(), defs)
}

// FormatReport writes one row per step, then failures and a summary line.
func (f *TableFormatter) FormatReport(report *reconcile.Report, writer io.Writer) error {
	if len(report.Steps) > 0 {
		if err := writeTable(writer, f.config, f.stepColumns(), report.Steps); err != nil {
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

func writeTable[T any](writer io.Writer, config *TableConfig, columns []TableColumn[T], rows []T) error {
	if config.ShowHeaders {
		headers := make([]string, len(columns))
		separators := make([]string, len(columns))
		for i, col := range columns {
			headers[i] = formatString(col.Name, col.Width)
			separators[i] = makeSeparator(col.Width)
		}
		if _, err := fmt.Fprintln(writer, config.HeaderStyle.Render(strings.Join(headers, "  "))); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(writer, config.HeaderStyle.Render(strings.Join(separators, "  "))); err != nil {
			return err
		}
	}
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = truncateString(col.Extractor(row), col.Width)
		}
		line := strings.TrimRight(strings.Join(cells, "  "), " ")
		if _, err := fmt.Fprintln(writer, line); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

// formatString pads or cuts s to exactly width display cells.
func formatString(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return cut(s, width)
	}
	return s + strings.Repeat(" ", width-w)
}

// truncateString fits s into width cells, adding "..." if truncated.
func truncateString(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return formatString(s, width)
	}
	if width < 3 {
		return cut(s, width)
	}
	return formatString(cut(s, width-3)+"...", width)
}

func cut(s string, width int) string {
	var b strings.Builder
	used := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if used+rw > width {
			break
		}
		b.WriteRune(r)
		used += rw
	}
	return b.String()
}

// makeSeparator creates a separator line of the specified width.
func makeSeparator(width int) string {
	return strings.Repeat("-", width)
}

// Package colors provides styled console output for the CLI.
//
// Every message is mirrored to an optional structured logger so console
// output and the log file tell the same story.
package colors

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const checkmark = "✓"

// Styles used for each message kind. Exported so table renderers share them.
var (
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	DebugStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	MutedStyle   = lipgloss.NewStyle().Faint(true)
)

// Logger defines the interface for structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var (
	mu           sync.RWMutex
	debugEnabled = false
	logger       Logger
	stdout       io.Writer = os.Stdout
	stderr       io.Writer = os.Stderr
)

func init() {
	if val := os.Getenv("CMDSYNC_DEBUG"); val == "true" || val == "1" {
		debugEnabled = true
	}
}

// SetDebug enables or disables debug output.
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	debugEnabled = enabled
}

// SetLogger sets the structured logger to mirror console output.
func SetLogger(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// SetOutput redirects console output. Nil restores the process streams.
func SetOutput(out, errOut io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	stdout, stderr = out, errOut
}

func current() (Logger, io.Writer, io.Writer, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return logger, stdout, stderr, debugEnabled
}

// write prints a line; a failed console write falls back to a bare stderr write.
func write(w io.Writer, line string) {
	if _, err := fmt.Fprintln(w, line); err != nil {
		fmt.Fprintf(os.Stderr, "failed to print message: %v\n", err)
	}
}

// Error outputs an error message to stderr.
func Error(msgs ...string) {
	msg := strings.Join(msgs, " ")
	l, _, errOut, _ := current()
	if l != nil {
		l.Error(msg)
	}
	write(errOut, ErrorStyle.Render("Error:")+" "+msg)
}

// Success outputs a success message to stdout.
func Success(msgs ...string) {
	msg := strings.Join(msgs, " ")
	l, out, _, _ := current()
	if l != nil {
		l.Info(msg, "type", "success")
	}
	write(out, SuccessStyle.Render(checkmark)+" "+msg)
}

// Warning outputs a warning message to stderr.
func Warning(msgs ...string) {
	msg := strings.Join(msgs, " ")
	l, _, errOut, _ := current()
	if l != nil {
		l.Warn(msg)
	}
	write(errOut, WarningStyle.Render("Warning:")+" "+msg)
}

// Info outputs an informational message to stdout.
func Info(msgs ...string) {
	msg := strings.Join(msgs, " ")
	l, out, _, _ := current()
	if l != nil {
		l.Info(msg)
	}
	write(out, InfoStyle.Render(msg))
}

// LogInfo outputs an informational message to stderr, keeping stdout clean
// for machine-readable output.
func LogInfo(msgs ...string) {
	msg := strings.Join(msgs, " ")
	l, _, errOut, _ := current()
	if l != nil {
		l.Info(msg)
	}
	write(errOut, InfoStyle.Render(msg))
}

// Debug outputs a debug message to stderr if debug is enabled.
func Debug(msgs ...string) {
	l, _, errOut, enabled := current()
	if !enabled {
		return
	}
	msg := strings.Join(msgs, " ")
	if l != nil {
		l.Debug(msg)
	}
	write(errOut, DebugStyle.Render("Debug:")+" "+msg)
}

// Package ports defines application boundary interfaces used by core services.
package ports

import (
	"context"
	"fmt"
	"strings"
)

// Registry operation names, used in RegistryError and failure injection.
const (
	OpFetch  = "fetch"
	OpCreate = "create"
	OpEdit   = "edit"
	OpDelete = "delete"
)

// Scope selects the registry partition commands are registered in. The zero
// value is the global scope; a non-empty Target is one deployment target
// (for example a single guild).
type Scope struct {
	Target string
}

// Global reports whether the scope addresses the global registry.
func (s Scope) Global() bool { return s.Target == "" }

func (s Scope) String() string {
	if s.Global() {
		return "global"
	}
	return s.Target
}

// RemoteCommand is the registry's current record for a command.
type RemoteCommand struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Options     []map[string]any `json:"options,omitempty"`
}

// CommandPayload is the body sent on create and edit. Name is ignored on edit.
type CommandPayload struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Options     []map[string]any `json:"options"`
}

// CommandRegistry is the remote authoritative command registry.
//
// FetchAll failures are fatal to a reconciliation run; Create, Edit and
// Delete failures are per-item.
type CommandRegistry interface {
	FetchAll(ctx context.Context, scope Scope) ([]RemoteCommand, error)
	Create(ctx context.Context, scope Scope, payload CommandPayload) (RemoteCommand, error)
	Edit(ctx context.Context, scope Scope, id string, payload CommandPayload) (RemoteCommand, error)
	Delete(ctx context.Context, scope Scope, id string) error
}

// RegistryError wraps a failed registry call.
type RegistryError struct {
	Op    string
	Scope Scope
	Name  string
	ID    string
	Err   error
}

func (e *RegistryError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "registry %s (scope %s", e.Op, e.Scope)
	if e.Name != "" {
		fmt.Fprintf(&b, ", command %q", e.Name)
	}
	if e.ID != "" {
		fmt.Fprintf(&b, ", id %s", e.ID)
	}
	fmt.Fprintf(&b, "): %v", e.Err)
	return b.String()
}

func (e *RegistryError) Unwrap() error { return e.Err }

// ConfigProvider defines config reads used by the application layer.
type ConfigProvider interface {
	GetConfigBool(key string, defaultValue bool) bool
	GetConfigString(key, defaultValue string) string
	GetConfigInt(key string, defaultValue int) int
	GetConfigList(key string) []string
}

// Package sqlite provides a SQLite-backed command registry.
//
// It stands in for a remote registry when the operator wants reconciliation
// to target a local file, and keeps a version counter per record that is
// bumped on every edit.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cristianoliveira/cmdsync/internal/ports"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	// ErrCommandNotFound indicates that no record has the given ID in the scope.
	ErrCommandNotFound = errors.New("command not found")
	// ErrCommandExists indicates a create for a name already present in the scope.
	ErrCommandExists = errors.New("command already exists")
)

// Registry implements ports.CommandRegistry on a SQLite file.
type Registry struct {
	db *sql.DB
}

var _ ports.CommandRegistry = (*Registry)(nil)

// Open creates or opens the registry database at dbPath.
func Open(dbPath string) (*Registry, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("sqlite registry: db path cannot be empty")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite registry: create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite registry: open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	r := &Registry{db: db}
	if err := r.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the underlying SQLite connection.
func (r *Registry) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Registry) init() error {
	if _, err := r.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("sqlite registry: set busy timeout: %w", err)
	}
	if _, err := r.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("sqlite registry: create schema: %w", err)
	}
	return nil
}

// FetchAll returns every record in scope ordered by name.
func (r *Registry) FetchAll(ctx context.Context, scope ports.Scope) ([]ports.RemoteCommand, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, options_json FROM remote_commands WHERE scope = ? ORDER BY name`,
		scope.Target)
	if err != nil {
		return nil, &ports.RegistryError{Op: ports.OpFetch, Scope: scope, Err: err}
	}
	defer rows.Close()

	var out []ports.RemoteCommand
	for rows.Next() {
		var rec ports.RemoteCommand
		var optionsJSON string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Description, &optionsJSON); err != nil {
			return nil, &ports.RegistryError{Op: ports.OpFetch, Scope: scope, Err: err}
		}
		if rec.Options, err = decodeOptions(optionsJSON); err != nil {
			return nil, &ports.RegistryError{Op: ports.OpFetch, Scope: scope, Name: rec.Name, ID: rec.ID, Err: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &ports.RegistryError{Op: ports.OpFetch, Scope: scope, Err: err}
	}
	return out, nil
}

// Create inserts a new record with a generated UUID.
func (r *Registry) Create(ctx context.Context, scope ports.Scope, payload ports.CommandPayload) (ports.RemoteCommand, error) {
	wrap := func(err error) error {
		return &ports.RegistryError{Op: ports.OpCreate, Scope: scope, Name: payload.Name, Err: err}
	}
	optionsJSON, err := encodeOptions(payload.Options)
	if err != nil {
		return ports.RemoteCommand{}, wrap(err)
	}

	var exists int
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM remote_commands WHERE scope = ? AND lower(name) = lower(?)`,
		scope.Target, payload.Name).Scan(&exists)
	if err != nil {
		return ports.RemoteCommand{}, wrap(err)
	}
	if exists > 0 {
		return ports.RemoteCommand{}, wrap(ErrCommandExists)
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO remote_commands (id, scope, name, description, options_json, version, updated_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?)`,
		id, scope.Target, payload.Name, payload.Description, optionsJSON, utcNow())
	if err != nil {
		return ports.RemoteCommand{}, wrap(err)
	}
	return ports.RemoteCommand{
		ID:          id,
		Name:        payload.Name,
		Description: payload.Description,
		Options:     payload.Options,
	}, nil
}

// Edit replaces description and options of an existing record and bumps its version.
func (r *Registry) Edit(ctx context.Context, scope ports.Scope, id string, payload ports.CommandPayload) (ports.RemoteCommand, error) {
	wrap := func(err error) error {
		return &ports.RegistryError{Op: ports.OpEdit, Scope: scope, ID: id, Name: payload.Name, Err: err}
	}
	optionsJSON, err := encodeOptions(payload.Options)
	if err != nil {
		return ports.RemoteCommand{}, wrap(err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE remote_commands
		 SET description = ?, options_json = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND scope = ?`,
		payload.Description, optionsJSON, utcNow(), id, scope.Target)
	if err != nil {
		return ports.RemoteCommand{}, wrap(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return ports.RemoteCommand{}, wrap(err)
	} else if n == 0 {
		return ports.RemoteCommand{}, wrap(ErrCommandNotFound)
	}

	var rec ports.RemoteCommand
	var stored string
	err = r.db.QueryRowContext(ctx,
		`SELECT id, name, description, options_json FROM remote_commands WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Name, &rec.Description, &stored)
	if err != nil {
		return ports.RemoteCommand{}, wrap(err)
	}
	if rec.Options, err = decodeOptions(stored); err != nil {
		return ports.RemoteCommand{}, wrap(err)
	}
	return rec, nil
}

// Delete removes the record with id from scope.
func (r *Registry) Delete(ctx context.Context, scope ports.Scope, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM remote_commands WHERE id = ? AND scope = ?`, id, scope.Target)
	if err != nil {
		return &ports.RegistryError{Op: ports.OpDelete, Scope: scope, ID: id, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &ports.RegistryError{Op: ports.OpDelete, Scope: scope, ID: id, Err: err}
	}
	if n == 0 {
		return &ports.RegistryError{Op: ports.OpDelete, Scope: scope, ID: id, Err: ErrCommandNotFound}
	}
	return nil
}

func encodeOptions(opts []map[string]any) (string, error) {
	if opts == nil {
		opts = []map[string]any{}
	}
	data, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("encode options: %w", err)
	}
	return string(data), nil
}

func decodeOptions(raw string) ([]map[string]any, error) {
	var opts []map[string]any
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	if len(opts) == 0 {
		return nil, nil
	}
	return opts, nil
}

func utcNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}

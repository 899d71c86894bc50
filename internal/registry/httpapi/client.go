// Package httpapi is a REST client for a Discord-style application-commands API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cristianoliveira/cmdsync/internal/ports"
	"github.com/cristianoliveira/cmdsync/internal/version"
)

const maxErrorBody = 512

// StatusError is a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Client implements ports.CommandRegistry over HTTP.
type Client struct {
	cfg  Config
	http *http.Client
}

var _ ports.CommandRegistry = (*Client)(nil)

// New returns a client for cfg. A nil httpClient uses one with cfg.Timeout.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: httpClient}, nil
}

func (c *Client) collection(scope ports.Scope) string {
	app := url.PathEscape(c.cfg.ApplicationID)
	if scope.Global() {
		return "/applications/" + app + "/commands"
	}
	return "/applications/" + app + "/guilds/" + url.PathEscape(scope.Target) + "/commands"
}

func (c *Client) FetchAll(ctx context.Context, scope ports.Scope) ([]ports.RemoteCommand, error) {
	var out []ports.RemoteCommand
	if err := c.do(ctx, http.MethodGet, c.collection(scope), nil, &out); err != nil {
		return nil, &ports.RegistryError{Op: ports.OpFetch, Scope: scope, Err: err}
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, scope ports.Scope, payload ports.CommandPayload) (ports.RemoteCommand, error) {
	var out ports.RemoteCommand
	if err := c.do(ctx, http.MethodPost, c.collection(scope), payload, &out); err != nil {
		return ports.RemoteCommand{}, &ports.RegistryError{Op: ports.OpCreate, Scope: scope, Name: payload.Name, Err: err}
	}
	return out, nil
}

func (c *Client) Edit(ctx context.Context, scope ports.Scope, id string, payload ports.CommandPayload) (ports.RemoteCommand, error) {
	body := struct {
		Description string           `json:"description"`
		Options     []map[string]any `json:"options"`
	}{payload.Description, payload.Options}
	if body.Options == nil {
		body.Options = []map[string]any{}
	}
	var out ports.RemoteCommand
	path := c.collection(scope) + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPatch, path, body, &out); err != nil {
		return ports.RemoteCommand{}, &ports.RegistryError{Op: ports.OpEdit, Scope: scope, Name: payload.Name, ID: id, Err: err}
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, scope ports.Scope, id string) error {
	path := c.collection(scope) + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return &ports.RegistryError{Op: ports.OpDelete, Scope: scope, ID: id, Err: err}
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.cfg.BotToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"
)

// LoadDir registers every executable file under root/<event>/ as a script
// handler keyed by its file name. It returns the number of scripts
// registered; a missing root registers nothing.
func (b *Bus) LoadDir(root string) (int, error) {
	events, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read events dir: %w", err)
	}

	count := 0
	for _, evDir := range events {
		if !evDir.IsDir() {
			continue
		}
		dir := filepath.Join(root, evDir.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return count, fmt.Errorf("read event dir %s: %w", dir, err)
		}
		sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			path := filepath.Join(dir, f.Name())
			info, err := os.Stat(path)
			if err != nil || info.Mode()&0111 == 0 {
				continue
			}
			s := &script{bus: b, path: path, name: f.Name()}
			if err := b.register(evDir.Name(), entry{key: f.Name(), handler: s.run, script: true}); err != nil {
				return count, err
			}
			b.logger.Debug("event script registered", "event", evDir.Name(), "handler", f.Name())
			count++
		}
	}
	return count, nil
}

type script struct {
	bus  *Bus
	path string
	name string
}

func (s *script) environ(ev Event) []string {
	env := os.Environ()
	env = append(env,
		"CMDSYNC_EVENT="+ev.Name,
		"CMDSYNC_EVENT_TIMESTAMP="+time.Now().Format(time.RFC3339),
		"CMDSYNC_EVENTS_FAILURE_MODE="+string(s.bus.opts.FailureMode),
	)
	if s.bus.opts.Binary != "" {
		env = append(env, "CMDSYNC_BINARY="+s.bus.opts.Binary)
	}
	for k, v := range ev.Env {
		env = append(env, k+"="+v)
	}
	return env
}

func stdinFor(ev Event) ([]byte, error) {
	if ev.Payload == nil {
		return nil, nil
	}
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

func (s *script) run(ctx context.Context, ev Event) error {
	stdin, err := stdinFor(ev)
	if err != nil {
		return err
	}
	if s.bus.opts.Async {
		s.start(ev, stdin)
		return nil
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, s.path)
	cmd.Env = s.environ(ev)
	cmd.Stdin = bytes.NewReader(stdin)
	output, err := cmd.CombinedOutput()
	logger := s.bus.logger.With("event", ev.Name, "handler", s.name)
	if len(output) > 0 {
		logger.Debug("event script output", "output", string(output))
	}
	if err != nil {
		return fmt.Errorf("script %s failed: %w, output: %s", s.name, err, bytes.TrimSpace(output))
	}
	logger.Debug("event script completed", "duration", time.Since(start).String())
	return nil
}

// start runs the script in the background, bounded by MaxPending and AsyncTimeout.
func (s *script) start(ev Event, stdin []byte) {
	b := s.bus
	logger := b.logger.With("event", ev.Name, "handler", s.name)

	b.pendingMu.Lock()
	if b.pendingCount >= b.opts.MaxPending {
		b.pendingMu.Unlock()
		logger.Warn("too many event scripts pending, skipping", "max", b.opts.MaxPending)
		return
	}
	b.pendingCount++
	b.pending.Add(1)
	b.pendingMu.Unlock()

	done := func() {
		b.pendingMu.Lock()
		b.pendingCount--
		b.pendingMu.Unlock()
		b.pending.Done()
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.opts.AsyncTimeout)
	cmd := exec.CommandContext(ctx, s.path)
	cmd.Env = s.environ(ev)
	cmd.Stdin = bytes.NewReader(stdin)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = time.Second
	if err := cmd.Start(); err != nil {
		cancel()
		done()
		if b.opts.FailureMode != FailIgnore {
			logger.Warn("async event script failed to start", "error", err.Error())
		}
		return
	}

	started := time.Now()
	go func() {
		defer done()
		defer cancel()
		err := cmd.Wait()
		duration := time.Since(started)
		if ctx.Err() == context.DeadlineExceeded {
			logger.Warn("async event script timed out", "duration", duration.String())
		}
		switch {
		case err != nil && b.opts.FailureMode != FailIgnore:
			logger.Warn("async event script failed", "error", err.Error(), "output", output.String())
		case err == nil:
			logger.Debug("async event script completed", "duration", duration.String())
		}
	}()
}

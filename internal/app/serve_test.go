package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/cristianoliveira/cmdsync/internal/ports"
	"github.com/cristianoliveira/cmdsync/internal/reconcile"
	"github.com/cristianoliveira/cmdsync/internal/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeUseCaseRoutesConsoleLines(t *testing.T) {
	f := newFixture(t, MapConfig{"dispatch_concurrency": "1"}, Options{Components: map[string]command.Behavior{
		"confirm": func(ctx context.Context, inv *command.Invocation) error { return inv.Reply(ctx, "confirmed") },
	}})
	in := strings.NewReader("!ping\n\n/roll\n@button:confirm:1\nnot a command\n")
	var buf bytes.Buffer

	err := NewServeUseCase(f.rt).Execute(context.Background(), ServeOptions{CallerID: "u1", Format: "simple", In: in}, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "global: 4 created")
	assert.True(t, strings.HasSuffix(out, "Pong!\n4\nconfirmed\n"), out)
	assert.Len(t, f.reg.Records(ports.Scope{}), 4)
}

func TestServeUseCaseNoSync(t *testing.T) {
	f := newFixture(t, nil, Options{})
	var buf bytes.Buffer
	err := NewServeUseCase(f.rt).Execute(context.Background(), ServeOptions{CallerID: "u1", NoSync: true, In: strings.NewReader("!ping\n")}, &buf)
	require.NoError(t, err)
	assert.Equal(t, "Pong!\n", buf.String())
	assert.Empty(t, f.reg.Journal())
}

func TestServeUseCaseValidatesOptions(t *testing.T) {
	uc := NewServeUseCase(&fakeServeClient{})
	require.Error(t, uc.Execute(context.Background(), ServeOptions{CallerID: "u1"}, &bytes.Buffer{}))
	require.Error(t, uc.Execute(context.Background(), ServeOptions{In: strings.NewReader("")}, &bytes.Buffer{}))
}

type fakeServeClient struct {
	mu          sync.Mutex
	lines       []string
	active      atomic.Int32
	maxActive   atomic.Int32
	limit       int
	readyErr    error
	watchDone   chan struct{}
	watchCalled atomic.Bool
	waited      atomic.Bool
}

func (f *fakeServeClient) Ready(ctx context.Context, skipSync bool) (*reconcile.Report, error) {
	return nil, f.readyErr
}

func (f *fakeServeClient) HandleLine(ctx context.Context, console *Console, callerID, line string) (router.Result, error) {
	n := f.active.Add(1)
	for {
		m := f.maxActive.Load()
		if n <= m || f.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	f.active.Add(-1)
	f.mu.Lock()
	f.lines = append(f.lines, line)
	f.mu.Unlock()
	return router.Result{Outcome: router.OutcomeInvoked}, nil
}

func (f *fakeServeClient) Watch(ctx context.Context) error {
	f.watchCalled.Store(true)
	<-ctx.Done()
	if f.watchDone != nil {
		close(f.watchDone)
	}
	return nil
}

func (f *fakeServeClient) DispatchConcurrency() int {
	if f.limit == 0 {
		return 8
	}
	return f.limit
}

func (f *fakeServeClient) WaitEvents() { f.waited.Store(true) }

func TestServeUseCaseBoundsConcurrency(t *testing.T) {
	client := &fakeServeClient{limit: 2}
	in := strings.NewReader(strings.Repeat("!ping\n", 10))
	require.NoError(t, NewServeUseCase(client).Execute(context.Background(), ServeOptions{CallerID: "u1", In: in}, &bytes.Buffer{}))

	assert.Len(t, client.lines, 10)
	assert.LessOrEqual(t, client.maxActive.Load(), int32(2))
	assert.True(t, client.waited.Load())
}

func TestServeUseCaseStopsWatcherAtEndOfInput(t *testing.T) {
	client := &fakeServeClient{watchDone: make(chan struct{}), readyErr: errors.New("registry offline")}
	err := NewServeUseCase(client).Execute(context.Background(), ServeOptions{CallerID: "u1", Watch: true, In: strings.NewReader("!ping\n")}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, client.watchCalled.Load())
	select {
	case <-client.watchDone:
	case <-time.After(time.Second):
		t.Fatal("watcher was not stopped")
	}
}

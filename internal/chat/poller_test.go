package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/autoglm/tui-go/internal/model"
)

func TestRunStatusPollerDrivesController(t *testing.T) {
	b := &fakeBackend{status: model.RunStatus{Running: true, Stopping: true}}
	c := newTestController(b)
	p := NewRunStatusPoller(c, 5*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		_, st := c.Snapshot()
		return st.Loading && st.Stopping
	}, time.Second, time.Millisecond)

	b.mu.Lock()
	b.status = model.RunStatus{}
	b.mu.Unlock()

	require.Eventually(t, func() bool {
		_, st := c.Snapshot()
		return !st.Loading && !st.Stopping
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestRunStatusPollerSkipsFailedPolls(t *testing.T) {
	b := &fakeBackend{status: model.RunStatus{Running: true}}
	c := newTestController(b)
	p := NewRunStatusPoller(c, 5*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	require.Eventually(t, func() bool {
		_, st := c.Snapshot()
		return st.Loading
	}, time.Second, time.Millisecond)

	// Poll failures leave the last snapshot in effect.
	b.mu.Lock()
	b.statusErr = errors.New("poll failed")
	b.mu.Unlock()

	time.Sleep(25 * time.Millisecond)
	_, st := c.Snapshot()
	require.True(t, st.Loading)
}

func TestNewRunStatusPollerDefaultsInterval(t *testing.T) {
	p := NewRunStatusPoller(newTestController(&fakeBackend{}), 0, nil)
	require.Equal(t, RunStatusInterval, p.interval)
}

func TestDevicePollerAppliesSnapshots(t *testing.T) {
	var mu sync.Mutex
	var got []string
	p := NewDevicePoller(
		func(context.Context) ([]string, error) {
			return []string{"emulator-5554", "R5CT12ABCDE"}, nil
		},
		func(devices []string) {
			mu.Lock()
			got = devices
			mu.Unlock()
		},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	p.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, time.Millisecond)
}

func TestDevicePollerSkipsFailedFetch(t *testing.T) {
	applied := make(chan []string, 1)
	p := NewDevicePoller(
		func(context.Context) ([]string, error) { return nil, errors.New("adb offline") },
		func(devices []string) { applied <- devices },
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	p.interval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	select {
	case <-applied:
		t.Fatal("failed fetches must not reach the sink")
	default:
	}
}

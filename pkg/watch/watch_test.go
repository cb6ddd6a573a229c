package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "mgi.gpad")
	other := filepath.Join(dir, "other.gpad")
	require.NoError(t, os.WriteFile(watched, []byte("!gpad-version: 1.2\n"), 0o644))

	var calls atomic.Int32
	changed := make(chan string, 4)
	watcher, err := New([]string{watched}, func(_ context.Context, path string) {
		calls.Add(1)
		changed <- path
	}, discardLogger())
	require.NoError(t, err)
	watcher.SetDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(watched, []byte("!gpad-version: 1.2\n"), 0o644))
	}

	select {
	case path := <-changed:
		absolute, _ := filepath.Abs(watched)
		assert.Equal(t, absolute, path)
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification")
	}

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	watcher, err := New([]string{filepath.Join(t.TempDir(), "missing", "file.gaf")}, func(context.Context, string) {}, discardLogger())
	require.NoError(t, err)

	err = watcher.Run(context.Background())
	assert.Error(t, err)
}

func TestWatcherResetDuringFireRunsOnce(t *testing.T) {
	var calls atomic.Int32
	watcher, err := New([]string{"mgi.gpad"}, func(context.Context, string) {
		calls.Add(1)
	}, discardLogger())
	require.NoError(t, err)
	watcher.SetDebounce(20 * time.Millisecond)

	ctx := context.Background()
	path, err := filepath.Abs("mgi.gpad")
	require.NoError(t, err)

	watcher.schedule(ctx, path)

	// Let the timer fire while the lock is held, then re-arm it the way a
	// second event would.
	watcher.mu.Lock()
	time.Sleep(60 * time.Millisecond)
	watcher.scheduleLocked(ctx, path)
	watcher.mu.Unlock()

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	watcher.mu.Lock()
	defer watcher.mu.Unlock()
	assert.Empty(t, watcher.timers)
}

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourceisview/siv/internal/exclude"
)

func startWatcher(t *testing.T, root string, patterns []string) <-chan []string {
	t.Helper()

	changes := make(chan []string, 16)
	w, err := New(root, []string{".swift"}, exclude.NewMatcher(patterns, nil), func(paths []string) {
		changes <- paths
	})
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return changes
}

func waitForChange(t *testing.T, changes <-chan []string) []string {
	t.Helper()
	select {
	case paths := <-changes:
		return paths
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
		return nil
	}
}

func TestWatcherReportsSwiftWrites(t *testing.T) {
	root := t.TempDir()
	changes := startWatcher(t, root, nil)

	path := filepath.Join(root, "Box.swift")
	require.NoError(t, os.WriteFile(path, []byte("struct Box {}\n"), 0644))

	assert.Equal(t, []string{path}, waitForChange(t, changes))
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	changes := startWatcher(t, root, []string{"*.generated.swift"})

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Model.generated.swift"), []byte("x"), 0644))

	path := filepath.Join(root, "App.swift")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	assert.Equal(t, []string{path}, waitForChange(t, changes))
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	changes := startWatcher(t, root, nil)

	dir := filepath.Join(root, "Sources")
	require.NoError(t, os.Mkdir(dir, 0755))
	// Give the watcher a moment to add the new directory
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "Box.swift")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	assert.Contains(t, waitForChange(t, changes), path)
}

func TestWatcherSerializesCallbacks(t *testing.T) {
	root := t.TempDir()

	var inFlight, maxInFlight, calls int32
	started := make(chan struct{}, 16)
	changes := make(chan []string, 16)
	w, err := New(root, []string{".swift"}, exclude.NewMatcher(nil, nil), func(paths []string) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			peak := atomic.LoadInt32(&maxInFlight)
			if n <= peak || atomic.CompareAndSwapInt32(&maxInFlight, peak, n) {
				break
			}
		}
		atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		time.Sleep(200 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		changes <- paths
	})
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	first := filepath.Join(root, "A.swift")
	require.NoError(t, os.WriteFile(first, []byte("x"), 0644))
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first callback")
	}

	// Both writes land while the first callback is still running
	second := filepath.Join(root, "B.swift")
	require.NoError(t, os.WriteFile(second, []byte("x"), 0644))
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, os.WriteFile(second, []byte("y"), 0644))

	assert.Equal(t, []string{first}, waitForChange(t, changes))
	assert.Equal(t, []string{second}, waitForChange(t, changes))
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))

	third := filepath.Join(root, "C.swift")
	require.NoError(t, os.WriteFile(third, []byte("x"), 0644))
	cancel()
	<-done

	after := atomic.LoadInt32(&calls)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&calls))
	assert.Zero(t, atomic.LoadInt32(&inFlight))
}

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	assert.True(t, relevant(fsnotify.Event{Name: "Badge.types.ts", Op: fsnotify.Write}))
	assert.True(t, relevant(fsnotify.Event{Name: "Badge.stories.tsx", Op: fsnotify.Create}))
	assert.True(t, relevant(fsnotify.Event{Name: "package.json", Op: fsnotify.Remove}))
	assert.False(t, relevant(fsnotify.Event{Name: "notes.md", Op: fsnotify.Write}))
	assert.False(t, relevant(fsnotify.Event{Name: "Badge.types.ts", Op: fsnotify.Chmod}))
}

func TestIgnoredPath(t *testing.T) {
	w := NewWatcher(".", []string{"node_modules", ".git"}, 0, nil)
	assert.True(t, w.ignoredPath(filepath.FromSlash("lib/node_modules/react/index.ts")))
	assert.True(t, w.ignoredPath(filepath.FromSlash(".git/HEAD")))
	assert.False(t, w.ignoredPath(filepath.FromSlash("packages/react-badge/src/index.ts")))
}

func TestWatchSurvivesRunFailure(t *testing.T) {
	root := t.TempDir()
	ran := make(chan int, 4)
	calls := 0

	w := NewWatcher(root, nil, 50*time.Millisecond, func(ctx context.Context) error {
		calls++
		ran <- calls
		if calls == 1 {
			return errors.New("rules file mid-save")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "Widget.types.ts"), []byte("export {};\n"), 0o644))
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the first run")
	}

	// The failed run did not end the loop: another change still triggers.
	require.NoError(t, os.WriteFile(filepath.Join(root, "Widget.types.ts"), []byte("export { x };\n"), 0o644))
	select {
	case n := <-ran:
		assert.Equal(t, 2, n)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a run after the failed one")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatchDebouncesRuns(t *testing.T) {
	root := t.TempDir()
	ran := make(chan struct{}, 4)

	w := NewWatcher(root, nil, 50*time.Millisecond, func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Give the watcher time to register the root.
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "Widget.types.ts"), []byte("export {};\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a synchronization run after source changes")
	}

	// The burst coalesced into a single run.
	select {
	case <-ran:
		t.Fatal("expected the change burst to be debounced")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

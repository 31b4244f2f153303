package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-runs a synchronization whenever the source tree changes,
// coalescing change bursts with a debounce window.
type Watcher struct {
	root     string
	ignored  []string
	debounce time.Duration
	run      func(ctx context.Context) error
}

func NewWatcher(root string, ignored []string, debounce time.Duration, run func(ctx context.Context) error) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{root: root, ignored: ignored, debounce: debounce, run: run}
}

// Watch blocks until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.root); err != nil {
		return err
	}

	fmt.Printf("👀 Watching %s for changes...\n", w.root)

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.ignoredPath(event.Name) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				// New directories need explicit registration.
				_ = w.addRecursive(fsw, event.Name)
			}
			if relevant(event) {
				schedule()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("Warning: watcher error: %v", err)
		case <-fire:
			fmt.Println("🔄 Source changed; re-running synchronization...")
			if err := w.run(ctx); err != nil {
				log.Printf("Warning: synchronization run failed: %v", err)
			}
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Ext(event.Name) {
	case ".ts", ".tsx", ".json":
		return true
	}
	return false
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Race with deletion; the path may already be gone.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignoredPath(path) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

func (w *Watcher) ignoredPath(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		for _, ign := range w.ignored {
			if part == ign {
				return true
			}
		}
	}
	return false
}

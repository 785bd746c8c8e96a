package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch analyses the file at path now and again after every change, calling
// fn with each outcome. Changes are debounced. When a change arrives while
// an earlier analysis is still running, the earlier result is discarded.
// Watch blocks until ctx is cancelled.
func (e *Engine) Watch(ctx context.Context, path string, input Input, fn func(*Result, error)) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	var (
		generation atomic.Uint64
		deliver    sync.Mutex
	)

	analyze := func() {
		gen := generation.Add(1)
		go func() {
			var res *Result
			src, err := LoadSource(path, input)
			if err == nil {
				res, err = e.Analyze(ctx, src)
			}

			deliver.Lock()
			defer deliver.Unlock()
			if generation.Load() != gen || ctx.Err() != nil {
				e.logger.Debug("discarding superseded analysis", "file", path, "generation", gen)
				return
			}
			fn(res, err)
		}()
	}

	analyze()

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(e.cfg.Debounce, func() {
				e.logger.Debug("file changed, re-analysing", "file", event.Name)
				analyze()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("watcher error", "error", err)
		}
	}
}

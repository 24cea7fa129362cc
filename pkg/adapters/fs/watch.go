package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/bpmx/pkg/core"
)

const watchBuffer = 100

// Watch observes the root directory recursively and emits events for node IDs
// matching pattern. Directories created while watching are picked up.
// The channel is closed when ctx is done or the watcher fails.
func (c *Connector) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	root := c.Path()
	if root == "" {
		return nil, core.ErrNotInitialized
	}
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern: %s", pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := addRecursive(watcher, root); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	events := make(chan core.Event, watchBuffer)
	c.setWatching(1)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer c.setWatching(-1)
		defer close(events)
		defer watcher.Close()
		return c.watchLoop(ctx, watcher, pattern, events)
	}, lifecycle.WithErrorHandler(func(err error) {
		c.reportWatchError(fmt.Errorf("watch loop: %w", err))
	}))

	return events, nil
}

func (c *Connector) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, pattern string, events chan<- core.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			c.handleEvent(ctx, watcher, event, pattern, events)

		case wErr, ok := <-watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			c.reportWatchError(wErr)
		}
	}
}

func (c *Connector) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event, pattern string, events chan<- core.Event) {
	if isTempFile(event.Name) || strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	var typ core.EventType
	switch {
	case event.Has(fsnotify.Create):
		typ = core.EventCreate
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addRecursive(watcher, event.Name); err != nil {
				c.reportWatchError(err)
			}
		}
	case event.Has(fsnotify.Write):
		typ = core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		typ = core.EventDelete
	default:
		return
	}

	rel, err := filepath.Rel(c.Path(), event.Name)
	if err != nil {
		c.config.Logger.Debug("cannot resolve event path", "path", event.Name, "error", err)
		return
	}
	id := filepath.ToSlash(rel)
	if ok, _ := doublestar.Match(pattern, id); !ok {
		return
	}

	c.recordEvent()
	select {
	case events <- core.Event{Type: typ, ID: id, Timestamp: time.Now().Unix()}:
	case <-ctx.Done():
	}
}

func (c *Connector) reportWatchError(err error) {
	c.config.Logger.Error("watcher error", "error", err)
	if c.config.ErrorHandler != nil {
		c.config.ErrorHandler(err)
	}
}

func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (c *Connector) setWatching(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers += delta
}

func (c *Connector) recordEvent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.lastEventTime = &now
}

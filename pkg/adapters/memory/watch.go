package memory

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/bpmx/pkg/core"
)

type watcher struct {
	pattern string
	events  chan core.Event
}

// Watch emits an event for every create, update and delete of a node whose
// ID matches pattern. An empty pattern matches everything.
// Events are dropped, not queued, when the receiver falls behind.
func (c *Connector) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern: %s", pattern)
	}

	w := &watcher{
		pattern: pattern,
		events:  make(chan core.Event, c.config.EventBuffer),
	}

	c.watchMu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = w
	c.watchMu.Unlock()

	go func() {
		<-ctx.Done()
		c.watchMu.Lock()
		delete(c.watchers, id)
		close(w.events)
		c.watchMu.Unlock()
	}()

	return w.events, nil
}

func (c *Connector) publish(typ core.EventType, id string) {
	e := core.Event{Type: typ, ID: id, Timestamp: c.config.Clock().Unix()}

	c.watchMu.Lock()
	defer c.watchMu.Unlock()

	for _, w := range c.watchers {
		if ok, _ := doublestar.Match(w.pattern, id); !ok {
			continue
		}
		select {
		case w.events <- e:
		default:
			c.config.Logger.Debug("watcher buffer full, dropping event", "event", e.String())
		}
	}
}

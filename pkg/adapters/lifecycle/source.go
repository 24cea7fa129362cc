// Package lifecycle bridges connector change events into the
// aretw0/lifecycle event model so hosts can supervise them alongside other
// event sources.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/bpmx/pkg/core"
)

type connectorSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits connector events.
// The output channel is closed when the input closes or the source's context ends.
func NewSource(events <-chan core.Event) lifecycle.Source {
	return &connectorSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

// WatchSource starts watching w for pattern and wraps the result in a Source.
func WatchSource(ctx context.Context, w core.Watchable, pattern string) (lifecycle.Source, error) {
	events, err := w.Watch(ctx, pattern)
	if err != nil {
		return nil, err
	}
	return NewSource(events), nil
}

func (s *connectorSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *connectorSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				// core.Event satisfies lifecycle.Event through String().
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

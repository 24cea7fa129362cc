package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// ConnectorState exposes internal state for observability.
type ConnectorState struct {
	ID        string     `json:"id"`
	Path      string     `json:"path"`
	ReadOnly  bool       `json:"read_only"`
	Watchers  int        `json:"watchers"`
	LastEvent *time.Time `json:"last_event,omitempty"`
}

// State implements introspection.Introspectable.
func (c *Connector) State() any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return ConnectorState{
		ID:        c.id,
		Path:      c.root,
		ReadOnly:  c.config.ReadOnly,
		Watchers:  c.watchers,
		LastEvent: c.lastEventTime,
	}
}

// ComponentType implements introspection.Component.
func (c *Connector) ComponentType() string {
	return "fs-connector"
}

var _ introspection.Introspectable = (*Connector)(nil)
var _ introspection.Component = (*Connector)(nil)

package memory

import (
	"github.com/aretw0/introspection"
)

// ConnectorState exposes internal state for observability.
type ConnectorState struct {
	ID       string `json:"id"`
	Nodes    int    `json:"nodes"`
	Watchers int    `json:"watchers"`
}

// State implements introspection.Introspectable.
func (c *Connector) State() any {
	c.mu.RLock()
	state := ConnectorState{ID: c.id, Nodes: len(c.nodes)}
	c.mu.RUnlock()

	c.watchMu.Lock()
	state.Watchers = len(c.watchers)
	c.watchMu.Unlock()

	return state
}

// ComponentType implements introspection.Component.
func (c *Connector) ComponentType() string {
	return "memory-connector"
}

var _ introspection.Introspectable = (*Connector)(nil)
var _ introspection.Component = (*Connector)(nil)

package host

import "github.com/aretw0/introspection"

// EngineState exposes internal state for observability.
type EngineState struct {
	Level     string   `json:"level"`
	Processes []string `json:"processes"`
	Started   int      `json:"started"`
}

// State implements introspection.Introspectable.
func (e *Engine) State() any {
	processes := e.Processes()
	e.mu.RLock()
	defer e.mu.RUnlock()
	return EngineState{
		Level:     e.level.Name(),
		Processes: processes,
		Started:   e.started,
	}
}

// ComponentType implements introspection.Component.
func (e *Engine) ComponentType() string {
	return "engine"
}

var _ introspection.Introspectable = (*Engine)(nil)
var _ introspection.Component = (*Engine)(nil)

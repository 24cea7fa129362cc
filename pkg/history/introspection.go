package history

import (
	"github.com/aretw0/introspection"
)

// PerProcessState exposes internal state for observability.
type PerProcessState struct {
	Property         string   `json:"property"`
	Levels           []string `json:"levels"`
	Fallback         string   `json:"fallback"`
	TrackedInstances int      `json:"tracked_instances"`
}

// State implements introspection.Introspectable.
func (p *PerProcessLevel) State() any {
	return PerProcessState{
		Property:         p.property,
		Levels:           p.LevelNames(),
		Fallback:         levelName(p.fallback),
		TrackedInstances: p.delegates.Count(),
	}
}

// ComponentType implements introspection.Component.
func (p *PerProcessLevel) ComponentType() string {
	return "history-level"
}

var _ introspection.Introspectable = (*PerProcessLevel)(nil)
var _ introspection.Component = (*PerProcessLevel)(nil)

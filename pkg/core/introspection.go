package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	ConnectorID   string `json:"connector_id"`
	ConnectorType string `json:"connector_type"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	connType := "unknown"
	id := ""
	if s.connector != nil {
		connType = "connector"
		id = s.connector.ID()
		if comp, ok := s.connector.(introspection.Component); ok {
			connType = comp.ComponentType()
		}
	}

	return ServiceState{
		ConnectorID:   id,
		ConnectorType: connType,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)

package history

import (
	"github.com/aretw0/bpmx/pkg/bpmn"
)

// EventType identifies a history event produced by the engine.
type EventType string

const (
	ProcessInstanceStart  EventType = "process-instance-start"
	ProcessInstanceUpdate EventType = "process-instance-update"
	ProcessInstanceEnd    EventType = "process-instance-end"

	ActivityInstanceStart  EventType = "activity-instance-start"
	ActivityInstanceUpdate EventType = "activity-instance-update"
	ActivityInstanceEnd    EventType = "activity-instance-end"

	TaskInstanceCreate   EventType = "task-instance-create"
	TaskInstanceUpdate   EventType = "task-instance-update"
	TaskInstanceComplete EventType = "task-instance-complete"
	TaskInstanceDelete   EventType = "task-instance-delete"

	VariableInstanceCreate EventType = "variable-instance-create"
	VariableInstanceUpdate EventType = "variable-instance-update"
	VariableInstanceDelete EventType = "variable-instance-delete"

	FormPropertyUpdate EventType = "form-property-update"

	IncidentCreate  EventType = "incident-create"
	IncidentDelete  EventType = "incident-delete"
	IncidentResolve EventType = "incident-resolve"

	UserOperationLog EventType = "user-operation-log"
)

// EventTypes lists every known event type.
var EventTypes = []EventType{
	ProcessInstanceStart, ProcessInstanceUpdate, ProcessInstanceEnd,
	ActivityInstanceStart, ActivityInstanceUpdate, ActivityInstanceEnd,
	TaskInstanceCreate, TaskInstanceUpdate, TaskInstanceComplete, TaskInstanceDelete,
	VariableInstanceCreate, VariableInstanceUpdate, VariableInstanceDelete,
	FormPropertyUpdate,
	IncidentCreate, IncidentDelete, IncidentResolve,
	UserOperationLog,
}

// Entity is the engine object an event is about. It may be nil for events
// that are not scoped to an entity.
type Entity any

// Scoped is implemented by entities that belong to a process instance.
type Scoped interface {
	ProcessInstanceID() string
}

// Execution is a running process instance (or a path of execution in it).
type Execution interface {
	Scoped
	// Process returns the model of the process the execution runs.
	Process() *bpmn.Process
}

// VariableInstance is a process variable.
type VariableInstance interface {
	Scoped
	Name() string
}

// processInstanceID extracts the owning process instance, "" when the entity
// is not scoped.
func processInstanceID(entity Entity) string {
	if s, ok := entity.(Scoped); ok {
		return s.ProcessInstanceID()
	}
	return ""
}

package history

import (
	"fmt"
	"sort"
)

// Level decides whether a history event is produced.
type Level interface {
	ID() int
	Name() string
	IsHistoryEventProduced(t EventType, entity Entity) bool
}

// Built-in level names.
const (
	NameNone     = "none"
	NameActivity = "activity"
	NameAudit    = "audit"
	NameFull     = "full"
)

// Built-in levels.
var (
	LevelNone     Level = noneLevel{}
	LevelActivity Level = activityLevel{}
	LevelAudit    Level = auditLevel{}
	LevelFull     Level = fullLevel{}
)

// BuiltinLevels returns the four built-in levels ordered by ID.
func BuiltinLevels() []Level {
	return []Level{LevelNone, LevelActivity, LevelAudit, LevelFull}
}

// LevelByName resolves a built-in level.
func LevelByName(name string) (Level, error) {
	for _, l := range BuiltinLevels() {
		if l.Name() == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
}

type noneLevel struct{}

func (noneLevel) ID() int { return 0 }
func (noneLevel) Name() string { return NameNone }
func (noneLevel) IsHistoryEventProduced(EventType, Entity) bool { return false }

// activityLevel records the life of process instances, activities and tasks.
type activityLevel struct{}

func (activityLevel) ID() int { return 1 }
func (activityLevel) Name() string { return NameActivity }

func (activityLevel) IsHistoryEventProduced(t EventType, _ Entity) bool {
	return isActivityEvent(t)
}

// auditLevel adds variable and form property changes to activity history.
type auditLevel struct{}

func (auditLevel) ID() int { return 2 }
func (auditLevel) Name() string { return NameAudit }

func (auditLevel) IsHistoryEventProduced(t EventType, _ Entity) bool {
	return isActivityEvent(t) || isVariableEvent(t) || t == FormPropertyUpdate
}

type fullLevel struct{}

func (fullLevel) ID() int { return 3 }
func (fullLevel) Name() string { return NameFull }
func (fullLevel) IsHistoryEventProduced(EventType, Entity) bool { return true }

func isActivityEvent(t EventType) bool {
	switch t {
	case ProcessInstanceStart, ProcessInstanceUpdate, ProcessInstanceEnd,
		ActivityInstanceStart, ActivityInstanceUpdate, ActivityInstanceEnd,
		TaskInstanceCreate, TaskInstanceUpdate, TaskInstanceComplete, TaskInstanceDelete:
		return true
	}
	return false
}

func isVariableEvent(t EventType) bool {
	switch t {
	case VariableInstanceCreate, VariableInstanceUpdate, VariableInstanceDelete:
		return true
	}
	return false
}

func sortedNames(levels map[string]Level) []string {
	names := make([]string, 0, len(levels))
	for name := range levels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package history

// VariableFilterLevel records activity history plus the events of variables
// whose names are allow-listed. It shows how a custom level is built and
// registered with PerProcessLevel.AddLevels.
type VariableFilterLevel struct {
	id      int
	name    string
	allowed map[string]bool
}

// NewVariableFilterLevel creates a level that keeps only the named variables.
func NewVariableFilterLevel(id int, name string, variables ...string) *VariableFilterLevel {
	allowed := make(map[string]bool, len(variables))
	for _, v := range variables {
		allowed[v] = true
	}
	return &VariableFilterLevel{id: id, name: name, allowed: allowed}
}

func (l *VariableFilterLevel) ID() int { return l.id }
func (l *VariableFilterLevel) Name() string { return l.name }

// Variables returns the allow-listed variable names.
func (l *VariableFilterLevel) Variables() []string {
	names := make([]string, 0, len(l.allowed))
	for n := range l.allowed {
		names = append(names, n)
	}
	return names
}

func (l *VariableFilterLevel) IsHistoryEventProduced(t EventType, entity Entity) bool {
	if isActivityEvent(t) {
		return true
	}
	if !isVariableEvent(t) {
		return false
	}
	v, ok := entity.(VariableInstance)
	return ok && l.allowed[v.Name()]
}

package host

import (
	"fmt"

	"github.com/aretw0/bpmx/pkg/bpmn"
	"github.com/aretw0/bpmx/pkg/history"
)

type execution struct {
	id         string
	process    *bpmn.Process
	activityID string
}

func (e *execution) ProcessInstanceID() string { return e.id }
func (e *execution) Process() *bpmn.Process { return e.process }

// ActivityID is the flow node the execution currently visits, "" outside
// activities.
func (e *execution) ActivityID() string { return e.activityID }

type variable struct {
	processInstanceID string
	name              string
	value             any
}

func (v *variable) ProcessInstanceID() string { return v.processInstanceID }
func (v *variable) Name() string { return v.name }

func (v *variable) String() string {
	if v.value == nil {
		return ""
	}
	return fmt.Sprint(v.value)
}

var (
	_ history.Execution        = (*execution)(nil)
	_ history.VariableInstance = (*variable)(nil)
)

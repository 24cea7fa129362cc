package history_test

import (
	"strings"
	"testing"

	"github.com/aretw0/bpmx/pkg/bpmn"
)

type execution struct {
	pid     string
	process *bpmn.Process
}

func (e execution) ProcessInstanceID() string { return e.pid }
func (e execution) Process() *bpmn.Process { return e.process }

type variable struct {
	pid  string
	name string
}

func (v variable) ProcessInstanceID() string { return v.pid }
func (v variable) Name() string { return v.name }

// processWithHistory builds a process whose history property is level.
// An empty level produces a process without extension elements.
func processWithHistory(t *testing.T, level string) *bpmn.Process {
	t.Helper()

	ext := ""
	if level != "" {
		ext = `<extensionElements><camunda:properties><camunda:property name="history" value="` + level + `"/></camunda:properties></extensionElements>`
	}
	defs, err := bpmn.Parse(strings.NewReader(`<definitions xmlns:camunda="` + bpmn.CamundaNS + `"><process id="p">` + ext + `<startEvent id="s"/></process></definitions>`))
	if err != nil {
		t.Fatalf("failed to parse process: %v", err)
	}
	return &defs.Processes[0]
}

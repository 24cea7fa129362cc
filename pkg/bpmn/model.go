// Package bpmn reads the subset of BPMN 2.0 XML that extension points need:
// processes, their flow nodes and sequence flows, and the camunda:properties
// extension entries attached to a process.
package bpmn

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoProcess is returned when a document declares no process.
var ErrNoProcess = errors.New("bpmn: definitions contain no process")

// Definitions is the root element of a BPMN document.
type Definitions struct {
	ID              string    `xml:"id,attr"`
	TargetNamespace string    `xml:"targetNamespace,attr"`
	Processes       []Process `xml:"process"`
}

// Process is a single <process> element.
type Process struct {
	ID           string             `xml:"id,attr"`
	Name         string             `xml:"name,attr"`
	IsExecutable bool               `xml:"isExecutable,attr"`
	Extensions   *ExtensionElements `xml:"extensionElements"`

	FlowNodes     []FlowNode     `xml:"-"`
	SequenceFlows []SequenceFlow `xml:"-"`
}

// CamundaNS is the namespace of the camunda:properties extension.
const CamundaNS = "http://camunda.org/schema/1.0/bpmn"

// ExtensionElements holds vendor extensions of an element.
// Only camunda:properties is read; other vendors' elements are ignored.
type ExtensionElements struct {
	Properties *Properties `xml:"http://camunda.org/schema/1.0/bpmn properties"`
}

// Properties is a camunda:properties container.
type Properties struct {
	Entries []Property `xml:"http://camunda.org/schema/1.0/bpmn property"`
}

// Property is a single camunda:property name/value pair.
type Property struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// FlowNode is an event, activity or gateway of a process.
type FlowNode struct {
	ID   string
	Name string
	Kind string // Element local name, e.g. "serviceTask".
}

// SequenceFlow connects two flow nodes.
type SequenceFlow struct {
	ID        string
	SourceRef string
	TargetRef string
}

type rawElement struct {
	XMLName   xml.Name
	ID        string `xml:"id,attr"`
	Name      string `xml:"name,attr"`
	SourceRef string `xml:"sourceRef,attr"`
	TargetRef string `xml:"targetRef,attr"`
}

var flowNodeKinds = map[string]bool{
	"startEvent":             true,
	"endEvent":               true,
	"intermediateCatchEvent": true,
	"intermediateThrowEvent": true,
	"boundaryEvent":          true,
	"task":                   true,
	"serviceTask":            true,
	"userTask":               true,
	"scriptTask":             true,
	"manualTask":             true,
	"sendTask":               true,
	"receiveTask":            true,
	"businessRuleTask":       true,
	"callActivity":           true,
	"subProcess":             true,
	"exclusiveGateway":       true,
	"parallelGateway":        true,
	"inclusiveGateway":       true,
	"eventBasedGateway":      true,
}

// UnmarshalXML decodes a process and sorts its children into flow nodes and
// sequence flows. Unknown children are ignored.
func (p *Process) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	type plain struct {
		ID           string             `xml:"id,attr"`
		Name         string             `xml:"name,attr"`
		IsExecutable bool               `xml:"isExecutable,attr"`
		Extensions   *ExtensionElements `xml:"extensionElements"`
		Children     []rawElement       `xml:",any"`
	}
	var v plain
	if err := d.DecodeElement(&v, &start); err != nil {
		return err
	}

	p.ID, p.Name, p.IsExecutable, p.Extensions = v.ID, v.Name, v.IsExecutable, v.Extensions
	p.FlowNodes = nil
	p.SequenceFlows = nil

	for _, c := range v.Children {
		switch {
		case c.XMLName.Local == "sequenceFlow":
			p.SequenceFlows = append(p.SequenceFlows, SequenceFlow{ID: c.ID, SourceRef: c.SourceRef, TargetRef: c.TargetRef})
		case flowNodeKinds[c.XMLName.Local]:
			p.FlowNodes = append(p.FlowNodes, FlowNode{ID: c.ID, Name: c.Name, Kind: c.XMLName.Local})
		}
	}
	return nil
}

// Property returns the value of the named camunda:property of the process.
// When a name repeats, the last entry wins.
func (p *Process) Property(name string) (string, bool) {
	if p == nil || p.Extensions == nil || p.Extensions.Properties == nil {
		return "", false
	}
	value, found := "", false
	for _, e := range p.Extensions.Properties.Entries {
		if e.Name == name {
			value, found = e.Value, true
		}
	}
	return value, found
}

// Node returns the flow node with the given ID.
func (p *Process) Node(id string) (FlowNode, bool) {
	for _, n := range p.FlowNodes {
		if n.ID == id {
			return n, true
		}
	}
	return FlowNode{}, false
}

// Path walks the process from its start event along sequence flows and
// returns the visited flow nodes in order. Only unbranched processes are
// supported.
func (p *Process) Path() ([]FlowNode, error) {
	var start *FlowNode
	for i := range p.FlowNodes {
		if p.FlowNodes[i].Kind == "startEvent" {
			if start != nil {
				return nil, fmt.Errorf("bpmn: process %s has more than one start event", p.ID)
			}
			start = &p.FlowNodes[i]
		}
	}
	if start == nil {
		return nil, fmt.Errorf("bpmn: process %s has no start event", p.ID)
	}

	outgoing := make(map[string][]string)
	for _, f := range p.SequenceFlows {
		outgoing[f.SourceRef] = append(outgoing[f.SourceRef], f.TargetRef)
	}

	path := []FlowNode{*start}
	seen := map[string]bool{start.ID: true}
	current := start.ID
	for {
		next := outgoing[current]
		switch len(next) {
		case 0:
			return path, nil
		case 1:
		default:
			return nil, fmt.Errorf("bpmn: node %s branches into %d flows", current, len(next))
		}

		node, ok := p.Node(next[0])
		if !ok {
			return nil, fmt.Errorf("bpmn: sequence flow from %s targets unknown node %s", current, next[0])
		}
		if seen[node.ID] {
			return nil, fmt.Errorf("bpmn: cycle detected at node %s", node.ID)
		}
		seen[node.ID] = true
		path = append(path, node)
		current = node.ID
	}
}

// Process returns the process with the given ID.
func (d *Definitions) Process(id string) (*Process, bool) {
	for i := range d.Processes {
		if d.Processes[i].ID == id {
			return &d.Processes[i], true
		}
	}
	return nil, false
}

// MainProcess returns the first process of the document.
func (d *Definitions) MainProcess() (*Process, error) {
	if len(d.Processes) == 0 {
		return nil, ErrNoProcess
	}
	return &d.Processes[0], nil
}

// Parse decodes a BPMN document.
func Parse(r io.Reader) (*Definitions, error) {
	var defs Definitions
	if err := xml.NewDecoder(r).Decode(&defs); err != nil {
		return nil, fmt.Errorf("bpmn: failed to decode definitions: %w", err)
	}
	if len(defs.Processes) == 0 {
		return nil, ErrNoProcess
	}
	return &defs, nil
}

// ParseFile decodes the BPMN document at path.
func ParseFile(path string) (*Definitions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

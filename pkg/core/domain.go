// Package core defines the connector domain: nodes, their content and the
// Connector port that storage adapters implement.
package core

import (
	"fmt"
	"time"
)

// NodeType distinguishes containers from content-bearing nodes.
type NodeType string

const (
	NodeTypeUnspecified NodeType = ""
	NodeTypeFolder      NodeType = "folder"
	NodeTypeDocument    NodeType = "document"
)

// ParseNodeType maps a user supplied string to a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	switch NodeType(s) {
	case NodeTypeFolder, NodeTypeDocument:
		return NodeType(s), nil
	case NodeTypeUnspecified:
		return NodeTypeDocument, nil
	}
	return NodeTypeUnspecified, fmt.Errorf("unknown node type %q", s)
}

// Node is an entry in a connector's tree.
// The ID is what the connector uses for lookups, the Label is what users see.
type Node struct {
	ID           string    `json:"id"`
	Label        string    `json:"label"`
	ConnectorID  string    `json:"connector_id"`
	Type         NodeType  `json:"type"`
	Content      []byte    `json:"-"`
	LastModified time.Time `json:"last_modified"`
}

// IsFolder reports whether the node can have children.
func (n Node) IsFolder() bool {
	return n.Type == NodeTypeFolder
}

// ContentInformation describes the availability of a node's content.
type ContentInformation struct {
	Available    bool      `json:"available"`
	LastModified time.Time `json:"last_modified,omitempty"`
}

// NotFound returns the sentinel used when a node has no content to offer.
func NotFound() ContentInformation {
	return ContentInformation{}
}

// IsNotFound reports whether ci is the NotFound sentinel.
func (ci ContentInformation) IsNotFound() bool {
	return !ci.Available
}

// Configuration is the host-side record a connector is initialised from.
type Configuration struct {
	ID         string            `yaml:"id" json:"id"`
	Name       string            `yaml:"name" json:"name"`
	Adapter    string            `yaml:"adapter" json:"adapter"`
	Properties map[string]string `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// Property returns a configuration property or def when unset.
func (c Configuration) Property(key, def string) string {
	if v, ok := c.Properties[key]; ok && v != "" {
		return v
	}
	return def
}

// EventType represents the type of change in a connector.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in a connector.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer (and lifecycle.Event).
func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}

package core

import (
	"context"
	"io"
)

// Connector defines the contract for pluggable document repositories.
// A connector exposes a tree of nodes rooted at Root and lets the host read
// and write the raw bytes of document nodes.
type Connector interface {
	// Init prepares the connector from its host configuration.
	// It must be called before any other method.
	Init(cfg Configuration) error

	// ID returns the configuration ID the connector was initialised with.
	ID() string

	Root(ctx context.Context) (Node, error)

	// Children lists the direct children of parent.
	// Unknown parents yield an empty list, not an error.
	Children(ctx context.Context, parent Node) ([]Node, error)

	// Node looks up a node by ID.
	Node(ctx context.Context, id string) (Node, bool, error)

	// CreateNode creates a node below parentID. The message is a change
	// reason for connectors that support commit messages.
	CreateNode(ctx context.Context, parentID, label string, typ NodeType, message string) (Node, error)

	DeleteNode(ctx context.Context, node Node, message string) error

	// Content opens the node's content. Absent nodes yield an empty reader.
	Content(ctx context.Context, node Node) (io.ReadCloser, error)

	// ContentInformation reports NotFound() for absent nodes.
	ContentInformation(ctx context.Context, node Node) (ContentInformation, error)

	// UpdateContent replaces the node's content with everything read from r.
	// It fails with ErrNodeNotFound when the node is unknown.
	UpdateContent(ctx context.Context, node Node, r io.Reader, message string) (ContentInformation, error)

	SupportsCommitMessage() bool
	NeedsLogin() bool
}

// Watchable defines an interface for connectors that publish change events.
type Watchable interface {
	// Watch emits events for node IDs matching the glob pattern until ctx is done.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

type contextKey string

// ChangeReasonKey is the context key for passing a change reason when the
// caller has no explicit message argument at hand.
const ChangeReasonKey contextKey = "change_reason"

// Package memory provides a core.Connector that keeps every node in a single
// in-process map keyed by label. It is meant for samples and tests: nothing
// survives a restart, and there are no commit messages, logins or versions.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/bpmx/pkg/core"
)

const (
	// RootID is the ID of the connector's root node.
	RootID = "/"
	// FolderID is the ID of the single folder below the root that holds every stored node.
	FolderID = "/aFolder"

	defaultEventBuffer = 100
)

// Config holds the configuration for the in-memory connector.
type Config struct {
	Logger      *slog.Logger
	EventBuffer int              // Size of each watcher channel. Zero means 100.
	Clock       func() time.Time // Defaults to time.Now.
}

// Connector implements core.Connector on top of a map.
type Connector struct {
	config Config
	id     string
	root   core.Node
	folder core.Node

	mu    sync.RWMutex
	nodes map[string]*core.Node // Key is the node label.

	watchMu  sync.Mutex
	watchers map[int]*watcher
	nextID   int
}

// New creates an uninitialised connector. Call Init before use.
func New(config Config) *Connector {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = defaultEventBuffer
	}
	return &Connector{
		config:   config,
		nodes:    make(map[string]*core.Node),
		watchers: make(map[int]*watcher),
	}
}

// Init sets up the fixed two-level hierarchy.
func (c *Connector) Init(cfg core.Configuration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.id = cfg.ID
	now := c.config.Clock()
	c.root = core.Node{ID: RootID, Label: RootID, ConnectorID: c.id, Type: core.NodeTypeFolder, LastModified: now}
	c.folder = core.Node{ID: FolderID, Label: FolderID, ConnectorID: c.id, Type: core.NodeTypeFolder, LastModified: now}
	return nil
}

// ID returns the connector's configuration ID.
func (c *Connector) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// Root returns the root node.
func (c *Connector) Root(ctx context.Context) (core.Node, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.root.ID == "" {
		return core.Node{}, core.ErrNotInitialized
	}
	return c.root, nil
}

// Children returns the folder for the root, every stored node for the folder,
// and nothing for anything else.
func (c *Connector) Children(ctx context.Context, parent core.Node) ([]core.Node, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.folder.ID != "" && parent.ID == c.folder.ID:
		children := make([]core.Node, 0, len(c.nodes))
		for _, n := range c.nodes {
			children = append(children, withoutContent(n))
		}
		sort.Slice(children, func(i, j int) bool {
			return children[i].Label < children[j].Label
		})
		return children, nil
	case c.root.ID != "" && parent.ID == c.root.ID:
		return []core.Node{c.folder}, nil
	default:
		return []core.Node{}, nil
	}
}

// Node looks up a stored node.
func (c *Connector) Node(ctx context.Context, id string) (core.Node, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, ok := c.nodes[id]
	if !ok {
		return core.Node{}, false, nil
	}
	return withoutContent(n), true, nil
}

// CreateNode stores a new node under its label.
// An existing node with the same label is replaced without notice.
func (c *Connector) CreateNode(ctx context.Context, parentID, label string, typ core.NodeType, message string) (core.Node, error) {
	if typ == core.NodeTypeUnspecified {
		typ = core.NodeTypeDocument
	}

	c.mu.Lock()
	node := &core.Node{
		ID:           label,
		Label:        label,
		ConnectorID:  c.id,
		Type:         typ,
		LastModified: c.config.Clock(),
	}
	c.nodes[label] = node
	c.mu.Unlock()

	c.config.Logger.Info("created new node", "id", label, "parent", parentID)
	c.publish(core.EventCreate, label)
	return withoutContent(node), nil
}

// DeleteNode removes a node by label. Unknown labels are ignored.
func (c *Connector) DeleteNode(ctx context.Context, node core.Node, message string) error {
	c.mu.Lock()
	_, existed := c.nodes[node.Label]
	delete(c.nodes, node.Label)
	c.mu.Unlock()

	if existed {
		c.publish(core.EventDelete, node.Label)
	}
	return nil
}

// Content returns a reader over the node's bytes, empty when the node or its
// content is missing.
func (c *Connector) Content(ctx context.Context, node core.Node) (io.ReadCloser, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var content []byte
	if n, ok := c.nodes[node.ID]; ok && n.Content != nil {
		content = bytes.Clone(n.Content)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

// ContentInformation reports core.NotFound() for unknown nodes.
func (c *Connector) ContentInformation(ctx context.Context, node core.Node) (core.ContentInformation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, ok := c.nodes[node.ID]
	if !ok {
		return core.NotFound(), nil
	}
	return core.ContentInformation{Available: true, LastModified: n.LastModified}, nil
}

// UpdateContent replaces the content of a known node.
func (c *Connector) UpdateContent(ctx context.Context, node core.Node, r io.Reader, message string) (core.ContentInformation, error) {
	// Read before locking so a slow reader does not block other callers.
	data, err := io.ReadAll(r)
	if err != nil {
		return core.NotFound(), fmt.Errorf("failed to read content for %s: %w", node.ID, err)
	}

	c.mu.Lock()
	n, ok := c.nodes[node.ID]
	if !ok {
		c.mu.Unlock()
		return core.NotFound(), fmt.Errorf("node with id %s not found: %w", node.ID, core.ErrNodeNotFound)
	}
	n.Content = data
	n.LastModified = c.config.Clock()
	info := core.ContentInformation{Available: true, LastModified: n.LastModified}
	c.mu.Unlock()

	c.publish(core.EventModify, node.ID)
	return info, nil
}

// SupportsCommitMessage is always false.
func (c *Connector) SupportsCommitMessage() bool { return false }

// NeedsLogin is always false.
func (c *Connector) NeedsLogin() bool { return false }

func withoutContent(n *core.Node) core.Node {
	cp := *n
	cp.Content = nil
	return cp
}

var _ core.Connector = (*Connector)(nil)
var _ core.Watchable = (*Connector)(nil)

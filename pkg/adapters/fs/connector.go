// Package fs provides a core.Connector backed by a directory tree.
// Folders map to directories and documents to regular files; node IDs are
// slash-separated paths relative to the connector root.
package fs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/bpmx/pkg/core"
)

// RootID is the ID of the connector's root node.
const RootID = "/"

// Config holds the configuration for the filesystem connector.
type Config struct {
	Path         string // Root directory. Falls back to the "path" configuration property.
	MustExist    bool
	ReadOnly     bool
	Logger       *slog.Logger
	ErrorHandler func(error) // Receives watcher failures that would otherwise only be logged.
}

// Connector implements core.Connector on the filesystem.
type Connector struct {
	config Config
	id     string
	root   string

	mu            sync.RWMutex
	watchers      int
	lastEventTime *time.Time
}

// New creates an uninitialised connector. Call Init before use.
func New(config Config) *Connector {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Connector{config: config}
}

// Init resolves and prepares the root directory.
func (c *Connector) Init(cfg core.Configuration) error {
	root := c.config.Path
	if root == "" {
		root = cfg.Property("path", "")
	}
	if root == "" {
		return fmt.Errorf("connector %s: no root path configured", cfg.ID)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve root path: %w", err)
	}

	if c.config.MustExist || c.config.ReadOnly {
		info, err := os.Stat(abs)
		if os.IsNotExist(err) {
			return fmt.Errorf("connector root does not exist: %s", abs)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("connector root is not a directory: %s", abs)
		}
	} else if err := os.MkdirAll(abs, 0755); err != nil {
		return fmt.Errorf("failed to create connector root: %w", err)
	}

	c.mu.Lock()
	c.id = cfg.ID
	c.root = abs
	c.mu.Unlock()

	c.config.Logger.Debug("filesystem connector initialized", "id", cfg.ID, "root", abs, "read_only", c.config.ReadOnly)
	return nil
}

// ID returns the connector's configuration ID.
func (c *Connector) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// Path returns the absolute root directory.
func (c *Connector) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.root
}

// Root returns the node representing the root directory.
func (c *Connector) Root(ctx context.Context) (core.Node, error) {
	root := c.Path()
	if root == "" {
		return core.Node{}, core.ErrNotInitialized
	}
	info, err := os.Stat(root)
	if err != nil {
		return core.Node{}, err
	}
	return core.Node{
		ID:           RootID,
		Label:        filepath.Base(root),
		ConnectorID:  c.ID(),
		Type:         core.NodeTypeFolder,
		LastModified: info.ModTime(),
	}, nil
}

// Children lists a directory. Files and unknown parents yield an empty list.
func (c *Connector) Children(ctx context.Context, parent core.Node) ([]core.Node, error) {
	dir, id, err := c.resolve(parent.ID)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) || (err == nil && !info.IsDir()) {
		return []core.Node{}, nil
	}
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", parent.ID, err)
	}

	nodes := make([]core.Node, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		nodes = append(nodes, c.nodeFromInfo(path.Join(id, e.Name()), info))
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes, nil
}

// Node looks up the file or directory with the given ID.
func (c *Connector) Node(ctx context.Context, id string) (core.Node, bool, error) {
	p, rel, err := c.resolve(id)
	if err != nil {
		return core.Node{}, false, err
	}
	if rel == "" {
		root, err := c.Root(ctx)
		return root, err == nil, err
	}
	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return core.Node{}, false, nil
	}
	if err != nil {
		return core.Node{}, false, err
	}
	return c.nodeFromInfo(rel, info), true, nil
}

// CreateNode creates a directory or an empty file below parentID.
// An existing file with the same name is truncated.
func (c *Connector) CreateNode(ctx context.Context, parentID, label string, typ core.NodeType, message string) (core.Node, error) {
	if c.config.ReadOnly {
		return core.Node{}, core.ErrReadOnly
	}
	if !validLabel(label) {
		return core.Node{}, fmt.Errorf("%w: %q", core.ErrInvalidLabel, label)
	}

	parentDir, parentRel, err := c.resolve(parentID)
	if err != nil {
		return core.Node{}, err
	}
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		return core.Node{}, fmt.Errorf("failed to create parent %s: %w", parentID, err)
	}

	rel := path.Join(parentRel, label)
	target := filepath.Join(parentDir, label)

	switch typ {
	case core.NodeTypeFolder:
		if err := os.MkdirAll(target, 0755); err != nil {
			return core.Node{}, fmt.Errorf("failed to create folder %s: %w", rel, err)
		}
	default:
		if _, err := writeAtomic(target, bytes.NewReader(nil), 0644); err != nil {
			return core.Node{}, err
		}
	}

	info, err := os.Stat(target)
	if err != nil {
		return core.Node{}, err
	}

	c.config.Logger.Info("created new node", "id", rel, "type", typ)
	return c.nodeFromInfo(rel, info), nil
}

// DeleteNode removes a file or a whole directory. Missing nodes are ignored.
func (c *Connector) DeleteNode(ctx context.Context, node core.Node, message string) error {
	if c.config.ReadOnly {
		return core.ErrReadOnly
	}
	p, rel, err := c.resolve(node.ID)
	if err != nil {
		return err
	}
	if rel == "" {
		return fmt.Errorf("refusing to delete the connector root")
	}
	if err := os.RemoveAll(p); err != nil {
		return fmt.Errorf("failed to delete %s: %w", rel, err)
	}
	return nil
}

// Content opens the node's file. Missing nodes and directories read as empty.
func (c *Connector) Content(ctx context.Context, node core.Node) (io.ReadCloser, error) {
	p, _, err := c.resolve(node.ID)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return io.NopCloser(bytes.NewReader(nil)), nil
		}
		return nil, err
	}
	return f, nil
}

// ContentInformation reports core.NotFound() for missing nodes.
func (c *Connector) ContentInformation(ctx context.Context, node core.Node) (core.ContentInformation, error) {
	p, _, err := c.resolve(node.ID)
	if err != nil {
		return core.NotFound(), err
	}
	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return core.NotFound(), nil
	}
	if err != nil {
		return core.NotFound(), err
	}
	return core.ContentInformation{Available: true, LastModified: info.ModTime()}, nil
}

// UpdateContent atomically replaces an existing file.
func (c *Connector) UpdateContent(ctx context.Context, node core.Node, r io.Reader, message string) (core.ContentInformation, error) {
	if c.config.ReadOnly {
		return core.NotFound(), core.ErrReadOnly
	}
	p, rel, err := c.resolve(node.ID)
	if err != nil {
		return core.NotFound(), err
	}
	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return core.NotFound(), fmt.Errorf("node with id %s not found: %w", node.ID, core.ErrNodeNotFound)
	}
	if err != nil {
		return core.NotFound(), err
	}
	if info.IsDir() {
		return core.NotFound(), fmt.Errorf("node %s is a folder and has no content", rel)
	}

	n, err := writeAtomic(p, r, info.Mode().Perm())
	if err != nil {
		return core.NotFound(), err
	}
	c.config.Logger.Debug("content updated", "id", rel, "bytes", n)

	return c.ContentInformation(ctx, node)
}

// SupportsCommitMessage is false: plain directories keep no history.
func (c *Connector) SupportsCommitMessage() bool { return false }

// NeedsLogin is false.
func (c *Connector) NeedsLogin() bool { return false }

// resolve maps a node ID onto an absolute path below the root.
// It returns the path and the normalised relative ID ("" for the root).
func (c *Connector) resolve(id string) (string, string, error) {
	root := c.Path()
	if root == "" {
		return "", "", core.ErrNotInitialized
	}

	rel := path.Clean("/" + filepath.ToSlash(id))
	rel = strings.TrimPrefix(rel, "/")
	if rel == "." {
		rel = ""
	}
	// path.Clean on an absolute path drops leading "..", so rel stays below the root.
	return filepath.Join(root, filepath.FromSlash(rel)), rel, nil
}

// validLabel accepts a single path element that names an entry of its parent.
func validLabel(label string) bool {
	if label == "" || label == "." || label == ".." || strings.ContainsAny(label, `/\`) {
		return false
	}
	return path.Clean(label) == label
}

func (c *Connector) nodeFromInfo(rel string, info os.FileInfo) core.Node {
	typ := core.NodeTypeDocument
	if info.IsDir() {
		typ = core.NodeTypeFolder
	}
	return core.Node{
		ID:           rel,
		Label:        info.Name(),
		ConnectorID:  c.ID(),
		Type:         typ,
		LastModified: info.ModTime(),
	}
}

var _ core.Connector = (*Connector)(nil)
var _ core.Watchable = (*Connector)(nil)

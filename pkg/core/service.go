package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Service handles the business logic on top of a Connector.
type Service struct {
	connector Connector
	logger    *slog.Logger
	mu        sync.RWMutex
}

// NewService creates a new Service. A nil logger discards output.
func NewService(connector Connector, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{connector: connector, logger: logger}
}

// Connector returns the underlying connector.
func (s *Service) Connector() Connector {
	return s.connector
}

// CreateDocument creates a document node with the given content.
// Content is written through UpdateContent so connectors see a single code path.
func (s *Service) CreateDocument(ctx context.Context, parentID, label string, content []byte) (Node, error) {
	if err := validateLabel(label); err != nil {
		return Node{}, err
	}

	reason := changeReason(ctx, fmt.Sprintf("create %s", label))
	node, err := s.connector.CreateNode(ctx, parentID, label, NodeTypeDocument, reason)
	if err != nil {
		return Node{}, fmt.Errorf("failed to create node %s: %w", label, err)
	}

	if content != nil {
		info, err := s.connector.UpdateContent(ctx, node, bytes.NewReader(content), reason)
		if err != nil {
			return Node{}, fmt.Errorf("failed to write content of %s: %w", node.ID, err)
		}
		node.LastModified = info.LastModified
	}

	s.logger.Debug("document created", "id", node.ID, "bytes", len(content))
	return node, nil
}

// CreateFolder creates a folder node.
func (s *Service) CreateFolder(ctx context.Context, parentID, label string) (Node, error) {
	if err := validateLabel(label); err != nil {
		return Node{}, err
	}
	reason := changeReason(ctx, fmt.Sprintf("create folder %s", label))
	return s.connector.CreateNode(ctx, parentID, label, NodeTypeFolder, reason)
}

// ReadContent returns the full content of the node with the given ID.
// Unknown IDs return ErrNodeNotFound.
func (s *Service) ReadContent(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("node ID cannot be empty")
	}

	node, ok, err := s.connector.Node(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("node with id %s: %w", id, ErrNodeNotFound)
	}

	rc, err := s.connector.Content(ctx, node)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// WriteContent replaces the content of an existing node.
func (s *Service) WriteContent(ctx context.Context, id string, content []byte) (ContentInformation, error) {
	if id == "" {
		return NotFound(), fmt.Errorf("node ID cannot be empty")
	}

	node, ok, err := s.connector.Node(ctx, id)
	if err != nil {
		return NotFound(), err
	}
	if !ok {
		// Let the connector report the miss so its error wording is preserved.
		node = Node{ID: id, Label: id, ConnectorID: s.connector.ID()}
	}

	reason := changeReason(ctx, fmt.Sprintf("update %s", id))
	return s.connector.UpdateContent(ctx, node, bytes.NewReader(content), reason)
}

// List returns the children of the node with the given ID, or of the root
// when id is empty.
func (s *Service) List(ctx context.Context, id string) ([]Node, error) {
	var parent Node
	var err error
	if id == "" {
		parent, err = s.connector.Root(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		var ok bool
		parent, ok, err = s.connector.Node(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Hard-coded folders are not stored as nodes in every connector.
			parent = Node{ID: id, Label: id, Type: NodeTypeFolder}
		}
	}
	return s.connector.Children(ctx, parent)
}

// Delete removes the node with the given ID. Unknown IDs are a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("node ID cannot be empty")
	}
	node, ok, err := s.connector.Node(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Debug("delete skipped, node not found", "id", id)
		return nil
	}
	return s.connector.DeleteNode(ctx, node, changeReason(ctx, fmt.Sprintf("delete %s", id)))
}

// Watch observes changes in the connector if supported.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.connector.(Watchable)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	return w.Watch(ctx, pattern)
}

func validateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("%w: label cannot be empty", ErrInvalidLabel)
	}
	return nil
}

func changeReason(ctx context.Context, def string) string {
	if val, ok := ctx.Value(ChangeReasonKey).(string); ok && val != "" {
		return val
	}
	return def
}

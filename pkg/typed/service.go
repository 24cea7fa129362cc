// Package typed stores Go values as document content, encoded by the
// document label's extension.
package typed

import (
	"context"
	"fmt"

	"github.com/aretw0/bpmx/pkg/core"
)

// Service wraps a core.Service to read and write typed documents below one folder.
type Service[T any] struct {
	svc    *core.Service
	folder string
}

// NewService creates a typed view of the documents below folderID.
func NewService[T any](svc *core.Service, folderID string) *Service[T] {
	return &Service[T]{svc: svc, folder: folderID}
}

// Create stores data as a new document named label.
func (s *Service[T]) Create(ctx context.Context, label string, data T) (*DocumentModel[T], error) {
	content, err := CodecFor(label).Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal failed: %w", err)
	}

	node, err := s.svc.CreateDocument(ctx, s.folder, label, content)
	if err != nil {
		return nil, err
	}
	return &DocumentModel[T]{ID: node.ID, Label: node.Label, LastModified: node.LastModified, Data: data, Saver: s}, nil
}

// Save replaces the content of an existing document.
func (s *Service[T]) Save(ctx context.Context, doc *DocumentModel[T]) error {
	if doc.Saver == nil {
		doc.Saver = s
	}

	label := doc.Label
	if label == "" {
		label = doc.ID
	}
	content, err := CodecFor(label).Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	info, err := s.svc.WriteContent(ctx, doc.ID, content)
	if err != nil {
		return err
	}
	doc.LastModified = info.LastModified
	return nil
}

// Get reads and decodes a document.
func (s *Service[T]) Get(ctx context.Context, id string) (*DocumentModel[T], error) {
	content, err := s.svc.ReadContent(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.decode(core.Node{ID: id, Label: id}, content)
}

// List decodes every document of the folder. Sub-folders are skipped.
func (s *Service[T]) List(ctx context.Context) ([]*DocumentModel[T], error) {
	nodes, err := s.svc.List(ctx, s.folder)
	if err != nil {
		return nil, err
	}

	result := make([]*DocumentModel[T], 0, len(nodes))
	for _, n := range nodes {
		if n.IsFolder() {
			continue
		}
		content, err := s.svc.ReadContent(ctx, n.ID)
		if err != nil {
			return nil, err
		}
		model, err := s.decode(n, content)
		if err != nil {
			return nil, err
		}
		result = append(result, model)
	}
	return result, nil
}

// Delete removes a document.
func (s *Service[T]) Delete(ctx context.Context, id string) error {
	return s.svc.Delete(ctx, id)
}

// Watch observes changes in the underlying connector.
func (s *Service[T]) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	return s.svc.Watch(ctx, pattern)
}

func (s *Service[T]) decode(n core.Node, content []byte) (*DocumentModel[T], error) {
	var data T
	if len(content) > 0 {
		if err := CodecFor(n.Label).Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s into type %T: %w", n.ID, data, err)
		}
	}
	return &DocumentModel[T]{ID: n.ID, Label: n.Label, LastModified: n.LastModified, Data: data, Saver: s}, nil
}

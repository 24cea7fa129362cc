package typed

import (
	"context"
	"fmt"
	"time"
)

// DocumentModel is a typed view of a document node.
type DocumentModel[T any] struct {
	ID           string
	Label        string
	LastModified time.Time
	Data         T        // Decoded content
	Saver        Saver[T] // Active Record reference interface
}

// Saver interface avoids tight coupling between documents and the Service.
type Saver[T any] interface {
	Save(ctx context.Context, doc *DocumentModel[T]) error
}

// Save persists the document using the attached saver.
func (d *DocumentModel[T]) Save(ctx context.Context) error {
	if d.Saver == nil {
		return fmt.Errorf("document is detached (missing Saver)")
	}
	return d.Saver.Save(ctx, d)
}

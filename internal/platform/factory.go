package platform

import (
	"github.com/aretw0/bpmx/pkg/core"
)

// New creates a core.Service on top of a freshly initialized connector.
//
//	svc, err := bpmx.New("./documents", bpmx.WithReadOnly(true))
//
// The URI argument is adapter-specific (e.g., root directory for 'fs').
func New(uri string, opts ...Option) (*core.Service, error) {
	conn, err := Init(uri, opts...)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return core.NewService(conn, o.logger), nil
}

package bpmx

import (
	"log/slog"

	"github.com/aretw0/bpmx/internal/platform"
	"github.com/aretw0/bpmx/pkg/core"
	"github.com/aretw0/bpmx/pkg/history"
	"github.com/aretw0/bpmx/pkg/typed"
)

// --- Types ---

// DocumentModel is a public alias for the typed document model.
type DocumentModel[T any] = typed.DocumentModel[T]

// TypedService is a public alias for the typed service.
type TypedService[T any] = typed.Service[T]

// --- Configuration ---

// Option defines a functional option for configuring a connector.
type Option = platform.Option

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist ensures the root directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithLogger sets the logger for the service and the connector.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithConnector allows injecting a custom connector.
func WithConnector(c core.Connector) Option {
	return platform.WithConnector(c)
}

// WithAdapter selects the connector implementation by name ("fs" or "memory").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithConnectorID sets the configuration ID the connector is initialized with.
func WithConnectorID(id string) Option {
	return platform.WithConnectorID(id)
}

// WithEventBuffer sets the size of each watcher channel of the memory connector.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithReadOnly enables read-only mode.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithWatcherErrorHandler registers a callback for failures of the fs watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New creates a new document Service.
func New(uri string, opts ...Option) (*core.Service, error) {
	return platform.New(uri, opts...)
}

// Init creates and initializes a connector explicitly.
func Init(uri string, opts ...Option) (core.Connector, error) {
	return platform.Init(uri, opts...)
}

// NewTypedService creates a typed view of the documents below folderID.
func NewTypedService[T any](svc *core.Service, folderID string) *typed.Service[T] {
	return typed.NewService[T](svc, folderID)
}

// OpenTypedService simplifies creating a TypedService from a URI.
func OpenTypedService[T any](uri, folderID string, opts ...Option) (*typed.Service[T], error) {
	svc, err := New(uri, opts...)
	if err != nil {
		return nil, err
	}
	return typed.NewService[T](svc, folderID), nil
}

// --- History ---

// NewPerProcessLevel creates the per-process history level with the given
// custom levels registered next to the built-ins.
func NewPerProcessLevel(custom []history.Level, opts ...history.PerProcessOption) *history.PerProcessLevel {
	l := history.NewPerProcessLevel(opts...)
	l.AddLevels(custom...)
	return l
}

// --- Safety & Utils ---

// ResolveRootPath determines the actual root directory based on safety rules.
func ResolveRootPath(userPath string, forceTemp bool) string {
	return platform.ResolveRootPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot recursively looks upwards for a project root indicator.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

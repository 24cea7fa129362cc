package platform

import (
	"log/slog"

	"github.com/aretw0/bpmx/pkg/core"
)

// options holds the internal configuration for a bpmx connector.
type options struct {
	connector core.Connector
	logger    *slog.Logger
	adapter   string
	id        string
	config    map[string]interface{}
}

// Option defines a functional option for configuring a connector.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		connector: nil,
		logger:    nil,
		adapter:   "fs",
		id:        "default",
		config:    make(map[string]interface{}),
	}
}

// WithLogger sets the logger for the service and the connector.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConnector allows injecting a custom connector (e.g. mock, remote).
// If provided, the adapter selection is skipped and the connector is used as is.
func WithConnector(c core.Connector) Option {
	return func(o *options) {
		o.connector = c
	}
}

// WithAdapter selects the connector implementation by name ("fs" or "memory").
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithConnectorID sets the configuration ID the connector is initialized with.
// Defaults to "default".
func WithConnectorID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithMustExist ensures the root directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithEventBuffer sets the size of each watcher channel of the memory connector.
// Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.config["event_buffer"] = size
	}
}

// WithWatcherErrorHandler registers a callback to handle errors occurring during the Watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Write operations (create, delete, update) return ErrReadOnly.
// 2. The root directory is never created.
// 3. Dev Safety Lock (go run temp dir) is BYPASSED (uses real path).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default (true), the fs connector is re-rooted into a temporary directory.
// Setting this to false allows operating on the real filesystem.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

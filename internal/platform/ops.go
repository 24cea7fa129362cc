package platform

import (
	"fmt"

	"github.com/aretw0/bpmx/pkg/adapters/fs"
	"github.com/aretw0/bpmx/pkg/adapters/memory"
	"github.com/aretw0/bpmx/pkg/core"
)

// Init creates and initializes a connector based on the provided options.
// The 'uri' argument is adapter-specific (the root directory for 'fs', ignored by 'memory').
func Init(uri string, opts ...Option) (core.Connector, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	conn := o.connector
	if conn == nil {
		switch o.adapter {
		case "fs":
			conn = newFS(uri, o)
		case "memory":
			eventBuffer, _ := o.config["event_buffer"].(int)
			conn = memory.New(memory.Config{Logger: o.logger, EventBuffer: eventBuffer})
		default:
			return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
		}
	}

	cfg := core.Configuration{
		ID:         o.id,
		Name:       o.id,
		Adapter:    o.adapter,
		Properties: map[string]string{"path": uri},
	}
	if err := conn.Init(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize %s connector: %w", o.adapter, err)
	}
	return conn, nil
}

// newFS handles the path resolution logic for the filesystem adapter.
func newFS(path string, o *options) *fs.Connector {
	tempDir, _ := o.config["temp_dir"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	isReadOnly, _ := o.config["read_only"].(bool)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	// Read-only connectors cannot damage anything.
	bypassSafety := isReadOnly || !devSafety
	useTemp := tempDir || (IsDevRun() && !bypassSafety)
	resolvedPath := ResolveRootPath(path, useTemp)

	if o.logger != nil && useTemp {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolvedPath)
	}

	return fs.New(fs.Config{
		Path:         resolvedPath,
		MustExist:    mustExist,
		ReadOnly:     isReadOnly,
		Logger:       o.logger,
		ErrorHandler: errorHandler,
	})
}

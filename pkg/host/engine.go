// Package host runs deployed BPMN processes just far enough to drive history
// levels: every step of an instance is offered to the configured level and
// the produced events are persisted in a history store.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/bpmx/pkg/bpmn"
	"github.com/aretw0/bpmx/pkg/history"
)

// ErrProcessNotDeployed is returned when starting an unknown process key.
var ErrProcessNotDeployed = errors.New("process not deployed")

// Engine executes unbranched processes synchronously.
type Engine struct {
	level  history.Level
	store  history.Store
	logger *slog.Logger
	clock  func() time.Time
	newID  func() string

	mu          sync.RWMutex
	deployments map[string]deployment
	started     int
}

type deployment struct {
	process *bpmn.Process
	path    []bpmn.FlowNode
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStore sets where produced history is written. Defaults to a
// history.MemoryStore.
func WithStore(s history.Store) Option {
	return func(e *Engine) {
		if s != nil {
			e.store = s
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithIDGenerator overrides how process instance IDs are generated.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// New creates an engine that asks level about every history event.
// A nil level produces no history.
func New(level history.Level, opts ...Option) *Engine {
	if level == nil {
		level = history.LevelNone
	}
	e := &Engine{
		level:       level,
		store:       history.NewMemoryStore(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:       time.Now,
		newID:       uuid.NewString,
		deployments: make(map[string]deployment),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the history store the engine writes to.
func (e *Engine) Store() history.Store {
	return e.store
}

// Deploy registers every process of defs under its ID. A process that cannot
// be executed fails the whole deployment.
func (e *Engine) Deploy(defs *bpmn.Definitions) error {
	if defs == nil || len(defs.Processes) == 0 {
		return bpmn.ErrNoProcess
	}

	staged := make(map[string]deployment, len(defs.Processes))
	for i := range defs.Processes {
		p := &defs.Processes[i]
		if p.ID == "" {
			return errors.New("process without id")
		}
		path, err := p.Path()
		if err != nil {
			return fmt.Errorf("failed to deploy %s: %w", p.ID, err)
		}
		staged[p.ID] = deployment{process: p, path: path}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for key, d := range staged {
		e.deployments[key] = d
		e.logger.Info("process deployed", "key", key, "nodes", len(d.path))
	}
	return nil
}

// Processes returns the deployed process keys, sorted.
func (e *Engine) Processes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]string, 0, len(e.deployments))
	for k := range e.deployments {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Start runs a new instance of the process deployed under key to completion
// and returns its ID. Variables are created in name order right after the
// instance starts.
func (e *Engine) Start(ctx context.Context, key string, vars map[string]any) (string, error) {
	e.mu.Lock()
	d, ok := e.deployments[key]
	if ok {
		e.started++
	}
	e.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrProcessNotDeployed, key)
	}

	exec := &execution{id: e.newID(), process: d.process}
	r := &run{engine: e, exec: exec, key: key}

	r.emit(ctx, history.ProcessInstanceStart, exec, history.Record{
		Kind:  history.KindProcessInstance,
		ID:    exec.id,
		Start: e.clock(),
	})

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := &variable{processInstanceID: exec.id, name: name, value: vars[name]}
		r.emit(ctx, history.VariableInstanceCreate, v, history.Record{
			Kind:         history.KindVariableInstance,
			ID:           exec.id + ":" + name,
			VariableName: name,
			Value:        v.String(),
		})
	}

	for _, node := range d.path {
		id := exec.id + ":" + node.ID
		exec.activityID = node.ID
		r.emit(ctx, history.ActivityInstanceStart, exec, history.Record{
			Kind: history.KindActivityInstance, ID: id, ActivityID: node.ID, Start: e.clock(),
		})
		r.emit(ctx, history.ActivityInstanceEnd, exec, history.Record{
			Kind: history.KindActivityInstance, ID: id, End: e.clock(),
		})
	}
	exec.activityID = ""

	r.emit(ctx, history.ProcessInstanceEnd, exec, history.Record{
		Kind: history.KindProcessInstance,
		ID:   exec.id,
		End:  e.clock(),
	})

	if r.err != nil {
		return exec.id, r.err
	}
	e.logger.Debug("process instance completed", "key", key, "instance", exec.id, "recorded", r.recorded)
	return exec.id, nil
}

// run carries the state of one Start call. The first failure stops further
// writes; every later event is still offered to the level so that the
// level observes the complete instance lifecycle.
type run struct {
	engine   *Engine
	exec     *execution
	key      string
	recorded int
	err      error
}

func (r *run) emit(ctx context.Context, t history.EventType, entity history.Entity, rec history.Record) {
	if !r.engine.level.IsHistoryEventProduced(t, entity) {
		return
	}
	if r.err == nil {
		r.err = ctx.Err()
	}
	if r.err != nil {
		return
	}

	rec.ProcessInstanceID = r.exec.id
	rec.ProcessKey = r.key
	rec.LastEvent = t
	if err := r.engine.store.Save(ctx, rec); err != nil {
		r.err = fmt.Errorf("failed to record %s of %s: %w", t, r.exec.id, err)
		return
	}
	r.recorded++
}

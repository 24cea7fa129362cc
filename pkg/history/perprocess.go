package history

import (
	"io"
	"log/slog"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
)

const (
	// PerProcessID is the ID the per-process level registers under.
	PerProcessID = 12
	// PerProcessName is the name the per-process level registers under.
	PerProcessName = "per-process"
	// DefaultPropertyName is the process extension property naming the level.
	DefaultPropertyName = "history"
)

// PerProcessLevel delegates each decision to a level chosen per process
// instance. The choice is made once, on the instance's process-instance-start
// event, from the process's "history" extension property.
type PerProcessLevel struct {
	mu       sync.RWMutex
	levels   map[string]Level
	fallback Level

	delegates cmap.ConcurrentMap[string, Level]

	property   string
	evictOnEnd bool
	logger     *slog.Logger
}

// PerProcessOption configures a PerProcessLevel.
type PerProcessOption func(*PerProcessLevel)

// WithFallback sets the level used when a process names no level or an
// unknown one. Nil suppresses all history of such instances. Defaults to LevelNone.
func WithFallback(l Level) PerProcessOption {
	return func(p *PerProcessLevel) {
		p.fallback = l
	}
}

// WithPropertyName changes the extension property that names the level.
func WithPropertyName(name string) PerProcessOption {
	return func(p *PerProcessLevel) {
		if name != "" {
			p.property = name
		}
	}
}

// WithEvictOnEnd controls whether an instance's delegate is forgotten once its
// process-instance-end event was decided. Enabled by default.
func WithEvictOnEnd(evict bool) PerProcessOption {
	return func(p *PerProcessLevel) {
		p.evictOnEnd = evict
	}
}

// WithLogger sets the logger used to report unresolvable configuration.
func WithLogger(logger *slog.Logger) PerProcessOption {
	return func(p *PerProcessLevel) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPerProcessLevel creates a level that knows the four built-in levels.
func NewPerProcessLevel(opts ...PerProcessOption) *PerProcessLevel {
	p := &PerProcessLevel{
		levels:     make(map[string]Level),
		fallback:   LevelNone,
		delegates:  cmap.New[Level](),
		property:   DefaultPropertyName,
		evictOnEnd: true,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, l := range BuiltinLevels() {
		p.levels[l.Name()] = l
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddLevels registers levels by name. A later level replaces an earlier one
// with the same name, built-ins included.
func (p *PerProcessLevel) AddLevels(levels ...Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range levels {
		if l == nil {
			continue
		}
		p.levels[l.Name()] = l
	}
}

// Level returns the registered level with the given name.
func (p *PerProcessLevel) Level(name string) (Level, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	l, ok := p.levels[name]
	return l, ok
}

// LevelNames returns the registered level names, sorted.
func (p *PerProcessLevel) LevelNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return sortedNames(p.levels)
}

// Delegate returns the level currently chosen for a process instance.
func (p *PerProcessLevel) Delegate(processInstanceID string) (Level, bool) {
	return p.delegates.Get(processInstanceID)
}

func (p *PerProcessLevel) ID() int { return PerProcessID }
func (p *PerProcessLevel) Name() string { return PerProcessName }

// IsHistoryEventProduced forwards the decision to the delegate of the
// entity's process instance. Events without an entity are always produced,
// events of instances without a delegate never are.
func (p *PerProcessLevel) IsHistoryEventProduced(t EventType, entity Entity) bool {
	if entity == nil {
		return true
	}

	if t == ProcessInstanceStart {
		if exec, ok := entity.(Execution); ok {
			p.assignDelegate(exec)
		}
	}

	pid := processInstanceID(entity)
	if pid == "" {
		return false
	}

	delegate, ok := p.delegates.Get(pid)
	produced := ok && delegate.IsHistoryEventProduced(t, entity)

	if t == ProcessInstanceEnd && p.evictOnEnd {
		if _, isExec := entity.(Execution); isExec {
			p.delegates.Remove(pid)
		}
	}
	return produced
}

func (p *PerProcessLevel) assignDelegate(exec Execution) {
	pid := exec.ProcessInstanceID()
	if pid == "" {
		return
	}

	proc := exec.Process()
	processID := ""
	if proc != nil {
		processID = proc.ID
	}

	name, found := proc.Property(p.property)
	if !found {
		p.logger.Warn("process declares no history level, using fallback",
			"process", processID, "instance", pid, "property", p.property, "fallback", levelName(p.fallback))
		p.setDelegate(pid, p.fallback)
		return
	}

	level, ok := p.Level(name)
	if !ok {
		p.logger.Warn("process names an unknown history level, using fallback",
			"process", processID, "instance", pid, "level", name, "fallback", levelName(p.fallback))
		p.setDelegate(pid, p.fallback)
		return
	}

	p.logger.Debug("history level selected", "process", processID, "instance", pid, "level", name)
	p.setDelegate(pid, level)
}

func (p *PerProcessLevel) setDelegate(pid string, l Level) {
	if l == nil {
		p.delegates.Remove(pid)
		return
	}
	p.delegates.Set(pid, l)
}

func levelName(l Level) string {
	if l == nil {
		return "<none>"
	}
	return l.Name()
}

var _ Level = (*PerProcessLevel)(nil)

package history

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Kind is the type of a historic entity.
type Kind string

const (
	KindProcessInstance  Kind = "process-instance"
	KindActivityInstance Kind = "activity-instance"
	KindVariableInstance Kind = "variable-instance"
)

// Record is the persisted form of a produced history event.
// Records with the same Kind and ID describe the same entity; saving a
// record merges its non-zero fields into the stored one.
type Record struct {
	Kind              Kind      `json:"kind"`
	ID                string    `json:"id"`
	ProcessInstanceID string    `json:"process_instance_id"`
	ProcessKey        string    `json:"process_key,omitempty"`
	ActivityID        string    `json:"activity_id,omitempty"`
	VariableName      string    `json:"variable_name,omitempty"`
	Value             string    `json:"value,omitempty"`
	Start             time.Time `json:"start,omitzero"`
	End               time.Time `json:"end,omitzero"`
	LastEvent         EventType `json:"last_event"`
}

// Merge returns r updated with the non-zero fields of next.
func (r Record) Merge(next Record) Record {
	if next.ProcessInstanceID != "" {
		r.ProcessInstanceID = next.ProcessInstanceID
	}
	if next.ProcessKey != "" {
		r.ProcessKey = next.ProcessKey
	}
	if next.ActivityID != "" {
		r.ActivityID = next.ActivityID
	}
	if next.VariableName != "" {
		r.VariableName = next.VariableName
	}
	if next.Value != "" {
		r.Value = next.Value
	}
	if !next.Start.IsZero() {
		r.Start = next.Start
	}
	if !next.End.IsZero() {
		r.End = next.End
	}
	if next.LastEvent != "" {
		r.LastEvent = next.LastEvent
	}
	return r
}

// Query selects records. Empty fields match everything.
type Query struct {
	Kind              Kind
	ProcessInstanceID string
	ProcessKey        string
}

// Matches reports whether r satisfies q.
func (q Query) Matches(r Record) bool {
	return (q.Kind == "" || q.Kind == r.Kind) &&
		(q.ProcessInstanceID == "" || q.ProcessInstanceID == r.ProcessInstanceID) &&
		(q.ProcessKey == "" || q.ProcessKey == r.ProcessKey)
}

// Store persists history records.
// Implementations must be safe for concurrent use.
type Store interface {
	Save(ctx context.Context, r Record) error
	List(ctx context.Context, q Query) ([]Record, error)
	Count(ctx context.Context, q Query) (int, error)
	Close() error
}

type recordKey struct {
	kind Kind
	id   string
}

// MemoryStore keeps records in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]Record
	closed  bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[recordKey]Record)}
}

func (s *MemoryStore) Save(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	key := recordKey{r.Kind, r.ID}
	if existing, ok := s.records[key]; ok {
		r = existing.Merge(r)
	}
	s.records[key] = r
	return nil
}

// List returns matching records ordered by start time, then ID.
func (s *MemoryStore) List(ctx context.Context, q Query) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var out []Record
	for _, r := range s.records {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, q Query) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrStoreClosed
	}

	n := 0
	for _, r := range s.records {
		if q.Matches(r) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ Store = (*MemoryStore)(nil)

// Package sqlite persists history records in SQLite through modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aretw0/bpmx/pkg/history"
)

// Store is a history.Store backed by a SQLite database.
type Store struct {
	db     *sql.DB
	closed atomic.Bool
}

// New opens (and creates when needed) a SQLite history store.
// DSN format:
//   - "sqlite:///path/to/file.db"
//   - "sqlite://:memory:"
//   - "/path/to/file.db" (without prefix)
//   - ":memory:"
func New(dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("empty SQLite DSN")
	}
	if strings.HasPrefix(strings.ToLower(dsn), "sqlite://") {
		dsn = dsn[len("sqlite://"):]
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS history_records(
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		process_instance_id TEXT NOT NULL DEFAULT '',
		process_key TEXT NOT NULL DEFAULT '',
		activity_id TEXT NOT NULL DEFAULT '',
		variable_name TEXT NOT NULL DEFAULT '',
		value TEXT NOT NULL DEFAULT '',
		start_time TEXT,
		end_time TEXT,
		last_event TEXT NOT NULL DEFAULT '',
		PRIMARY KEY(kind, id)
	);
	CREATE INDEX IF NOT EXISTS idx_history_records_pi ON history_records(process_instance_id);`
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

// Save inserts r or merges its non-empty fields into the stored record with
// the same kind and ID.
func (s *Store) Save(ctx context.Context, r history.Record) error {
	if s.closed.Load() {
		return history.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history_records(kind, id, process_instance_id, process_key, activity_id,
			variable_name, value, start_time, end_time, last_event)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			process_instance_id = COALESCE(NULLIF(excluded.process_instance_id, ''), process_instance_id),
			process_key = COALESCE(NULLIF(excluded.process_key, ''), process_key),
			activity_id = COALESCE(NULLIF(excluded.activity_id, ''), activity_id),
			variable_name = COALESCE(NULLIF(excluded.variable_name, ''), variable_name),
			value = COALESCE(NULLIF(excluded.value, ''), value),
			start_time = COALESCE(excluded.start_time, start_time),
			end_time = COALESCE(excluded.end_time, end_time),
			last_event = COALESCE(NULLIF(excluded.last_event, ''), last_event);`,
		string(r.Kind), r.ID, r.ProcessInstanceID, r.ProcessKey, r.ActivityID,
		r.VariableName, r.Value, formatTime(r.Start), formatTime(r.End), string(r.LastEvent))
	if err != nil {
		return fmt.Errorf("failed to save %s %s: %w", r.Kind, r.ID, err)
	}
	return nil
}

// List returns matching records ordered by start time, then ID.
func (s *Store) List(ctx context.Context, q history.Query) ([]history.Record, error) {
	if s.closed.Load() {
		return nil, history.ErrStoreClosed
	}

	where, args := whereClause(q)
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, id, process_instance_id, process_key, activity_id, variable_name, value,
			start_time, end_time, last_event
		FROM history_records`+where+`
		ORDER BY COALESCE(start_time, ''), id;`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []history.Record
	for rows.Next() {
		var (
			r          history.Record
			kind, last string
			start, end sql.NullString
		)
		if err := rows.Scan(&kind, &r.ID, &r.ProcessInstanceID, &r.ProcessKey, &r.ActivityID,
			&r.VariableName, &r.Value, &start, &end, &last); err != nil {
			return nil, err
		}
		r.Kind = history.Kind(kind)
		r.LastEvent = history.EventType(last)
		if r.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if r.End, err = parseTime(end); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context, q history.Query) (int, error) {
	if s.closed.Load() {
		return 0, history.ErrStoreClosed
	}

	where, args := whereClause(q)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history_records`+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func whereClause(q history.Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(q.Kind))
	}
	if q.ProcessInstanceID != "" {
		conds = append(conds, "process_instance_id = ?")
		args = append(args, q.ProcessInstanceID)
	}
	if q.ProcessKey != "" {
		conds = append(conds, "process_key = ?")
		args = append(args, q.ProcessKey)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Times are stored as UTC RFC 3339 text so that they sort lexically.
func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

func parseTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s.String)
}

var _ history.Store = (*Store)(nil)

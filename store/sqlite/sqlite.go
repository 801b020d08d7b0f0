/*
Package sqlite provides a SQLite-backed mirror of tracked sample requests.

PURPOSE:
  The request tracker owns sample requests. This store keeps a local copy of
  the fields the SLA engine consumes (deadline, status, fulfillment method)
  plus display fields, so the board endpoints and the refresher have a source
  to evaluate.

WHAT IS NOT STORED:
  Computed SLA values (minutes, level, label). They depend on "now" and are
  recomputed on every read.

KEY TABLES:
  sample_requests:  One row per tracked request

INDEXES:
  - idx_sample_requests_status:      Board filters by status
  - idx_sample_requests_required_by: Deadline ordering

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of database/sql.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so dashboard reads do not
  block the status updates coming from the tracker.

USAGE:
  store, err := sqlite.New("./data/sla.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - api/handlers.go: CRUD endpoints over this store
  - api/refresher.go: periodic board re-evaluation
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/sample-sla/sla"
)

// ErrNotFound is returned by mutations that target a missing request.
var ErrNotFound = errors.New("sample request not found")

// timeLayout is fixed-width so stored timestamps sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements request persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sample_requests (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		requester TEXT,
		required_by TEXT,
		status TEXT NOT NULL,
		fulfillment_method TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sample_requests_status
		ON sample_requests(status);
	CREATE INDEX IF NOT EXISTS idx_sample_requests_required_by
		ON sample_requests(required_by) WHERE required_by IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SAMPLE REQUESTS
// =============================================================================

// SampleRequest is the mirrored subset of a tracked request.
type SampleRequest struct {
	ID                string
	Title             string
	Requester         string
	RequiredBy        *time.Time
	Status            sla.Status
	FulfillmentMethod sla.FulfillmentMethod
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SLAInput builds the engine input for this request at the given instant.
func (r SampleRequest) SLAInput(now time.Time) sla.Input {
	return sla.Input{
		Now:               now,
		Deadline:          r.RequiredBy,
		Status:            r.Status,
		FulfillmentMethod: r.FulfillmentMethod,
	}
}

// SaveRequest inserts a request or replaces the tracked fields of an existing one.
func (s *Store) SaveRequest(ctx context.Context, r SampleRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO sample_requests (id, title, requester, required_by, status,
			fulfillment_method, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			requester = excluded.requester,
			required_by = excluded.required_by,
			status = excluded.status,
			fulfillment_method = excluded.fulfillment_method,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Title, nullString(r.Requester), formatOptionalTime(r.RequiredBy),
		string(r.Status), nullString(string(r.FulfillmentMethod)),
		r.CreatedAt.UTC().Format(timeLayout), r.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save request %s: %w", r.ID, err)
	}
	return nil
}

// GetRequest retrieves a request by ID. Returns nil, nil when absent.
func (s *Store) GetRequest(ctx context.Context, id string) (*SampleRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectRequests+` WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	r, err := scanRequest(rows)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRequests returns every mirrored request, earliest deadline first.
// Requests without a deadline come last.
func (s *Store) ListRequests(ctx context.Context) ([]SampleRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectRequests+`
		ORDER BY required_by IS NULL, required_by, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SampleRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateStatus records a lifecycle change reported by the tracker.
func (s *Store) UpdateStatus(ctx context.Context, id string, status sla.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE sample_requests SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), at.UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("update status %s: %w", id, err)
	}
	return requireAffected(res, id)
}

// DeleteRequest removes a request from the mirror.
func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM sample_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete request %s: %w", id, err)
	}
	return requireAffected(res, id)
}

// Reset clears all data (for testing/demos).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM sample_requests`)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

const selectRequests = `
	SELECT id, title, requester, required_by, status, fulfillment_method, created_at, updated_at
	FROM sample_requests`

func scanRequest(rows *sql.Rows) (SampleRequest, error) {
	var r SampleRequest
	var status, createdAt, updatedAt string
	var requester, requiredBy, method sql.NullString

	if err := rows.Scan(&r.ID, &r.Title, &requester, &requiredBy, &status, &method, &createdAt, &updatedAt); err != nil {
		return SampleRequest{}, err
	}

	r.Requester = requester.String
	r.Status = sla.Status(status)
	r.FulfillmentMethod = sla.FulfillmentMethod(method.String)

	var err error
	if r.CreatedAt, err = parseColumn(r.ID, "created_at", createdAt); err != nil {
		return SampleRequest{}, err
	}
	if r.UpdatedAt, err = parseColumn(r.ID, "updated_at", updatedAt); err != nil {
		return SampleRequest{}, err
	}
	if requiredBy.Valid {
		t, err := parseColumn(r.ID, "required_by", requiredBy.String)
		if err != nil {
			return SampleRequest{}, err
		}
		r.RequiredBy = &t
	}
	return r, nil
}

func parseColumn(id, column, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("request %s: bad %s %q: %w", id, column, value, err)
	}
	return t, nil
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatOptionalTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jameskraus/nab/pkg/db"
)

// ErrNotFound is returned when no action exists with the requested id.
var ErrNotFound = errors.New("journal action not found")

// timeFormat is fixed-width so that lexicographic order on the stored
// created_at column matches chronological order.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Store manages journal persistence. It only ever inserts; no code path
// updates or deletes a row after insert.
type Store struct {
	conn *db.Connection
}

// NewStore creates a new Store instance.
func NewStore(conn *db.Connection) *Store {
	return &Store{conn: conn}
}

// Record appends an action to the journal.
func (s *Store) Record(ctx context.Context, action *Action) error {
	payload, err := json.Marshal(action.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	var inverse sql.NullString
	if action.Inverse != nil {
		data, err := json.Marshal(action.Inverse)
		if err != nil {
			return fmt.Errorf("failed to encode inverse: %w", err)
		}
		inverse = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO actions (id, created_at, action_type, payload, inverse)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = s.conn.ExecContext(ctx, query,
		action.ID,
		action.CreatedAt.UTC().Format(timeFormat),
		action.Type,
		string(payload),
		inverse,
	)
	if err != nil {
		return fmt.Errorf("failed to record action: %w", err)
	}

	return nil
}

// Get retrieves an action by id.
func (s *Store) Get(ctx context.Context, id string) (*Action, error) {
	query := `
		SELECT id, created_at, action_type, payload, inverse
		FROM actions
		WHERE id = ?
	`

	action, err := scanAction(s.conn.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get action: %w", err)
	}

	return action, nil
}

// ListOptions narrows an action listing.
type ListOptions struct {
	Limit int       // 0 for no limit
	Since time.Time // zero for no filter
}

// List retrieves actions ordered by creation time descending.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Action, error) {
	query := `
		SELECT id, created_at, action_type, payload, inverse
		FROM actions
		WHERE created_at >= ?
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{opts.Since.UTC().Format(timeFormat)}

	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, *action)
	}

	return actions, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAction(row scanner) (*Action, error) {
	var (
		action    Action
		createdAt string
		payload   string
		inverse   sql.NullString
	)

	if err := row.Scan(&action.ID, &createdAt, &action.Type, &payload, &inverse); err != nil {
		return nil, err
	}

	ts, err := time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	action.CreatedAt = ts

	if err := json.Unmarshal([]byte(payload), &action.Payload); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	if inverse.Valid {
		action.Inverse = &Inverse{}
		if err := json.Unmarshal([]byte(inverse.String), action.Inverse); err != nil {
			return nil, fmt.Errorf("invalid inverse: %w", err)
		}
	}

	return &action, nil
}

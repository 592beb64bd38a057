package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pairs-api/internal/models"
)

const rosterSnapshotSchema = `CREATE TABLE IF NOT EXISTS roster_snapshots (
    id TEXT PRIMARY KEY,
    revision TEXT NOT NULL,
    payload TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`

// SQLRosterRepository stores roster snapshots as JSON rows keyed by roster id. The queries are
// portable across PostgreSQL and SQLite.
type SQLRosterRepository struct {
	db       *sqlx.DB
	rosterID string
}

type rosterSnapshotRow struct {
	ID       string `db:"id"`
	Revision string `db:"revision"`
	Payload  string `db:"payload"`
}

// NewSQLRosterRepository constructs the repository for one roster.
func NewSQLRosterRepository(db *sqlx.DB, rosterID string) *SQLRosterRepository {
	if rosterID == "" {
		rosterID = "default"
	}
	return &SQLRosterRepository{db: db, rosterID: rosterID}
}

// EnsureSchema creates the snapshot table when missing.
func (r *SQLRosterRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, rosterSnapshotSchema); err != nil {
		return fmt.Errorf("ensure roster schema: %w", err)
	}
	return nil
}

// Load returns the stored roster, or an empty one when none was saved yet.
func (r *SQLRosterRepository) Load(ctx context.Context) (*models.Roster, error) {
	var row rosterSnapshotRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, revision, payload FROM roster_snapshots WHERE id = $1`, r.rosterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewRoster(), nil
		}
		return nil, fmt.Errorf("load roster %s: %w", r.rosterID, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(row.Payload), &snap); err != nil {
		return nil, fmt.Errorf("decode roster %s: %w", r.rosterID, err)
	}
	roster, err := snap.Roster()
	if err != nil {
		return nil, fmt.Errorf("invalid roster %s: %w", r.rosterID, err)
	}
	if roster.Revision == "" {
		roster.Revision = row.Revision
	}
	return roster, nil
}

// Save upserts the snapshot row in a single statement.
func (r *SQLRosterRepository) Save(ctx context.Context, roster *models.Roster) error {
	payload, err := json.Marshal(roster.Snapshot())
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	updatedAt := roster.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query := `INSERT INTO roster_snapshots (id, revision, payload, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE SET revision = EXCLUDED.revision, payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, r.rosterID, roster.Revision, string(payload), updatedAt); err != nil {
		return fmt.Errorf("save roster %s: %w", r.rosterID, err)
	}
	return nil
}

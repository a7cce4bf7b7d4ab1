package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"crew/internal/audit"
	"crew/internal/catalog"
	id "crew/pkg/domain"
)

// Schema for the audit trail. Entries are append-only: no UPDATE or DELETE
// path exists in this store. Indexed for the two retrieval patterns the
// service exposes: by target user and by time range.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id                  UUID PRIMARY KEY,
	timestamp           TIMESTAMPTZ NOT NULL,
	actor               UUID NOT NULL,
	target_user_id      UUID NOT NULL,
	operation           TEXT NOT NULL,
	team_id             TEXT NOT NULL DEFAULT '',
	role                TEXT NOT NULL DEFAULT '',
	before_permissions  TEXT[] NOT NULL DEFAULT '{}',
	after_permissions   TEXT[] NOT NULL DEFAULT '{}',
	added_permissions   TEXT[] NOT NULL DEFAULT '{}',
	removed_permissions TEXT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_audit_entries_target ON audit_entries (target_user_id, timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_audit_entries_timestamp ON audit_entries (timestamp DESC)`

// Store implements audit.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the audit table and indexes if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure audit_entries schema: %w", err)
	}
	return nil
}

// Append inserts one entry. Idempotent on entry ID so a retried write never
// duplicates the trail.
func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	query := `
		INSERT INTO audit_entries (
			id, timestamp, actor, target_user_id, operation, team_id, role,
			before_permissions, after_permissions, added_permissions, removed_permissions
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.Timestamp,
		entry.Actor.String(),
		entry.TargetUserID.String(),
		string(entry.Operation),
		string(entry.TeamID),
		string(entry.Role),
		pq.Array(entry.BeforePermissions),
		pq.Array(entry.AfterPermissions),
		pq.Array(entry.AddedPermissions),
		pq.Array(entry.RemovedPermissions),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListByTarget(ctx context.Context, targetUserID id.UserID) ([]audit.Entry, error) {
	query := selectClause + `
		WHERE target_user_id = $1
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, targetUserID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) ListRange(ctx context.Context, from, to time.Time) ([]audit.Entry, error) {
	query := selectClause + `
		WHERE timestamp >= $1 AND timestamp < $2
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	query := selectClause + `
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

const selectClause = `
	SELECT id, timestamp, actor, target_user_id, operation, team_id, role,
	       before_permissions, after_permissions, added_permissions, removed_permissions
	FROM audit_entries
`

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry
	for rows.Next() {
		var (
			e            audit.Entry
			rawActor     string
			rawTarget    string
			rawOperation string
			rawTeamID    string
			rawRole      string
		)
		err := rows.Scan(
			&e.ID,
			&e.Timestamp,
			&rawActor,
			&rawTarget,
			&rawOperation,
			&rawTeamID,
			&rawRole,
			pq.Array(&e.BeforePermissions),
			pq.Array(&e.AfterPermissions),
			pq.Array(&e.AddedPermissions),
			pq.Array(&e.RemovedPermissions),
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		actor, err := id.ParseUserID(rawActor)
		if err != nil {
			return nil, fmt.Errorf("stored actor id: %w", err)
		}
		target, err := id.ParseUserID(rawTarget)
		if err != nil {
			return nil, fmt.Errorf("stored target user id: %w", err)
		}
		e.Actor = actor
		e.TargetUserID = target
		e.Operation = audit.Operation(rawOperation)
		e.TeamID = catalog.TeamID(rawTeamID)
		e.Role = catalog.Role(rawRole)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

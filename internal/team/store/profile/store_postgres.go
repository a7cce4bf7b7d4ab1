package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"crew/internal/team/models"
	id "crew/pkg/domain"
	"crew/pkg/platform/sentinel"
	"crew/pkg/requestcontext"
)

// Schema for the staff profile table. Applied by EnsureSchema at startup;
// idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS staff_profiles (
	user_id               UUID PRIMARY KEY,
	base_permissions      TEXT[] NOT NULL DEFAULT '{}',
	teams                 JSONB NOT NULL DEFAULT '[]',
	effective_permissions TEXT[] NOT NULL DEFAULT '{}',
	version               BIGINT NOT NULL DEFAULT 1,
	created_at            TIMESTAMPTZ NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL
)`

// Postgres implements Store on PostgreSQL. The teams list is stored as JSONB
// (it is only ever read whole-profile); permission sets use text arrays. The
// version column carries the optimistic concurrency check.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the staff profile table if missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure staff_profiles schema: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, p *models.StaffProfile) error {
	teams, err := json.Marshal(p.Teams)
	if err != nil {
		return fmt.Errorf("marshal team assignments: %w", err)
	}

	query := `
		INSERT INTO staff_profiles (user_id, base_permissions, teams, effective_permissions, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		p.UserID.String(),
		pq.Array(p.BasePermissions),
		teams,
		pq.Array(p.EffectivePermissions),
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert staff profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert staff profile: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrAlreadyExists
	}
	return nil
}

func (s *Postgres) FindByUserID(ctx context.Context, userID id.UserID) (*models.StaffProfile, error) {
	query := `
		SELECT user_id, base_permissions, teams, effective_permissions, version, created_at, updated_at
		FROM staff_profiles
		WHERE user_id = $1
	`
	p, err := scanProfile(s.db.QueryRowContext(ctx, query, userID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("query staff profile: %w", err)
	}
	return p, nil
}

func (s *Postgres) Update(ctx context.Context, p *models.StaffProfile) error {
	teams, err := json.Marshal(p.Teams)
	if err != nil {
		return fmt.Errorf("marshal team assignments: %w", err)
	}
	now := requestcontext.Now(ctx)

	query := `
		UPDATE staff_profiles
		SET base_permissions = $2,
		    teams = $3,
		    effective_permissions = $4,
		    version = version + 1,
		    updated_at = $5
		WHERE user_id = $1 AND version = $6
	`
	res, err := s.db.ExecContext(ctx, query,
		p.UserID.String(),
		pq.Array(p.BasePermissions),
		teams,
		pq.Array(p.EffectivePermissions),
		now,
		p.Version,
	)
	if err != nil {
		return fmt.Errorf("update staff profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update staff profile: %w", err)
	}
	if affected == 0 {
		// Distinguish a vanished record from a lost version race.
		var exists bool
		checkErr := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM staff_profiles WHERE user_id = $1)`,
			p.UserID.String(),
		).Scan(&exists)
		if checkErr != nil {
			return fmt.Errorf("check staff profile existence: %w", checkErr)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	p.Version++
	p.UpdatedAt = now
	return nil
}

func (s *Postgres) ListStaff(ctx context.Context) ([]*models.StaffProfile, error) {
	query := `
		SELECT user_id, base_permissions, teams, effective_permissions, version, created_at, updated_at
		FROM staff_profiles
		ORDER BY user_id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query staff profiles: %w", err)
	}
	defer rows.Close()

	var out []*models.StaffProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan staff profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staff profiles: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.StaffProfile, error) {
	var (
		p         models.StaffProfile
		rawUserID string
		teams     []byte
	)
	err := row.Scan(
		&rawUserID,
		pq.Array(&p.BasePermissions),
		&teams,
		pq.Array(&p.EffectivePermissions),
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	userID, err := id.ParseUserID(rawUserID)
	if err != nil {
		return nil, fmt.Errorf("stored user id: %w", err)
	}
	p.UserID = userID
	if err := json.Unmarshal(teams, &p.Teams); err != nil {
		return nil, fmt.Errorf("unmarshal team assignments: %w", err)
	}
	return &p, nil
}

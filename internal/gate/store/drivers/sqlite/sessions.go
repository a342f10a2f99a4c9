package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gate/domain"
)

type sessionsRepo struct {
	db *sql.DB
}

const sessionColumns = `id, user_id, access_token_prefix, access_token_hash, refresh_secret, active, created_at, expires_at`

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, access_token_prefix, access_token_hash, refresh_secret, active, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.AccessTokenPrefix, s.AccessTokenHash, s.RefreshSecret,
		s.Active, s.CreatedAt, s.ExpiresAt,
	)
	return err
}

func (r *sessionsRepo) GetSessionByAccessPrefix(ctx context.Context, prefix string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE access_token_prefix = ?`, prefix)
	return scanSession(row)
}

func (r *sessionsRepo) GetSessionByID(ctx context.Context, id string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

func (r *sessionsRepo) DeactivateSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, cutoff)
	return err
}

func scanSession(row *sql.Row) (domain.Session, error) {
	var s domain.Session
	err := row.Scan(
		&s.ID, &s.UserID, &s.AccessTokenPrefix, &s.AccessTokenHash,
		&s.RefreshSecret, &s.Active, &s.CreatedAt, &s.ExpiresAt,
	)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}

package sqlite

import (
	"context"
	"database/sql"

	"github.com/gatehouselabs/gatehouse/internal/gate/domain"
	"github.com/gatehouselabs/gatehouse/internal/gate/store"
)

type usersRepo struct {
	db *sql.DB
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, role, locked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Role, u.Locked, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, role, locked, created_at, updated_at
		FROM users WHERE id = ?`, id)

	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Role, &u.Locked, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) SetUserLocked(ctx context.Context, userID string, locked bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET locked = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		locked, userID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

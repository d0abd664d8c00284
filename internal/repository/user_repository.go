package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examportal-backend/internal/model"
)

// UserRepository handles role records.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Put inserts or replaces the role record of u.UID.
func (r *UserRepository) Put(ctx context.Context, u *model.UserRecord) error {
	return mapErr(r.pool.QueryRow(ctx,
		`INSERT INTO users (uid, role, name, email) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (uid) DO UPDATE SET role = EXCLUDED.role, name = EXCLUDED.name, email = EXCLUDED.email
		 RETURNING created_at`,
		u.UID, u.Role, u.Name, u.Email).Scan(&u.CreatedAt))
}

func (r *UserRepository) Get(ctx context.Context, uid string) (*model.UserRecord, error) {
	u := &model.UserRecord{}
	err := r.pool.QueryRow(ctx,
		`SELECT uid, role, name, email, created_at FROM users WHERE uid = $1`, uid,
	).Scan(&u.UID, &u.Role, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role model.Role) ([]model.UserRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT uid, role, name, email, created_at FROM users WHERE role = $1 ORDER BY name ASC`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.UserRecord, 0)
	for rows.Next() {
		var u model.UserRecord
		if err := rows.Scan(&u.UID, &u.Role, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Delete(ctx context.Context, uid string) error {
	return requireAffected(r.pool.Exec(ctx, `DELETE FROM users WHERE uid = $1`, uid))
}

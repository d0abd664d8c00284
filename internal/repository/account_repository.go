package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examportal-backend/internal/identity"
	"github.com/stemsi/examportal-backend/internal/store"
)

// AccountRepository holds credentials for the local identity provider.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts an account. A registered email yields identity.ErrEmailTaken.
func (r *AccountRepository) Create(ctx context.Context, a *identity.Account) error {
	err := mapErr(r.pool.QueryRow(ctx,
		`INSERT INTO accounts (uid, email, password_hash, is_admin)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		a.UID, a.Email, a.PasswordHash, a.Admin,
	).Scan(&a.CreatedAt))
	if errors.Is(err, store.ErrDuplicate) {
		return identity.ErrEmailTaken
	}
	return err
}

// GetByEmail retrieves an account by its login email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*identity.Account, error) {
	a := &identity.Account{}
	err := r.pool.QueryRow(ctx,
		`SELECT uid, email, password_hash, is_admin, created_at FROM accounts WHERE email = $1`, email,
	).Scan(&a.UID, &a.Email, &a.PasswordHash, &a.Admin, &a.CreatedAt)
	if err != nil {
		if err = mapErr(err); errors.Is(err, store.ErrNotFound) {
			return nil, identity.ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, uid string) error {
	err := requireAffected(r.pool.Exec(ctx, `DELETE FROM accounts WHERE uid = $1`, uid))
	if errors.Is(err, store.ErrNotFound) {
		return identity.ErrAccountNotFound
	}
	return err
}

var _ identity.AccountStore = (*AccountRepository)(nil)

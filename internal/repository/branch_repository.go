package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examportal-backend/internal/model"
)

// BranchRepository handles branch data access.
type BranchRepository struct {
	pool *pgxpool.Pool
}

// NewBranchRepository creates a new BranchRepository.
func NewBranchRepository(pool *pgxpool.Pool) *BranchRepository {
	return &BranchRepository{pool: pool}
}

func (r *BranchRepository) Create(ctx context.Context, b *model.Branch) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return mapErr(r.pool.QueryRow(ctx,
		`INSERT INTO branches (id, name) VALUES ($1, $2) RETURNING created_at`,
		b.ID, b.Name).Scan(&b.CreatedAt))
}

func (r *BranchRepository) Get(ctx context.Context, id string) (*model.Branch, error) {
	b := &model.Branch{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM branches WHERE id = $1`, id,
	).Scan(&b.ID, &b.Name, &b.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

func (r *BranchRepository) List(ctx context.Context) ([]model.Branch, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM branches ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	branches := make([]model.Branch, 0)
	for rows.Next() {
		var b model.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func (r *BranchRepository) Delete(ctx context.Context, id string) error {
	return requireAffected(r.pool.Exec(ctx, `DELETE FROM branches WHERE id = $1`, id))
}

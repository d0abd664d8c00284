package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examportal-backend/internal/model"
)

type SubjectRepository struct {
	pool *pgxpool.Pool
}

func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

func (r *SubjectRepository) Create(ctx context.Context, s *model.Subject) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return mapErr(r.pool.QueryRow(ctx,
		`INSERT INTO subjects (id, name, code, branch_id) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		s.ID, s.Name, s.Code, s.BranchID).Scan(&s.CreatedAt))
}

func (r *SubjectRepository) Get(ctx context.Context, id string) (*model.Subject, error) {
	s := &model.Subject{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, code, branch_id, created_at FROM subjects WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Code, &s.BranchID, &s.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return s, nil
}

func (r *SubjectRepository) List(ctx context.Context) ([]model.Subject, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, code, branch_id, created_at FROM subjects ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := make([]model.Subject, 0)
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.BranchID, &s.CreatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	return requireAffected(r.pool.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id))
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examportal-backend/internal/model"
)

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = `uid, registration_number, name, branch_id, semester, created_by, created_at`

// Create inserts a new student. A taken registration number yields store.ErrDuplicate.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	return mapErr(r.pool.QueryRow(ctx,
		`INSERT INTO students (uid, registration_number, name, branch_id, semester, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		s.UID, s.RegistrationNumber, s.Name, s.BranchID, s.Semester, s.CreatedBy,
	).Scan(&s.CreatedAt))
}

// Get retrieves a student by account id.
func (r *StudentRepository) Get(ctx context.Context, uid string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE uid = $1`, uid,
	).Scan(&s.UID, &s.RegistrationNumber, &s.Name, &s.BranchID, &s.Semester, &s.CreatedBy, &s.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return s, nil
}

// GetByRegistrationNumber retrieves a student by their unique registration number.
func (r *StudentRepository) GetByRegistrationNumber(ctx context.Context, reg string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE registration_number = $1`, reg,
	).Scan(&s.UID, &s.RegistrationNumber, &s.Name, &s.BranchID, &s.Semester, &s.CreatedBy, &s.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return s, nil
}

// List returns every student ordered by registration number.
func (r *StudentRepository) List(ctx context.Context) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+studentColumns+` FROM students ORDER BY registration_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]model.Student, 0)
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.UID, &s.RegistrationNumber, &s.Name, &s.BranchID, &s.Semester, &s.CreatedBy, &s.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// Delete removes a student record.
func (r *StudentRepository) Delete(ctx context.Context, uid string) error {
	return requireAffected(r.pool.Exec(ctx, `DELETE FROM students WHERE uid = $1`, uid))
}

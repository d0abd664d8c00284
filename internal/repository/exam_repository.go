package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examportal-backend/internal/model"
)

// ExamRepository handles exam data access. Questions live in a JSONB column
// keyed by question id.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `id, title, description, subject_id, subject_name, branch_id, semester,
	duration_minutes, start_time, end_time, questions, terms_and_conditions, created_by, created_at`

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.SubjectID, &e.SubjectName, &e.BranchID, &e.Semester,
		&e.DurationMinutes, &e.StartTime, &e.EndTime, &e.Questions, &e.TermsAndConditions, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if e.Questions == nil {
		e.Questions = map[string]model.Question{}
	}
	return e, nil
}

// Create inserts a new exam, assigning an id when none is set.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return mapErr(r.pool.QueryRow(ctx,
		`INSERT INTO exams (id, title, description, subject_id, subject_name, branch_id, semester,
		                    duration_minutes, start_time, end_time, questions, terms_and_conditions, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING created_at`,
		e.ID, e.Title, e.Description, e.SubjectID, e.SubjectName, e.BranchID, e.Semester,
		e.DurationMinutes, e.StartTime, e.EndTime, e.Questions, e.TermsAndConditions, e.CreatedBy,
	).Scan(&e.CreatedAt))
}

// Get retrieves an exam by id.
func (r *ExamRepository) Get(ctx context.Context, id string) (*model.Exam, error) {
	e, err := scanExam(r.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return e, nil
}

// List returns all exams, newest first.
func (r *ExamRepository) List(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+examColumns+` FROM exams ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exams := make([]model.Exam, 0)
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// Delete removes an exam. Results go with it through ON DELETE CASCADE.
func (r *ExamRepository) Delete(ctx context.Context, id string) error {
	return requireAffected(r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id))
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
)

// ResultRepository handles exam results. A row is written once per
// exam/student pair and never updated.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Create inserts the result unless one already exists for the pair.
func (r *ResultRepository) Create(ctx context.Context, examID, studentID string, res *model.Result) error {
	answers := res.Answers
	if answers == nil {
		answers = map[string]model.Label{}
	}
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO exam_results (exam_id, student_id, score, answers, completed_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (exam_id, student_id) DO NOTHING`,
		examID, studentID, res.Score, answers, res.CompletedAt)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrDuplicate
	}
	return nil
}

// Get retrieves the result of one student for one exam.
func (r *ResultRepository) Get(ctx context.Context, examID, studentID string) (*model.Result, error) {
	res := &model.Result{}
	err := r.pool.QueryRow(ctx,
		`SELECT score, answers, completed_at FROM exam_results WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID,
	).Scan(&res.Score, &res.Answers, &res.CompletedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return res, nil
}

// ListByExam returns every result of an exam with the student name resolved.
func (r *ResultRepository) ListByExam(ctx context.Context, examID string) ([]model.StudentResult, error) {
	return r.list(ctx,
		`SELECT er.exam_id, er.student_id, COALESCE(s.name, ''), er.score, er.answers, er.completed_at
		 FROM exam_results er
		 LEFT JOIN students s ON s.uid = er.student_id
		 WHERE er.exam_id = $1
		 ORDER BY er.completed_at ASC`, examID)
}

// ListByStudent returns every result a student holds.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID string) ([]model.StudentResult, error) {
	return r.list(ctx,
		`SELECT er.exam_id, er.student_id, COALESCE(s.name, ''), er.score, er.answers, er.completed_at
		 FROM exam_results er
		 LEFT JOIN students s ON s.uid = er.student_id
		 WHERE er.student_id = $1
		 ORDER BY er.completed_at ASC`, studentID)
}

func (r *ResultRepository) list(ctx context.Context, query string, arg string) ([]model.StudentResult, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]model.StudentResult, 0)
	for rows.Next() {
		var sr model.StudentResult
		if err := rows.Scan(&sr.ExamID, &sr.StudentID, &sr.StudentName, &sr.Score, &sr.Answers, &sr.CompletedAt); err != nil {
			return nil, err
		}
		results = append(results, sr)
	}
	return results, rows.Err()
}

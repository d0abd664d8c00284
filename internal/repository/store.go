package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examportal-backend/internal/store"
)

// NewStore exposes the PostgreSQL repositories through the persistence
// gateway. The pool is owned by the caller and is not closed by Store.Close.
func NewStore(pool *pgxpool.Pool) *store.Store {
	return &store.Store{
		Branches: NewBranchRepository(pool),
		Subjects: NewSubjectRepository(pool),
		Users:    NewUserRepository(pool),
		Students: NewStudentRepository(pool),
		Exams:    NewExamRepository(pool),
		Results:  NewResultRepository(pool),
	}
}

var (
	_ store.BranchStore  = (*BranchRepository)(nil)
	_ store.SubjectStore = (*SubjectRepository)(nil)
	_ store.UserStore    = (*UserRepository)(nil)
	_ store.StudentStore = (*StudentRepository)(nil)
	_ store.ExamStore    = (*ExamRepository)(nil)
	_ store.ResultStore  = (*ResultRepository)(nil)
)

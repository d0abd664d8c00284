// Package store defines the persistence gateway: point reads, point writes and
// removals over branches, subjects, users, students, exams and results.
// Backends live in internal/repository (PostgreSQL), internal/store/firestore
// and internal/store/memory.
package store

import (
	"context"
	"errors"

	"github.com/stemsi/examportal-backend/internal/model"
)

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key is already taken, including
	// a second result for the same exam and student.
	ErrDuplicate = errors.New("already exists")
)

type BranchStore interface {
	Create(ctx context.Context, b *model.Branch) error
	Get(ctx context.Context, id string) (*model.Branch, error)
	List(ctx context.Context) ([]model.Branch, error)
	Delete(ctx context.Context, id string) error
}

type SubjectStore interface {
	Create(ctx context.Context, s *model.Subject) error
	Get(ctx context.Context, id string) (*model.Subject, error)
	List(ctx context.Context) ([]model.Subject, error)
	Delete(ctx context.Context, id string) error
}

// UserStore holds role records, addressed as users/{uid}.
type UserStore interface {
	Put(ctx context.Context, u *model.UserRecord) error
	Get(ctx context.Context, uid string) (*model.UserRecord, error)
	ListByRole(ctx context.Context, role model.Role) ([]model.UserRecord, error)
	Delete(ctx context.Context, uid string) error
}

type StudentStore interface {
	// Create fails with ErrDuplicate when the registration number is taken.
	Create(ctx context.Context, s *model.Student) error
	Get(ctx context.Context, uid string) (*model.Student, error)
	GetByRegistrationNumber(ctx context.Context, reg string) (*model.Student, error)
	List(ctx context.Context) ([]model.Student, error)
	Delete(ctx context.Context, uid string) error
}

type ExamStore interface {
	// Create assigns e.ID when it is empty.
	Create(ctx context.Context, e *model.Exam) error
	Get(ctx context.Context, id string) (*model.Exam, error)
	// List returns exams newest first.
	List(ctx context.Context) ([]model.Exam, error)
	// Delete removes the exam together with its results.
	Delete(ctx context.Context, id string) error
}

// ResultStore holds exams/{examID}/results/{studentID}.
type ResultStore interface {
	// Create writes the result only if none exists for the pair, otherwise
	// it returns ErrDuplicate and leaves the stored one untouched.
	Create(ctx context.Context, examID, studentID string, r *model.Result) error
	Get(ctx context.Context, examID, studentID string) (*model.Result, error)
	ListByExam(ctx context.Context, examID string) ([]model.StudentResult, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.StudentResult, error)
}

// Store bundles every collection of one backend.
type Store struct {
	Branches BranchStore
	Subjects SubjectStore
	Users    UserStore
	Students StudentStore
	Exams    ExamStore
	Results  ResultStore

	// Close releases backend resources. It may be nil.
	Close func() error
}

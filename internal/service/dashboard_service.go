package service

import (
	"context"
	"fmt"
	"time"

	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
)

// DashboardService builds the read-only overview of each role.
type DashboardService struct {
	store *store.Store
	exams *ExamService
	now   func() time.Time
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(s *store.Store, exams *ExamService) *DashboardService {
	return &DashboardService{store: s, exams: exams, now: time.Now}
}

// Admin returns collection counts and the teacher list.
func (s *DashboardService) Admin(ctx context.Context) (*model.AdminDashboard, error) {
	teachers, err := s.store.Users.ListByRole(ctx, model.RoleTeacher)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	students, err := s.store.Students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	branches, err := s.store.Branches.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	subjects, err := s.store.Subjects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	exams, err := s.store.Exams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return &model.AdminDashboard{
		TeacherCount: len(teachers),
		StudentCount: len(students),
		BranchCount:  len(branches),
		SubjectCount: len(subjects),
		ExamCount:    len(exams),
		Teachers:     teachers,
	}, nil
}

// Teacher returns the teacher's own exams and the student list.
func (s *DashboardService) Teacher(ctx context.Context, teacher model.Actor) (*model.TeacherDashboard, error) {
	exams, err := s.exams.ListByAuthor(ctx, teacher.UID)
	if err != nil {
		return nil, err
	}
	students, err := s.store.Students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return &model.TeacherDashboard{Exams: exams, Students: students}, nil
}

// Student returns the exams the student is eligible for with their status.
func (s *DashboardService) Student(ctx context.Context, student model.Actor) (*model.StudentDashboard, error) {
	profile, err := s.store.Students.Get(ctx, student.UID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	exams, err := s.store.Exams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	results, err := s.store.Results.ListByStudent(ctx, student.UID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	byExam := make(map[string]model.Result, len(results))
	for _, r := range results {
		byExam[r.ExamID] = r.Result
	}

	now := s.now()
	entries := make([]model.StudentExamEntry, 0, len(exams))
	for i := range exams {
		e := &exams[i]
		if !Eligible(e, profile) {
			continue
		}
		entry := model.StudentExamEntry{
			ID:              e.ID,
			Title:           e.Title,
			SubjectName:     e.SubjectName,
			DurationMinutes: e.DurationMinutes,
			StartTime:       e.StartTime,
			EndTime:         e.EndTime,
			QuestionCount:   len(e.Questions),
		}
		if r, ok := byExam[e.ID]; ok {
			score, at := r.Score, r.CompletedAt
			entry.Status = model.StudentExamCompleted
			entry.Score = &score
			entry.CompletedAt = &at
		} else {
			entry.Status = windowStatus(e, now)
		}
		entries = append(entries, entry)
	}
	return &model.StudentDashboard{Student: profile, Exams: entries}, nil
}

// Eligible reports whether an exam's branch and semester scoping admits the
// student. Unscoped exams are open to everyone.
func Eligible(e *model.Exam, st *model.Student) bool {
	if e.BranchID != "" && e.BranchID != st.BranchID {
		return false
	}
	if e.Semester != "" && e.Semester != st.Semester {
		return false
	}
	return true
}

func windowStatus(e *model.Exam, now time.Time) model.StudentExamStatus {
	switch {
	case now.Before(e.StartTime):
		return model.StudentExamUpcoming
	case now.After(e.EndTime):
		return model.StudentExamClosed
	}
	return model.StudentExamAvailable
}

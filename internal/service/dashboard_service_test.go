package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard_StudentStatuses(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()
	exams := NewExamService(s, nil, time.Minute, zerolog.Nop())
	svc := NewDashboardService(s, exams)
	svc.now = func() time.Time { return t0 }

	require.NoError(t, s.Students.Create(ctx, &model.Student{UID: "stu-1", RegistrationNumber: "R1", Name: "Asha", BranchID: "cse", Semester: "3"}))

	mk := func(title string, start, end time.Time, branch string) *model.Exam {
		e := twoQuestionExam(start, end)
		e.Title = title
		e.BranchID = branch
		return seedExam(t, s, e)
	}
	mk("upcoming", t0.Add(time.Hour), t0.Add(2*time.Hour), "")
	open := mk("available", t0.Add(-time.Hour), t0.Add(time.Hour), "cse")
	mk("closed", t0.Add(-2*time.Hour), t0.Add(-time.Hour), "")
	mk("other branch", t0.Add(-time.Hour), t0.Add(time.Hour), "mech")
	done := mk("completed", t0.Add(-2*time.Hour), t0.Add(-time.Hour), "")
	require.NoError(t, s.Results.Create(ctx, done.ID, "stu-1", &model.Result{Score: 67, CompletedAt: t0.Add(-90 * time.Minute)}))

	d, err := svc.Student(ctx, model.Actor{Kind: model.ActorStudent, UID: "stu-1"})
	require.NoError(t, err)

	status := map[string]model.StudentExamStatus{}
	for _, e := range d.Exams {
		status[e.Title] = e.Status
		if e.Status == model.StudentExamCompleted {
			require.NotNil(t, e.Score)
			assert.Equal(t, 67, *e.Score)
		}
	}
	assert.Equal(t, map[string]model.StudentExamStatus{
		"upcoming":  model.StudentExamUpcoming,
		"available": model.StudentExamAvailable,
		"closed":    model.StudentExamClosed,
		"completed": model.StudentExamCompleted,
	}, status)
	assert.NotContains(t, status, "other branch")
	assert.Equal(t, "cse", open.BranchID)
}

func TestDashboard_AdminCounts(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()
	svc := NewDashboardService(s, NewExamService(s, nil, time.Minute, zerolog.Nop()))

	require.NoError(t, s.Users.Put(ctx, &model.UserRecord{UID: "t1", Role: model.RoleTeacher, Name: "Rao"}))
	require.NoError(t, s.Branches.Create(ctx, &model.Branch{Name: "CSE"}))
	seedExam(t, s, twoQuestionExam(t0, t0.Add(time.Hour)))

	d, err := svc.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, d.TeacherCount)
	assert.Equal(t, 1, d.BranchCount)
	assert.Equal(t, 1, d.ExamCount)
	assert.Zero(t, d.StudentCount)
	assert.Len(t, d.Teachers, 1)
}

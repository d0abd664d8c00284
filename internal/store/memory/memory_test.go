package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResults_InsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := New().Store()

	first := &model.Result{Score: 50, Answers: map[string]model.Label{"1": model.LabelA}, CompletedAt: time.Now()}
	require.NoError(t, s.Results.Create(ctx, "e1", "s1", first))

	second := &model.Result{Score: 100, Answers: map[string]model.Label{}, CompletedAt: time.Now()}
	assert.ErrorIs(t, s.Results.Create(ctx, "e1", "s1", second), store.ErrDuplicate)

	got, err := s.Results.Get(ctx, "e1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 50, got.Score)

	// Stored answers are isolated from the caller's map.
	first.Answers["2"] = model.LabelB
	got, _ = s.Results.Get(ctx, "e1", "s1")
	assert.Len(t, got.Answers, 1)
}

func TestExams_DeleteRemovesResults(t *testing.T) {
	ctx := context.Background()
	s := New().Store()

	e := &model.Exam{Title: "Algebra", Questions: map[string]model.Question{}}
	require.NoError(t, s.Exams.Create(ctx, e))
	require.NotEmpty(t, e.ID)
	require.NoError(t, s.Results.Create(ctx, e.ID, "s1", &model.Result{Score: 10}))

	require.NoError(t, s.Exams.Delete(ctx, e.ID))

	_, err := s.Exams.Get(ctx, e.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Results.Get(ctx, e.ID, "s1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestExams_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New().Store()
	old := &model.Exam{Title: "old", CreatedAt: time.Now().Add(-time.Hour)}
	fresh := &model.Exam{Title: "fresh", CreatedAt: time.Now()}
	require.NoError(t, s.Exams.Create(ctx, old))
	require.NoError(t, s.Exams.Create(ctx, fresh))

	list, err := s.Exams.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "fresh", list[0].Title)
}

func TestStudents_UniqueRegistrationNumber(t *testing.T) {
	ctx := context.Background()
	s := New().Store()

	require.NoError(t, s.Students.Create(ctx, &model.Student{UID: "u1", RegistrationNumber: "21BCE001", Name: "Asha"}))
	err := s.Students.Create(ctx, &model.Student{UID: "u2", RegistrationNumber: "21BCE001", Name: "Ravi"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	st, err := s.Students.GetByRegistrationNumber(ctx, "21BCE001")
	require.NoError(t, err)
	assert.Equal(t, "u1", st.UID)
}

func TestUsers_ListByRole(t *testing.T) {
	ctx := context.Background()
	s := New().Store()
	require.NoError(t, s.Users.Put(ctx, &model.UserRecord{UID: "t1", Role: model.RoleTeacher, Name: "B"}))
	require.NoError(t, s.Users.Put(ctx, &model.UserRecord{UID: "t2", Role: model.RoleTeacher, Name: "A"}))
	require.NoError(t, s.Users.Put(ctx, &model.UserRecord{UID: "s1", Role: model.RoleStudent, Name: "C"}))

	teachers, err := s.Users.ListByRole(ctx, model.RoleTeacher)
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, "A", teachers[0].Name)
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/examsession"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu          sync.Mutex
	exams       map[string]model.Exam
	hits        int
	invalidated []string
}

func newMapCache() *mapCache { return &mapCache{exams: map[string]model.Exam{}} }

func (c *mapCache) Get(_ context.Context, id string) (*model.Exam, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.exams[id]
	if !ok {
		return nil, nil
	}
	c.hits++
	return &e, nil
}

func (c *mapCache) Set(_ context.Context, e *model.Exam, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exams[e.ID] = *e
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.exams, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

func draft(subjectID string) *model.CreateExamRequest {
	start, end := t0, t0.Add(24*time.Hour)
	return &model.CreateExamRequest{
		Title:           "Organic Chemistry",
		SubjectID:       subjectID,
		DurationMinutes: 30,
		StartTime:       &start,
		EndTime:         &end,
		Questions: []model.QuestionInput{
			{Text: "Benzene ring carbons?", Options: model.Options{A: "5", B: "6", C: "7", D: "8"}, CorrectAnswer: model.LabelB},
		},
	}
}

var teacher = model.Actor{Kind: model.ActorTeacher, UID: "teacher-1", Name: "Ms. Rao"}

func TestExamService_Create(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()
	svc := NewExamService(s, nil, time.Minute, zerolog.Nop())
	sub := &model.Subject{Name: "Chemistry"}
	require.NoError(t, s.Subjects.Create(ctx, sub))

	exam, err := svc.Create(ctx, teacher, draft(sub.ID))
	require.NoError(t, err)
	assert.Equal(t, "Chemistry", exam.SubjectName)
	assert.Equal(t, "teacher-1", exam.CreatedBy)
	assert.Contains(t, exam.Questions, "1")

	stored, err := s.Exams.Get(ctx, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, exam.Title, stored.Title)
}

func TestExamService_CreateRejectsWithoutWriting(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()
	svc := NewExamService(s, nil, time.Minute, zerolog.Nop())
	sub := &model.Subject{Name: "Chemistry"}
	require.NoError(t, s.Subjects.Create(ctx, sub))

	cases := map[string]func(*model.CreateExamRequest){
		"start equals end": func(r *model.CreateExamRequest) { e := *r.StartTime; r.EndTime = &e },
		"no questions":     func(r *model.CreateExamRequest) { r.Questions = nil },
		"missing option":   func(r *model.CreateExamRequest) { r.Questions[0].Options.D = "" },
		"unknown subject":  func(r *model.CreateExamRequest) { r.SubjectID = "nope" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := draft(sub.ID)
			mutate(r)
			_, err := svc.Create(ctx, teacher, r)
			assert.ErrorIs(t, err, examsession.ErrInvalidExam)
		})
	}

	exams, err := s.Exams.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, exams)
}

func TestExamService_GetUsesCache(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()
	cache := newMapCache()
	svc := NewExamService(s, cache, time.Minute, zerolog.Nop())
	e := seedExam(t, s, twoQuestionExam(t0, t0.Add(time.Hour)))

	_, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, model.LabelC, got.Questions["2"].CorrectAnswer)

	require.NoError(t, svc.Delete(ctx, e.ID))
	assert.Equal(t, []string{e.ID}, cache.invalidated)
	_, err = svc.Get(ctx, e.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestExamService_ListAndResults(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()
	svc := NewExamService(s, nil, time.Minute, zerolog.Nop())

	older := twoQuestionExam(t0, t0.Add(time.Hour))
	older.CreatedAt = t0.Add(-time.Hour)
	older.CreatedBy = "teacher-1"
	seedExam(t, s, older)
	newer := twoQuestionExam(t0, t0.Add(time.Hour))
	newer.Title = "Newer"
	newer.CreatedAt = t0
	newer.CreatedBy = "teacher-2"
	seedExam(t, s, newer)

	require.NoError(t, s.Students.Create(ctx, &model.Student{UID: "stu-1", RegistrationNumber: "R1", Name: "Asha"}))
	require.NoError(t, s.Results.Create(ctx, older.ID, "stu-1", &model.Result{Score: 50, CompletedAt: t0}))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Newer", list[0].Title)
	assert.Equal(t, 1, list[1].ResultCount)
	assert.Equal(t, 2, list[1].QuestionCount)

	own, err := svc.ListByAuthor(ctx, "teacher-1")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, older.ID, own[0].ID)

	results, err := svc.Results(ctx, older.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Asha", results[0].StudentName)

	_, err = svc.Results(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

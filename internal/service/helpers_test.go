package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/identity"
	"github.com/stemsi/examportal-backend/internal/metrics"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
	"github.com/stemsi/examportal-backend/internal/store/memory"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newIdentity() *identity.Local {
	return identity.NewLocal(identity.NewMemoryAccounts(), identity.NewTokenIssuer("test", time.Hour),
		identity.NewMemorySessions(), bcrypt.MinCost, zerolog.Nop())
}

func newMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// twoQuestionExam has correct answers A and C.
func twoQuestionExam(start, end time.Time) *model.Exam {
	opts := model.Options{A: "a", B: "b", C: "c", D: "d"}
	return &model.Exam{
		Title:           "Chemistry",
		SubjectID:       "chem",
		SubjectName:     "Chemistry",
		DurationMinutes: 1,
		StartTime:       start,
		EndTime:         end,
		Questions: map[string]model.Question{
			"1": {ID: "1", Text: "q1", Options: opts, CorrectAnswer: model.LabelA},
			"2": {ID: "2", Text: "q2", Options: opts, CorrectAnswer: model.LabelC},
		},
	}
}

func seedExam(t *testing.T, s *store.Store, e *model.Exam) *model.Exam {
	t.Helper()
	require.NoError(t, s.Exams.Create(context.Background(), e))
	return e
}

// flakyResults fails Create while failing is set and counts every call.
type flakyResults struct {
	store.ResultStore
	mu      sync.Mutex
	failing bool
	creates int
}

func (f *flakyResults) Create(ctx context.Context, examID, studentID string, r *model.Result) error {
	f.mu.Lock()
	f.creates++
	failing := f.failing
	f.mu.Unlock()
	if failing {
		return errors.New("connection reset")
	}
	return f.ResultStore.Create(ctx, examID, studentID, r)
}

func (f *flakyResults) setFailing(v bool) {
	f.mu.Lock()
	f.failing = v
	f.mu.Unlock()
}

func (f *flakyResults) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []model.PersistJob
}

func (q *recordingQueue) Enqueue(_ context.Context, job model.PersistJob) error {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()
	return nil
}

func (q *recordingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func newMemoryStore() *store.Store {
	return memory.New().Store()
}

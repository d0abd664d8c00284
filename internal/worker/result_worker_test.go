package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/metrics"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
	"github.com/stemsi/examportal-backend/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenResults struct{ store.ResultStore }

func (brokenResults) Create(context.Context, string, string, *model.Result) error {
	return errors.New("deadline exceeded")
}

type recorded struct{ calls []string }

func (r *recorded) Recover(_ context.Context, examID, studentID string) {
	r.calls = append(r.calls, examID+"/"+studentID)
}

func newWorker(results store.ResultStore, rec Recoverer) (*ResultWorker, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return NewResultWorker(nil, results, rec, m, time.Millisecond, 3, zerolog.Nop()), m
}

func job() *model.PersistJob {
	return &model.PersistJob{
		ExamID:    "exam-1",
		StudentID: "stu-1",
		Result:    model.Result{Score: 75, Answers: map[string]model.Label{"1": model.LabelA}, CompletedAt: time.Now()},
	}
}

func TestProcess_StoresAndRecovers(t *testing.T) {
	results := memory.New().Store().Results
	rec := &recorded{}
	w, m := newWorker(results, rec)

	assert.Equal(t, OutcomeStored, w.Process(context.Background(), job()))
	got, err := results.Get(context.Background(), "exam-1", "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 75, got.Score)
	assert.Equal(t, []string{"exam-1/stu-1"}, rec.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResultRetries.WithLabelValues(OutcomeStored)))
}

func TestProcess_DuplicateKeepsFirstResult(t *testing.T) {
	ctx := context.Background()
	results := memory.New().Store().Results
	require.NoError(t, results.Create(ctx, "exam-1", "stu-1", &model.Result{Score: 10}))
	rec := &recorded{}
	w, _ := newWorker(results, rec)

	assert.Equal(t, OutcomeDuplicate, w.Process(ctx, job()))
	got, err := results.Get(ctx, "exam-1", "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Score)
	assert.Len(t, rec.calls, 1)
}

func TestProcess_RequeuesUntilExhausted(t *testing.T) {
	rec := &recorded{}
	w, m := newWorker(brokenResults{}, rec)
	j := job()

	assert.Equal(t, OutcomeRequeued, w.Process(context.Background(), j))
	assert.Equal(t, OutcomeRequeued, w.Process(context.Background(), j))
	assert.Equal(t, OutcomeDropped, w.Process(context.Background(), j))
	assert.Equal(t, 3, j.Attempts)
	assert.Empty(t, rec.calls)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ResultRetries.WithLabelValues(OutcomeRequeued)))
}

package firestore

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEmulatorStore connects to the Firestore emulator, skipping when none is configured.
func newEmulatorStore(t *testing.T) *store.Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "examportal-test")
	require.NoError(t, err)
	s := New(client)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil))
	assert.EqualError(t, mapErr(assert.AnError), assert.AnError.Error())
}

func TestEmulator_ResultCreateOnce(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()

	exam := &model.Exam{
		Title:     "Emulator " + uuid.NewString(),
		StartTime: time.Now(), EndTime: time.Now().Add(time.Hour), DurationMinutes: 10,
		Questions: map[string]model.Question{"1": {ID: "1", Text: "q", CorrectAnswer: model.LabelA}},
	}
	require.NoError(t, s.Exams.Create(ctx, exam))

	first := &model.Result{Score: 100, Answers: map[string]model.Label{"1": model.LabelA}, CompletedAt: time.Now().UTC()}
	require.NoError(t, s.Results.Create(ctx, exam.ID, "stu-1", first))
	err := s.Results.Create(ctx, exam.ID, "stu-1", &model.Result{Score: 0})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := s.Results.Get(ctx, exam.ID, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 100, got.Score)
	assert.Equal(t, model.LabelA, got.Answers["1"])

	require.NoError(t, s.Exams.Delete(ctx, exam.ID))
	_, err = s.Results.Get(ctx, exam.ID, "stu-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEmulator_StudentRegistrationUnique(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()
	reg := "REG" + uuid.NewString()[:8]

	require.NoError(t, s.Students.Create(ctx, &model.Student{UID: uuid.NewString(), RegistrationNumber: reg, Name: "A"}))
	err := s.Students.Create(ctx, &model.Student{UID: uuid.NewString(), RegistrationNumber: reg, Name: "B"})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

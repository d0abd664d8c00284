package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
	"github.com/stemsi/examportal-backend/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(time.Second):
		t.Fatal("no change received")
		return Change{}
	}
}

func TestObserve_PublishesWrittenPaths(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := NewLocalFeed()
	s := Observe(memory.New().Store(), feed, zerolog.Nop())

	exams, stop, err := feed.Subscribe(ctx, store.CollectionExams)
	require.NoError(t, err)
	defer stop()

	e := &model.Exam{Title: "Physics"}
	require.NoError(t, s.Exams.Create(ctx, e))
	c := receive(t, exams)
	assert.Equal(t, "exams/"+e.ID, c.Path)
	assert.Equal(t, OpPut, c.Op)

	require.NoError(t, s.Results.Create(ctx, e.ID, "stu-1", &model.Result{Score: 80}))
	c = receive(t, exams)
	assert.Equal(t, "exams/"+e.ID+"/results/stu-1", c.Path)

	require.NoError(t, s.Exams.Delete(ctx, e.ID))
	assert.Equal(t, OpDelete, receive(t, exams).Op)
}

func TestObserve_FailedWriteIsSilent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := NewLocalFeed()
	s := Observe(memory.New().Store(), feed, zerolog.Nop())
	users, _, err := feed.Subscribe(ctx, store.CollectionBranches)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Branches.Delete(ctx, "missing"), store.ErrNotFound)
	select {
	case c := <-users:
		t.Fatalf("unexpected change %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLocalFeed_OnlyMatchingCollection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed := NewLocalFeed()

	students, _, err := feed.Subscribe(ctx, store.CollectionStudents)
	require.NoError(t, err)
	require.NoError(t, feed.Publish(ctx, Change{Path: "users/u1", Op: OpPut}))
	require.NoError(t, feed.Publish(ctx, Change{Path: "students/u1", Op: OpPut}))

	assert.Equal(t, "students/u1", receive(t, students).Path)
}

func TestLocalFeed_StopClosesChannel(t *testing.T) {
	feed := NewLocalFeed()
	ch, stop, err := feed.Subscribe(context.Background(), store.CollectionUsers)
	require.NoError(t, err)
	stop()
	_, open := <-ch
	assert.False(t, open)
	assert.NoError(t, feed.Publish(context.Background(), Change{Path: "users/x"}))
}

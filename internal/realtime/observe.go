package realtime

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
)

// Observe wraps s so that every successful write publishes the path it
// touched on feed. Publish failures are logged and never fail the write.
func Observe(s *store.Store, feed Feed, log zerolog.Logger) *store.Store {
	n := notifier{feed: feed, log: log.With().Str("component", "store_observer").Logger()}
	return &store.Store{
		Branches: observedBranches{s.Branches, n},
		Subjects: observedSubjects{s.Subjects, n},
		Users:    observedUsers{s.Users, n},
		Students: observedStudents{s.Students, n},
		Exams:    observedExams{s.Exams, n},
		Results:  observedResults{s.Results, n},
		Close:    s.Close,
	}
}

type notifier struct {
	feed Feed
	log  zerolog.Logger
}

func (n notifier) notify(ctx context.Context, err error, path string, op Op) error {
	if err != nil {
		return err
	}
	if perr := n.feed.Publish(ctx, Change{Path: path, Op: op, At: time.Now().UTC()}); perr != nil {
		n.log.Warn().Err(perr).Str("path", path).Msg("Failed to publish change")
	}
	return nil
}

type observedBranches struct {
	store.BranchStore
	n notifier
}

func (o observedBranches) Create(ctx context.Context, b *model.Branch) error {
	err := o.BranchStore.Create(ctx, b)
	return o.n.notify(ctx, err, store.BranchPath(b.ID), OpPut)
}

func (o observedBranches) Delete(ctx context.Context, id string) error {
	return o.n.notify(ctx, o.BranchStore.Delete(ctx, id), store.BranchPath(id), OpDelete)
}

type observedSubjects struct {
	store.SubjectStore
	n notifier
}

func (o observedSubjects) Create(ctx context.Context, s *model.Subject) error {
	err := o.SubjectStore.Create(ctx, s)
	return o.n.notify(ctx, err, store.SubjectPath(s.ID), OpPut)
}

func (o observedSubjects) Delete(ctx context.Context, id string) error {
	return o.n.notify(ctx, o.SubjectStore.Delete(ctx, id), store.SubjectPath(id), OpDelete)
}

type observedUsers struct {
	store.UserStore
	n notifier
}

func (o observedUsers) Put(ctx context.Context, u *model.UserRecord) error {
	return o.n.notify(ctx, o.UserStore.Put(ctx, u), store.UserPath(u.UID), OpPut)
}

func (o observedUsers) Delete(ctx context.Context, uid string) error {
	return o.n.notify(ctx, o.UserStore.Delete(ctx, uid), store.UserPath(uid), OpDelete)
}

type observedStudents struct {
	store.StudentStore
	n notifier
}

func (o observedStudents) Create(ctx context.Context, s *model.Student) error {
	return o.n.notify(ctx, o.StudentStore.Create(ctx, s), store.StudentPath(s.UID), OpPut)
}

func (o observedStudents) Delete(ctx context.Context, uid string) error {
	return o.n.notify(ctx, o.StudentStore.Delete(ctx, uid), store.StudentPath(uid), OpDelete)
}

type observedExams struct {
	store.ExamStore
	n notifier
}

func (o observedExams) Create(ctx context.Context, e *model.Exam) error {
	err := o.ExamStore.Create(ctx, e)
	return o.n.notify(ctx, err, store.ExamPath(e.ID), OpPut)
}

func (o observedExams) Delete(ctx context.Context, id string) error {
	return o.n.notify(ctx, o.ExamStore.Delete(ctx, id), store.ExamPath(id), OpDelete)
}

type observedResults struct {
	store.ResultStore
	n notifier
}

func (o observedResults) Create(ctx context.Context, examID, studentID string, r *model.Result) error {
	return o.n.notify(ctx, o.ResultStore.Create(ctx, examID, studentID, r), store.ResultPath(examID, studentID), OpPut)
}

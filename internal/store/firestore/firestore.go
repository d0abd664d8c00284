// Package firestore backs the persistence gateway with Cloud Firestore.
// Documents follow the collection layout of store/paths.go; results live in
// the exams/{examID}/results subcollection.
package firestore

import (
	"context"
	"errors"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// New exposes a Firestore client through the gateway interfaces.
func New(client *firestore.Client) *store.Store {
	return &store.Store{
		Branches: branches{client},
		Subjects: subjects{client},
		Users:    users{client},
		Students: students{client},
		Exams:    exams{client},
		Results:  results{client},
		Close:    client.Close,
	}
}

func mapErr(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return store.ErrNotFound
	case codes.AlreadyExists:
		return store.ErrDuplicate
	}
	return err
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}

// getDoc reads one document into dst.
func getDoc(ctx context.Context, ref *firestore.DocumentRef, dst interface{}) error {
	snap, err := ref.Get(ctx)
	if err != nil {
		return mapErr(err)
	}
	return snap.DataTo(dst)
}

// deleteDoc removes a document, reporting ErrNotFound when it is absent.
func deleteDoc(ctx context.Context, ref *firestore.DocumentRef) error {
	_, err := ref.Delete(ctx, firestore.Exists)
	return mapErr(err)
}

// each runs fn for every document of the iterator.
func each(iter *firestore.DocumentIterator, fn func(*firestore.DocumentSnapshot) error) error {
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
}

// ─── Branches ─────────────────────────────────────────────────────────

type branches struct{ c *firestore.Client }

func (s branches) Create(ctx context.Context, b *model.Branch) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	stamp(&b.CreatedAt)
	_, err := s.c.Collection(store.CollectionBranches).Doc(b.ID).Create(ctx, b)
	return mapErr(err)
}

func (s branches) Get(ctx context.Context, id string) (*model.Branch, error) {
	b := &model.Branch{}
	if err := getDoc(ctx, s.c.Collection(store.CollectionBranches).Doc(id), b); err != nil {
		return nil, err
	}
	b.ID = id
	return b, nil
}

func (s branches) List(ctx context.Context) ([]model.Branch, error) {
	out := make([]model.Branch, 0)
	iter := s.c.Collection(store.CollectionBranches).OrderBy("name", firestore.Asc).Documents(ctx)
	err := each(iter, func(doc *firestore.DocumentSnapshot) error {
		var b model.Branch
		if err := doc.DataTo(&b); err != nil {
			return err
		}
		b.ID = doc.Ref.ID
		out = append(out, b)
		return nil
	})
	return out, err
}

func (s branches) Delete(ctx context.Context, id string) error {
	return deleteDoc(ctx, s.c.Collection(store.CollectionBranches).Doc(id))
}

// ─── Subjects ─────────────────────────────────────────────────────────

type subjects struct{ c *firestore.Client }

func (s subjects) Create(ctx context.Context, sub *model.Subject) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	stamp(&sub.CreatedAt)
	_, err := s.c.Collection(store.CollectionSubjects).Doc(sub.ID).Create(ctx, sub)
	return mapErr(err)
}

func (s subjects) Get(ctx context.Context, id string) (*model.Subject, error) {
	sub := &model.Subject{}
	if err := getDoc(ctx, s.c.Collection(store.CollectionSubjects).Doc(id), sub); err != nil {
		return nil, err
	}
	sub.ID = id
	return sub, nil
}

func (s subjects) List(ctx context.Context) ([]model.Subject, error) {
	out := make([]model.Subject, 0)
	iter := s.c.Collection(store.CollectionSubjects).OrderBy("name", firestore.Asc).Documents(ctx)
	err := each(iter, func(doc *firestore.DocumentSnapshot) error {
		var sub model.Subject
		if err := doc.DataTo(&sub); err != nil {
			return err
		}
		sub.ID = doc.Ref.ID
		out = append(out, sub)
		return nil
	})
	return out, err
}

func (s subjects) Delete(ctx context.Context, id string) error {
	return deleteDoc(ctx, s.c.Collection(store.CollectionSubjects).Doc(id))
}

// ─── Users ────────────────────────────────────────────────────────────

type users struct{ c *firestore.Client }

func (s users) Put(ctx context.Context, u *model.UserRecord) error {
	stamp(&u.CreatedAt)
	_, err := s.c.Collection(store.CollectionUsers).Doc(u.UID).Set(ctx, u)
	return mapErr(err)
}

func (s users) Get(ctx context.Context, uid string) (*model.UserRecord, error) {
	u := &model.UserRecord{}
	if err := getDoc(ctx, s.c.Collection(store.CollectionUsers).Doc(uid), u); err != nil {
		return nil, err
	}
	u.UID = uid
	return u, nil
}

func (s users) ListByRole(ctx context.Context, role model.Role) ([]model.UserRecord, error) {
	out := make([]model.UserRecord, 0)
	iter := s.c.Collection(store.CollectionUsers).Where("role", "==", string(role)).Documents(ctx)
	err := each(iter, func(doc *firestore.DocumentSnapshot) error {
		var u model.UserRecord
		if err := doc.DataTo(&u); err != nil {
			return err
		}
		u.UID = doc.Ref.ID
		out = append(out, u)
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (s users) Delete(ctx context.Context, uid string) error {
	return deleteDoc(ctx, s.c.Collection(store.CollectionUsers).Doc(uid))
}

// ─── Students ─────────────────────────────────────────────────────────

type students struct{ c *firestore.Client }

// Create checks the registration number and writes the document in one
// transaction.
func (s students) Create(ctx context.Context, st *model.Student) error {
	stamp(&st.CreatedAt)
	col := s.c.Collection(store.CollectionStudents)
	return s.c.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		taken, err := tx.Documents(col.Where("registrationNumber", "==", st.RegistrationNumber).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return store.ErrDuplicate
		}
		return mapErr(tx.Create(col.Doc(st.UID), st))
	})
}

func (s students) Get(ctx context.Context, uid string) (*model.Student, error) {
	st := &model.Student{}
	if err := getDoc(ctx, s.c.Collection(store.CollectionStudents).Doc(uid), st); err != nil {
		return nil, err
	}
	st.UID = uid
	return st, nil
}

func (s students) GetByRegistrationNumber(ctx context.Context, reg string) (*model.Student, error) {
	docs, err := s.c.Collection(store.CollectionStudents).Where("registrationNumber", "==", reg).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	st := &model.Student{}
	if err := docs[0].DataTo(st); err != nil {
		return nil, err
	}
	st.UID = docs[0].Ref.ID
	return st, nil
}

func (s students) List(ctx context.Context) ([]model.Student, error) {
	out := make([]model.Student, 0)
	iter := s.c.Collection(store.CollectionStudents).OrderBy("registrationNumber", firestore.Asc).Documents(ctx)
	err := each(iter, func(doc *firestore.DocumentSnapshot) error {
		var st model.Student
		if err := doc.DataTo(&st); err != nil {
			return err
		}
		st.UID = doc.Ref.ID
		out = append(out, st)
		return nil
	})
	return out, err
}

func (s students) Delete(ctx context.Context, uid string) error {
	return deleteDoc(ctx, s.c.Collection(store.CollectionStudents).Doc(uid))
}

// ─── Exams ────────────────────────────────────────────────────────────

type exams struct{ c *firestore.Client }

func (s exams) Create(ctx context.Context, e *model.Exam) error {
	col := s.c.Collection(store.CollectionExams)
	if e.ID == "" {
		e.ID = col.NewDoc().ID
	}
	stamp(&e.CreatedAt)
	_, err := col.Doc(e.ID).Create(ctx, e)
	return mapErr(err)
}

func (s exams) Get(ctx context.Context, id string) (*model.Exam, error) {
	e := &model.Exam{}
	if err := getDoc(ctx, s.c.Collection(store.CollectionExams).Doc(id), e); err != nil {
		return nil, err
	}
	e.ID = id
	if e.Questions == nil {
		e.Questions = map[string]model.Question{}
	}
	return e, nil
}

func (s exams) List(ctx context.Context) ([]model.Exam, error) {
	out := make([]model.Exam, 0)
	iter := s.c.Collection(store.CollectionExams).OrderBy("createdAt", firestore.Desc).Documents(ctx)
	err := each(iter, func(doc *firestore.DocumentSnapshot) error {
		var e model.Exam
		if err := doc.DataTo(&e); err != nil {
			return err
		}
		e.ID = doc.Ref.ID
		out = append(out, e)
		return nil
	})
	return out, err
}

// Delete removes the results subcollection before the exam document.
func (s exams) Delete(ctx context.Context, id string) error {
	ref := s.c.Collection(store.CollectionExams).Doc(id)
	if _, err := ref.Get(ctx); err != nil {
		return mapErr(err)
	}
	err := each(ref.Collection(store.CollectionResults).Documents(ctx), func(doc *firestore.DocumentSnapshot) error {
		_, err := doc.Ref.Delete(ctx)
		return err
	})
	if err != nil {
		return err
	}
	_, err = ref.Delete(ctx)
	return mapErr(err)
}

// ─── Results ──────────────────────────────────────────────────────────

type results struct{ c *firestore.Client }

// resultDoc carries the owning pair so collection-group queries can filter
// by student.
type resultDoc struct {
	ExamID    string `firestore:"examId"`
	StudentID string `firestore:"studentId"`
	model.Result
}

func (s results) ref(examID, studentID string) *firestore.DocumentRef {
	return s.c.Collection(store.CollectionExams).Doc(examID).Collection(store.CollectionResults).Doc(studentID)
}

// Create uses a create-only write, so a second result for the pair fails
// with ErrDuplicate.
func (s results) Create(ctx context.Context, examID, studentID string, r *model.Result) error {
	_, err := s.ref(examID, studentID).Create(ctx, resultDoc{ExamID: examID, StudentID: studentID, Result: *r})
	return mapErr(err)
}

func (s results) Get(ctx context.Context, examID, studentID string) (*model.Result, error) {
	var d resultDoc
	if err := getDoc(ctx, s.ref(examID, studentID), &d); err != nil {
		return nil, err
	}
	return &d.Result, nil
}

func (s results) ListByExam(ctx context.Context, examID string) ([]model.StudentResult, error) {
	iter := s.c.Collection(store.CollectionExams).Doc(examID).Collection(store.CollectionResults).
		OrderBy("completedAt", firestore.Asc).Documents(ctx)
	return collectResults(iter)
}

// ListByStudent needs a collection-group index on results.studentId.
func (s results) ListByStudent(ctx context.Context, studentID string) ([]model.StudentResult, error) {
	iter := s.c.CollectionGroup(store.CollectionResults).Where("studentId", "==", studentID).Documents(ctx)
	out, err := collectResults(iter)
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, err
}

func collectResults(iter *firestore.DocumentIterator) ([]model.StudentResult, error) {
	out := make([]model.StudentResult, 0)
	err := each(iter, func(doc *firestore.DocumentSnapshot) error {
		var d resultDoc
		if err := doc.DataTo(&d); err != nil {
			return err
		}
		if d.StudentID == "" {
			d.StudentID = doc.Ref.ID
		}
		if d.ExamID == "" && doc.Ref.Parent != nil && doc.Ref.Parent.Parent != nil {
			d.ExamID = doc.Ref.Parent.Parent.ID
		}
		out = append(out, model.StudentResult{ExamID: d.ExamID, StudentID: d.StudentID, Result: d.Result})
		return nil
	})
	return out, err
}

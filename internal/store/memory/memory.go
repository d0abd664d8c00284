// Package memory is an in-process persistence backend for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
)

// DB holds every collection behind one lock.
type DB struct {
	mu       sync.RWMutex
	branches map[string]model.Branch
	subjects map[string]model.Subject
	users    map[string]model.UserRecord
	students map[string]model.Student
	exams    map[string]model.Exam
	results  map[string]map[string]model.Result // examID -> studentID -> result
	now      func() time.Time
}

// New returns an empty database.
func New() *DB {
	return &DB{
		branches: make(map[string]model.Branch),
		subjects: make(map[string]model.Subject),
		users:    make(map[string]model.UserRecord),
		students: make(map[string]model.Student),
		exams:    make(map[string]model.Exam),
		results:  make(map[string]map[string]model.Result),
		now:      time.Now,
	}
}

// Store exposes the database through the gateway interfaces.
func (db *DB) Store() *store.Store {
	return &store.Store{
		Branches: branches{db},
		Subjects: subjects{db},
		Users:    users{db},
		Students: students{db},
		Exams:    exams{db},
		Results:  results{db},
	}
}

func (db *DB) stamp(t *time.Time) {
	if t.IsZero() {
		*t = db.now().UTC()
	}
}

// ─── Branches ─────────────────────────────────────────────────────────

type branches struct{ db *DB }

func (s branches) Create(_ context.Context, b *model.Branch) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if _, ok := s.db.branches[b.ID]; ok {
		return store.ErrDuplicate
	}
	s.db.stamp(&b.CreatedAt)
	s.db.branches[b.ID] = *b
	return nil
}

func (s branches) Get(_ context.Context, id string) (*model.Branch, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	b, ok := s.db.branches[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (s branches) List(_ context.Context) ([]model.Branch, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]model.Branch, 0, len(s.db.branches))
	for _, b := range s.db.branches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s branches) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.branches[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.db.branches, id)
	return nil
}

// ─── Subjects ─────────────────────────────────────────────────────────

type subjects struct{ db *DB }

func (s subjects) Create(_ context.Context, sub *model.Subject) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if _, ok := s.db.subjects[sub.ID]; ok {
		return store.ErrDuplicate
	}
	s.db.stamp(&sub.CreatedAt)
	s.db.subjects[sub.ID] = *sub
	return nil
}

func (s subjects) Get(_ context.Context, id string) (*model.Subject, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	sub, ok := s.db.subjects[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sub, nil
}

func (s subjects) List(_ context.Context) ([]model.Subject, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]model.Subject, 0, len(s.db.subjects))
	for _, sub := range s.db.subjects {
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s subjects) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.subjects[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.db.subjects, id)
	return nil
}

// ─── Users ────────────────────────────────────────────────────────────

type users struct{ db *DB }

func (s users) Put(_ context.Context, u *model.UserRecord) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.stamp(&u.CreatedAt)
	s.db.users[u.UID] = *u
	return nil
}

func (s users) Get(_ context.Context, uid string) (*model.UserRecord, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	u, ok := s.db.users[uid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s users) ListByRole(_ context.Context, role model.Role) ([]model.UserRecord, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]model.UserRecord, 0)
	for _, u := range s.db.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s users) Delete(_ context.Context, uid string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[uid]; !ok {
		return store.ErrNotFound
	}
	delete(s.db.users, uid)
	return nil
}

// ─── Students ─────────────────────────────────────────────────────────

type students struct{ db *DB }

func (s students) Create(_ context.Context, st *model.Student) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.students {
		if existing.RegistrationNumber == st.RegistrationNumber {
			return store.ErrDuplicate
		}
	}
	if _, ok := s.db.students[st.UID]; ok {
		return store.ErrDuplicate
	}
	s.db.stamp(&st.CreatedAt)
	s.db.students[st.UID] = *st
	return nil
}

func (s students) Get(_ context.Context, uid string) (*model.Student, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	st, ok := s.db.students[uid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &st, nil
}

func (s students) GetByRegistrationNumber(_ context.Context, reg string) (*model.Student, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, st := range s.db.students {
		if st.RegistrationNumber == reg {
			return &st, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s students) List(_ context.Context) ([]model.Student, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]model.Student, 0, len(s.db.students))
	for _, st := range s.db.students {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegistrationNumber < out[j].RegistrationNumber })
	return out, nil
}

func (s students) Delete(_ context.Context, uid string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.students[uid]; !ok {
		return store.ErrNotFound
	}
	delete(s.db.students, uid)
	return nil
}

// ─── Exams ────────────────────────────────────────────────────────────

type exams struct{ db *DB }

func (s exams) Create(_ context.Context, e *model.Exam) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if _, ok := s.db.exams[e.ID]; ok {
		return store.ErrDuplicate
	}
	s.db.stamp(&e.CreatedAt)
	s.db.exams[e.ID] = cloneExam(*e)
	return nil
}

func (s exams) Get(_ context.Context, id string) (*model.Exam, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	e, ok := s.db.exams[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := cloneExam(e)
	return &c, nil
}

func (s exams) List(_ context.Context) ([]model.Exam, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]model.Exam, 0, len(s.db.exams))
	for _, e := range s.db.exams {
		out = append(out, cloneExam(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s exams) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.exams[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.db.exams, id)
	delete(s.db.results, id)
	return nil
}

func cloneExam(e model.Exam) model.Exam {
	qs := make(map[string]model.Question, len(e.Questions))
	for k, v := range e.Questions {
		qs[k] = v
	}
	e.Questions = qs
	return e
}

// ─── Results ──────────────────────────────────────────────────────────

type results struct{ db *DB }

func (s results) Create(_ context.Context, examID, studentID string, r *model.Result) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	byStudent, ok := s.db.results[examID]
	if !ok {
		byStudent = make(map[string]model.Result)
		s.db.results[examID] = byStudent
	}
	if _, exists := byStudent[studentID]; exists {
		return store.ErrDuplicate
	}
	byStudent[studentID] = cloneResult(*r)
	return nil
}

func (s results) Get(_ context.Context, examID, studentID string) (*model.Result, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	r, ok := s.db.results[examID][studentID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := cloneResult(r)
	return &c, nil
}

func (s results) ListByExam(_ context.Context, examID string) ([]model.StudentResult, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]model.StudentResult, 0, len(s.db.results[examID]))
	for sid, r := range s.db.results[examID] {
		out = append(out, model.StudentResult{ExamID: examID, StudentID: sid, Result: cloneResult(r)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}

func (s results) ListByStudent(_ context.Context, studentID string) ([]model.StudentResult, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]model.StudentResult, 0)
	for eid, byStudent := range s.db.results {
		if r, ok := byStudent[studentID]; ok {
			out = append(out, model.StudentResult{ExamID: eid, StudentID: studentID, Result: cloneResult(r)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}

func cloneResult(r model.Result) model.Result {
	answers := make(map[string]model.Label, len(r.Answers))
	for k, v := range r.Answers {
		answers[k] = v
	}
	r.Answers = answers
	return r
}

// Package examsession drives one student's attempt at one exam: eligibility,
// the terms gate, the countdown, answer capture, scoring and the result write.
package examsession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stemsi/examportal-backend/internal/model"
)

// State is the lifecycle position of an attempt.
type State string

const (
	StateLoading    State = "loading"
	StateTermsGate  State = "terms_gate"
	StateInProgress State = "in_progress"
	StateSubmitting State = "submitting"
	StateCompleted  State = "completed"
	StateBlocked    State = "blocked"
)

// Reason qualifies a Blocked state, or records why an attempt opened Completed.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonExamNotFound       Reason = "exam_not_found"
	ReasonExamNotYetOpen     Reason = "exam_not_yet_open"
	ReasonExamClosed         Reason = "exam_closed"
	ReasonAlreadyCompleted   Reason = "already_completed"
	ReasonPersistenceFailure Reason = "persistence_failure"
)

// Trigger says what started a submission.
type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerTimer  Trigger = "timer"
)

var (
	ErrExamNotFound       = errors.New("exam not found")
	ErrExamNotYetOpen     = errors.New("exam not yet open")
	ErrExamClosed         = errors.New("exam closed")
	ErrAlreadyCompleted   = errors.New("exam already completed")
	ErrPersistenceFailure = errors.New("result could not be saved")

	ErrInvalidTransition = errors.New("action not allowed in current state")
	ErrSubmitInFlight    = errors.New("submission already in progress")
	ErrUnknownQuestion   = errors.New("unknown question")
	ErrInvalidLabel      = errors.New("answer must be one of A, B, C, D")
	ErrInvalidPosition   = errors.New("question index out of range")
)

// Err returns the sentinel error matching r, or nil.
func (r Reason) Err() error {
	switch r {
	case ReasonExamNotFound:
		return ErrExamNotFound
	case ReasonExamNotYetOpen:
		return ErrExamNotYetOpen
	case ReasonExamClosed:
		return ErrExamClosed
	case ReasonAlreadyCompleted:
		return ErrAlreadyCompleted
	case ReasonPersistenceFailure:
		return ErrPersistenceFailure
	}
	return nil
}

// ResultWriter stores the result of an attempt at exams/{examID}/results/{studentID}.
type ResultWriter interface {
	WriteResult(ctx context.Context, examID, studentID string, r model.Result) error
}

// ResultWriterFunc adapts a function to ResultWriter.
type ResultWriterFunc func(ctx context.Context, examID, studentID string, r model.Result) error

func (f ResultWriterFunc) WriteResult(ctx context.Context, examID, studentID string, r model.Result) error {
	return f(ctx, examID, studentID, r)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for the eligibility window and
// the completion timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine is the state machine of a single attempt. It is safe for concurrent
// use; no I/O happens while its lock is held.
type Engine struct {
	mu sync.Mutex

	examID    string
	studentID string
	exam      *model.Exam
	order     []string
	writer    ResultWriter
	now       func() time.Time

	state     State
	reason    Reason
	remaining int
	position  int
	answers   map[string]model.Label
	result    *model.Result
	trigger   Trigger
	lastErr   error
	writes    int
}

// Load evaluates a freshly fetched exam and any stored result for this
// student and returns an engine positioned in TermsGate, Completed or Blocked.
// A stored result wins over the time window so a finished attempt can always
// be reviewed.
func Load(examID, studentID string, exam *model.Exam, prior *model.Result, w ResultWriter, opts ...Option) *Engine {
	e := &Engine{
		examID:    examID,
		studentID: studentID,
		exam:      exam,
		writer:    w,
		now:       time.Now,
		state:     StateLoading,
		answers:   make(map[string]model.Label),
	}
	for _, opt := range opts {
		opt(e)
	}

	switch {
	case exam == nil:
		e.block(ReasonExamNotFound)
		return e
	case prior != nil:
		r := copyResult(*prior)
		e.order = exam.QuestionIDs()
		e.result = &r
		e.answers = copyAnswers(r.Answers)
		e.state = StateCompleted
		e.reason = ReasonAlreadyCompleted
		return e
	}

	now := e.now()
	switch {
	case now.Before(exam.StartTime):
		e.block(ReasonExamNotYetOpen)
	case now.After(exam.EndTime):
		e.block(ReasonExamClosed)
	default:
		e.order = exam.QuestionIDs()
		e.remaining = exam.DurationMinutes * 60
		e.state = StateTermsGate
	}
	return e
}

func (e *Engine) block(r Reason) {
	e.state = StateBlocked
	e.reason = r
}

// Start accepts the terms and begins the countdown. It can happen once.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateTermsGate {
		return e.transitionErr("start")
	}
	e.state = StateInProgress
	return nil
}

// Select records label as the answer to questionID, replacing any earlier choice.
func (e *Engine) Select(questionID string, label model.Label) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateInProgress {
		return e.transitionErr("answer")
	}
	if _, ok := e.exam.Questions[questionID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if !label.Valid() {
		return ErrInvalidLabel
	}
	e.answers[questionID] = label
	return nil
}

// Navigate moves the display position. It never touches answers or the timer.
func (e *Engine) Navigate(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateInProgress {
		return e.transitionErr("navigate")
	}
	if index < 0 || index >= len(e.order) {
		return ErrInvalidPosition
	}
	e.position = index
	return nil
}

// Tick advances the countdown by one second. When it reaches zero the attempt
// is submitted with TriggerTimer. expired is true only when this call made the
// submission; a manual submit that got there first leaves it false.
func (e *Engine) Tick(ctx context.Context) (expired bool, err error) {
	e.mu.Lock()
	if e.state != StateInProgress {
		e.mu.Unlock()
		return false, nil
	}
	if e.remaining > 0 {
		e.remaining--
	}
	zero := e.remaining == 0
	e.mu.Unlock()

	if !zero {
		return false, nil
	}
	_, won, err := e.submit(ctx, TriggerTimer)
	if !won {
		return false, nil
	}
	return true, err
}

// Submit scores the attempt and writes the result. Only the first call made
// while the attempt is InProgress does any work; a call made after completion
// returns the stored result, and a call made while the write is pending
// returns ErrSubmitInFlight.
func (e *Engine) Submit(ctx context.Context, trigger Trigger) (*model.Result, error) {
	r, _, err := e.submit(ctx, trigger)
	return r, err
}

// submit reports whether this call took the attempt out of InProgress.
func (e *Engine) submit(ctx context.Context, trigger Trigger) (*model.Result, bool, error) {
	e.mu.Lock()
	switch e.state {
	case StateInProgress:
	case StateCompleted:
		r := copyResult(*e.result)
		e.mu.Unlock()
		return &r, false, nil
	case StateSubmitting:
		e.mu.Unlock()
		return nil, false, ErrSubmitInFlight
	default:
		err := e.transitionErr("submit")
		e.mu.Unlock()
		return nil, false, err
	}
	e.state = StateSubmitting
	e.trigger = trigger
	_, _, score := Score(e.exam, e.answers)
	e.result = &model.Result{
		Score:       score,
		Answers:     copyAnswers(e.answers),
		CompletedAt: e.now().UTC(),
	}
	e.mu.Unlock()

	r, err := e.persist(ctx)
	return r, true, err
}

// Retry re-attempts the result write after a persistence failure. The score
// computed at submission is reused as is.
func (e *Engine) Retry(ctx context.Context) (*model.Result, error) {
	e.mu.Lock()
	if e.state != StateBlocked || e.reason != ReasonPersistenceFailure {
		err := e.transitionErr("retry")
		e.mu.Unlock()
		return nil, err
	}
	e.state = StateSubmitting
	e.mu.Unlock()

	return e.persist(ctx)
}

func (e *Engine) persist(ctx context.Context) (*model.Result, error) {
	e.mu.Lock()
	r := copyResult(*e.result)
	e.writes++
	e.mu.Unlock()

	err := e.writer.WriteResult(ctx, e.examID, e.studentID, r)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = StateBlocked
		e.reason = ReasonPersistenceFailure
		e.lastErr = err
		return &r, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	e.state = StateCompleted
	e.reason = ReasonNone
	e.lastErr = nil
	return &r, nil
}

func (e *Engine) transitionErr(action string) error {
	if err := e.reason.Err(); err != nil && e.state == StateBlocked {
		return fmt.Errorf("%w: cannot %s: %w", ErrInvalidTransition, action, err)
	}
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, e.state)
}

// Snapshot is a point-in-time copy of an attempt.
type Snapshot struct {
	ExamID           string                 `json:"exam_id"`
	StudentID        string                 `json:"student_id"`
	State            State                  `json:"state"`
	Reason           Reason                 `json:"reason,omitempty"`
	RemainingSeconds int                    `json:"remaining_seconds"`
	Position         int                    `json:"position"`
	TotalQuestions   int                    `json:"total_questions"`
	Answers          map[string]model.Label `json:"answers"`
	Trigger          Trigger                `json:"trigger,omitempty"`
	Result           *model.Result          `json:"result,omitempty"`
	Review           []model.ReviewItem     `json:"review,omitempty"`
	Error            string                 `json:"error,omitempty"`
}

// Snapshot returns the current view of the attempt. The review, which reveals
// correct answers, is only included once the attempt is Completed.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		ExamID:           e.examID,
		StudentID:        e.studentID,
		State:            e.state,
		Reason:           e.reason,
		RemainingSeconds: e.remaining,
		Position:         e.position,
		TotalQuestions:   len(e.order),
		Answers:          copyAnswers(e.answers),
		Trigger:          e.trigger,
	}
	if e.result != nil {
		r := copyResult(*e.result)
		s.Result = &r
	}
	if e.state == StateCompleted && e.exam != nil {
		s.Review = Review(e.exam, e.result.Answers)
	}
	if e.lastErr != nil {
		s.Error = e.lastErr.Error()
	}
	return s
}

// State returns the current state and reason.
func (e *Engine) State() (State, Reason) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.reason
}

// Writes returns how many result writes have been attempted.
func (e *Engine) Writes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writes
}

// Exam returns the exam this attempt is for, or nil when it was not found.
func (e *Engine) Exam() *model.Exam {
	return e.exam
}

func copyAnswers(in map[string]model.Label) map[string]model.Label {
	out := make(map[string]model.Label, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyResult(r model.Result) model.Result {
	r.Answers = copyAnswers(r.Answers)
	return r
}

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/examsession"
	"github.com/stemsi/examportal-backend/internal/metrics"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
)

// ResultQueue hands failed timer-path result writes to the retry worker.
type ResultQueue interface {
	Enqueue(ctx context.Context, job model.PersistJob) error
}

// AttemptView is what a student sees of their attempt. Paper is present
// while the attempt can still be answered and never carries correct answers.
type AttemptView struct {
	examsession.Snapshot
	Paper *model.ExamPaper `json:"paper,omitempty"`
}

// attempt is one registered engine plus its countdown goroutine. active and
// settled are guarded by the service mutex.
type attempt struct {
	key    string
	engine *examsession.Engine
	ctx    context.Context
	cancel context.CancelFunc

	active  bool
	settled bool

	mu       sync.Mutex
	watchers map[chan examsession.Snapshot]struct{}
	timerOn  bool
}

func (a *attempt) broadcast(snap examsession.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for ch := range a.watchers {
		select {
		case ch <- snap:
		default:
		}
	}
}

// ExamSessionService registers one attempt per (exam, student) and drives its
// countdown.
type ExamSessionService struct {
	exams        *ExamService
	results      store.ResultStore
	queue        ResultQueue
	metrics      *metrics.Metrics
	tick         time.Duration
	writeTimeout time.Duration
	retention    time.Duration
	now          func() time.Time
	log          zerolog.Logger

	mu       sync.Mutex
	attempts map[string]*attempt
	root     context.Context
	stop     context.CancelFunc
}

// SessionOption configures an ExamSessionService.
type SessionOption func(*ExamSessionService)

// WithTickInterval overrides the one-second countdown step.
func WithTickInterval(d time.Duration) SessionOption {
	return func(s *ExamSessionService) { s.tick = d }
}

// WithRetention sets how long a finished attempt stays registered for State
// and open streams before it is evicted.
func WithRetention(d time.Duration) SessionOption {
	return func(s *ExamSessionService) { s.retention = d }
}

// WithSessionClock overrides the clock used for the eligibility window.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *ExamSessionService) { s.now = now }
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	exams *ExamService,
	results store.ResultStore,
	queue ResultQueue,
	m *metrics.Metrics,
	log zerolog.Logger,
	opts ...SessionOption,
) *ExamSessionService {
	root, stop := context.WithCancel(context.Background())
	s := &ExamSessionService{
		exams:        exams,
		results:      results,
		queue:        queue,
		metrics:      m,
		tick:         time.Second,
		writeTimeout: 10 * time.Second,
		retention:    2 * time.Minute,
		now:          time.Now,
		log:          log.With().Str("component", "exam_session_service").Logger(),
		attempts:     make(map[string]*attempt),
		root:         root,
		stop:         stop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func attemptKey(examID, studentID string) string {
	return examID + "/" + studentID
}

// WriteResult stores a result once per pair. An existing result means an
// earlier write already landed, so the duplicate is treated as success and
// the stored document is left untouched.
func (s *ExamSessionService) WriteResult(ctx context.Context, examID, studentID string, r model.Result) error {
	err := s.results.Create(ctx, examID, studentID, &r)
	if errors.Is(err, store.ErrDuplicate) {
		s.log.Warn().Str("exam_id", examID).Str("student_id", studentID).Msg("Result already stored, keeping existing")
		return nil
	}
	if err != nil {
		s.metrics.ResultWriteErrors.Inc()
	}
	return err
}

// Enter loads the exam and any stored result and registers a fresh attempt.
// An attempt still in TermsGate or InProgress is discarded without saving. An
// attempt whose result is being written, or is waiting for a retry after a
// failed write, is kept and returned instead.
func (s *ExamSessionService) Enter(ctx context.Context, examID string, student model.Actor) (*AttemptView, error) {
	key := attemptKey(examID, student.UID)
	if a := s.pending(key); a != nil {
		return s.resume(a), nil
	}

	exam, prior := s.load(ctx, examID, student.UID)

	eng := examsession.Load(examID, student.UID, exam, prior, examsession.ResultWriterFunc(s.WriteResult),
		examsession.WithClock(s.now))

	actx, cancel := context.WithCancel(s.root)
	a := &attempt{key: key, engine: eng, ctx: actx, cancel: cancel, watchers: make(map[chan examsession.Snapshot]struct{})}

	s.mu.Lock()
	if old, ok := s.attempts[key]; ok {
		if awaitingWrite(old) {
			s.mu.Unlock()
			cancel()
			return s.resume(old), nil
		}
		old.cancel()
		s.release(old)
		s.log.Info().Str("exam_id", examID).Str("student_id", student.UID).Msg("Discarding previous attempt")
	}
	s.attempts[key] = a
	a.active = true
	s.metrics.ActiveAttempts.Inc()
	s.mu.Unlock()
	s.settle(a)

	state, reason := eng.State()
	s.log.Info().
		Str("exam_id", examID).
		Str("student_id", student.UID).
		Str("state", string(state)).
		Str("reason", string(reason)).
		Msg("Student entered exam")

	return s.view(a), nil
}

// pending returns the registered attempt for key if it holds an unsaved result.
func (s *ExamSessionService) pending(key string) *attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attempts[key]; ok && awaitingWrite(a) {
		return a
	}
	return nil
}

func (s *ExamSessionService) resume(a *attempt) *AttemptView {
	snap := a.engine.Snapshot()
	s.log.Info().
		Str("exam_id", snap.ExamID).
		Str("student_id", snap.StudentID).
		Str("state", string(snap.State)).
		Msg("Student re-entered attempt with unsaved result")
	return s.view(a)
}

func awaitingWrite(a *attempt) bool {
	state, reason := a.engine.State()
	return state == examsession.StateSubmitting ||
		(state == examsession.StateBlocked && reason == examsession.ReasonPersistenceFailure)
}

func finished(a *attempt) bool {
	state, reason := a.engine.State()
	return state == examsession.StateCompleted ||
		(state == examsession.StateBlocked && reason != examsession.ReasonPersistenceFailure)
}

// settle marks a finished attempt inactive and schedules its eviction once.
func (s *ExamSessionService) settle(a *attempt) {
	if !finished(a) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.settled {
		return
	}
	a.settled = true
	s.release(a)
	time.AfterFunc(s.retention, func() { s.evict(a) })
}

// release drops a from the active gauge. Callers hold s.mu.
func (s *ExamSessionService) release(a *attempt) {
	if a.active {
		a.active = false
		s.metrics.ActiveAttempts.Dec()
	}
}

// evict unregisters a, stopping its countdown and closing its watchers.
func (s *ExamSessionService) evict(a *attempt) {
	s.mu.Lock()
	if cur, ok := s.attempts[a.key]; ok && cur == a {
		delete(s.attempts, a.key)
	}
	s.mu.Unlock()
	a.cancel()
}

// load reads the exam and the stored result. Read failures fail closed: the
// attempt is treated as if the exam did not exist.
func (s *ExamSessionService) load(ctx context.Context, examID, studentID string) (*model.Exam, *model.Result) {
	exam, err := s.exams.Get(ctx, examID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Error().Err(err).Str("exam_id", examID).Msg("Exam read failed")
		}
		return nil, nil
	}

	prior, err := s.results.Get(ctx, examID, studentID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return exam, nil
	case err != nil:
		s.log.Error().Err(err).Str("exam_id", examID).Str("student_id", studentID).Msg("Result read failed")
		return nil, nil
	}
	return exam, prior
}

func (s *ExamSessionService) lookup(examID, studentID string) (*attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[attemptKey(examID, studentID)]
	if !ok {
		return nil, ErrNoActiveAttempt
	}
	return a, nil
}

func (s *ExamSessionService) view(a *attempt) *AttemptView {
	v := &AttemptView{Snapshot: a.engine.Snapshot()}
	if exam := a.engine.Exam(); exam != nil && (v.State == examsession.StateTermsGate || v.State == examsession.StateInProgress) {
		p := exam.Paper()
		v.Paper = &p
	}
	return v
}

// Start accepts the terms and starts the countdown.
func (s *ExamSessionService) Start(ctx context.Context, examID, studentID string) (*AttemptView, error) {
	a, err := s.lookup(examID, studentID)
	if err != nil {
		return nil, err
	}
	if err := a.engine.Start(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	if !a.timerOn {
		a.timerOn = true
		go s.runTimer(a)
	}
	a.mu.Unlock()

	s.log.Info().Str("exam_id", examID).Str("student_id", studentID).Msg("Exam started")
	return s.view(a), nil
}

// runTimer ticks the attempt once per interval until it leaves InProgress or
// the attempt is discarded.
func (s *ExamSessionService) runTimer(a *attempt) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
		}

		wctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		expired, err := a.engine.Tick(wctx)
		cancel()

		snap := a.engine.Snapshot()
		a.broadcast(snap)

		if expired {
			s.metrics.Submissions.WithLabelValues(string(examsession.TriggerTimer)).Inc()
			s.log.Info().Str("exam_id", snap.ExamID).Str("student_id", snap.StudentID).Int("score", scoreOf(snap)).Msg("Exam auto-submitted on timeout")
		}
		if err != nil {
			s.enqueue(snap)
		}
		if snap.State != examsession.StateInProgress {
			s.settle(a)
			return
		}
	}
}

func (s *ExamSessionService) enqueue(snap examsession.Snapshot) {
	if s.queue == nil || snap.Result == nil {
		return
	}
	job := model.PersistJob{ExamID: snap.ExamID, StudentID: snap.StudentID, Result: *snap.Result, QueuedAt: s.now().UTC()}
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.log.Error().Err(err).Str("exam_id", snap.ExamID).Str("student_id", snap.StudentID).Msg("Failed to enqueue result retry")
		return
	}
	s.log.Warn().Str("exam_id", snap.ExamID).Str("student_id", snap.StudentID).Msg("Result write failed, queued for retry")
}

func scoreOf(snap examsession.Snapshot) int {
	if snap.Result == nil {
		return 0
	}
	return snap.Result.Score
}

// Answer records the student's choice for one question.
func (s *ExamSessionService) Answer(_ context.Context, examID, studentID, questionID string, label model.Label) (*AttemptView, error) {
	a, err := s.lookup(examID, studentID)
	if err != nil {
		return nil, err
	}
	if err := a.engine.Select(questionID, label); err != nil {
		return nil, err
	}
	return &AttemptView{Snapshot: a.engine.Snapshot()}, nil
}

// Navigate moves the display position.
func (s *ExamSessionService) Navigate(_ context.Context, examID, studentID string, index int) (*AttemptView, error) {
	a, err := s.lookup(examID, studentID)
	if err != nil {
		return nil, err
	}
	if err := a.engine.Navigate(index); err != nil {
		return nil, err
	}
	return &AttemptView{Snapshot: a.engine.Snapshot()}, nil
}

// Submit ends the attempt manually. Persistence failures are returned to the
// caller with the attempt kept in memory for Retry.
func (s *ExamSessionService) Submit(ctx context.Context, examID, studentID string) (*AttemptView, error) {
	a, err := s.lookup(examID, studentID)
	if err != nil {
		return nil, err
	}

	before, _ := a.engine.State()
	_, err = a.engine.Submit(ctx, examsession.TriggerManual)
	view := s.view(a)
	if before == examsession.StateInProgress && !errors.Is(err, examsession.ErrSubmitInFlight) {
		s.metrics.Submissions.WithLabelValues(string(examsession.TriggerManual)).Inc()
	}
	a.broadcast(view.Snapshot)
	s.settle(a)
	if err != nil {
		return view, err
	}

	s.log.Info().Str("exam_id", examID).Str("student_id", studentID).Int("score", scoreOf(view.Snapshot)).Msg("Exam submitted")
	return view, nil
}

// Retry re-attempts a failed result write.
func (s *ExamSessionService) Retry(ctx context.Context, examID, studentID string) (*AttemptView, error) {
	a, err := s.lookup(examID, studentID)
	if err != nil {
		return nil, err
	}
	_, err = a.engine.Retry(ctx)
	view := s.view(a)
	a.broadcast(view.Snapshot)
	s.settle(a)
	return view, err
}

// State returns the current view of the attempt.
func (s *ExamSessionService) State(_ context.Context, examID, studentID string) (*AttemptView, error) {
	a, err := s.lookup(examID, studentID)
	if err != nil {
		return nil, err
	}
	return s.view(a), nil
}

// Watch streams snapshots of the attempt after every tick and state change.
// The channel closes when stop is called or the attempt is discarded or
// evicted.
func (s *ExamSessionService) Watch(examID, studentID string) (<-chan examsession.Snapshot, func(), error) {
	a, err := s.lookup(examID, studentID)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan examsession.Snapshot, 4)
	a.mu.Lock()
	a.watchers[ch] = struct{}{}
	a.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.watchers, ch)
			a.mu.Unlock()
			close(done)
			close(ch)
		})
	}
	go func() {
		select {
		case <-a.ctx.Done():
			stop()
		case <-done:
		}
	}()
	return ch, stop, nil
}

// Recover is called by the retry worker once a queued result is stored. The
// attempt, if still registered, re-runs its write, which now resolves as
// already stored and completes the attempt.
func (s *ExamSessionService) Recover(ctx context.Context, examID, studentID string) {
	a, err := s.lookup(examID, studentID)
	if err != nil {
		return
	}
	if state, reason := a.engine.State(); state != examsession.StateBlocked || reason != examsession.ReasonPersistenceFailure {
		return
	}
	if _, err := a.engine.Retry(ctx); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID).Str("student_id", studentID).Msg("Recovery write failed")
	}
	a.broadcast(a.engine.Snapshot())
	s.settle(a)
}

// Shutdown stops every countdown. Attempts are not persisted.
func (s *ExamSessionService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
	for _, a := range s.attempts {
		s.release(a)
	}
	s.attempts = make(map[string]*attempt)
	s.log.Info().Msg("Exam session service stopped")
}

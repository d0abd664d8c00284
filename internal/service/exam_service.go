package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/examsession"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
)

// ExamService handles exam authoring and cached exam reads.
type ExamService struct {
	store    *store.Store
	cache    ExamCache
	cacheTTL time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewExamService creates a new ExamService. cache may be nil.
func NewExamService(s *store.Store, cache ExamCache, cacheTTL time.Duration, log zerolog.Logger) *ExamService {
	return &ExamService{
		store:    s,
		cache:    cache,
		cacheTTL: cacheTTL,
		now:      time.Now,
		log:      log.With().Str("component", "exam_service").Logger(),
	}
}

// Create validates the draft and stores a new exam authored by author.
// Nothing is written unless every rule holds.
func (s *ExamService) Create(ctx context.Context, author model.Actor, req *model.CreateExamRequest) (*model.Exam, error) {
	if err := examsession.ValidateDraft(req); err != nil {
		return nil, err
	}

	subject, err := s.store.Subjects.Get(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrSubjectNotFound, &examsession.ValidationError{Field: "subject_id", Message: "subject does not exist"})
		}
		return nil, fmt.Errorf("get subject: %w", err)
	}

	exam := examsession.BuildExam(req, subject.Name, author.UID, s.now().UTC())
	if err := s.store.Exams.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.log.Info().
		Str("exam_id", exam.ID).
		Str("author", author.UID).
		Int("questions", len(exam.Questions)).
		Msg("Exam created")
	return exam, nil
}

// List returns every exam, newest first, with result counts.
func (s *ExamService) List(ctx context.Context) ([]model.ExamSummary, error) {
	exams, err := s.store.Exams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return s.summarize(ctx, exams)
}

// ListByAuthor returns the exams created by uid, newest first.
func (s *ExamService) ListByAuthor(ctx context.Context, uid string) ([]model.ExamSummary, error) {
	exams, err := s.store.Exams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	own := exams[:0]
	for _, e := range exams {
		if e.CreatedBy == uid {
			own = append(own, e)
		}
	}
	return s.summarize(ctx, own)
}

func (s *ExamService) summarize(ctx context.Context, exams []model.Exam) ([]model.ExamSummary, error) {
	out := make([]model.ExamSummary, 0, len(exams))
	for i := range exams {
		sum := exams[i].Summary()
		results, err := s.store.Results.ListByExam(ctx, exams[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list results: %w", err)
		}
		sum.ResultCount = len(results)
		out = append(out, sum)
	}
	return out, nil
}

// Get returns the full exam including the answer key. Reads go through the
// cache when one is configured; cache failures fall back to the store.
func (s *ExamService) Get(ctx context.Context, id string) (*model.Exam, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("exam_id", id).Msg("Exam cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	exam, err := s.store.Exams.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, exam, s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Str("exam_id", id).Msg("Exam cache write failed")
		}
	}
	return exam, nil
}

// Delete removes an exam and its results.
func (s *ExamService) Delete(ctx context.Context, id string) error {
	if err := s.store.Exams.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("exam_id", id).Msg("Exam cache invalidation failed")
		}
	}
	s.log.Info().Str("exam_id", id).Msg("Exam deleted")
	return nil
}

// Results returns the per-student results of one exam.
func (s *ExamService) Results(ctx context.Context, id string) ([]model.StudentResult, error) {
	if _, err := s.store.Exams.Get(ctx, id); err != nil {
		return nil, err
	}
	results, err := s.store.Results.ListByExam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	for i := range results {
		if results[i].StudentName != "" {
			continue
		}
		if st, err := s.store.Students.Get(ctx, results[i].StudentID); err == nil {
			results[i].StudentName = st.Name
		}
	}
	return results, nil
}

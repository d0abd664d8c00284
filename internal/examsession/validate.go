package examsession

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stemsi/examportal-backend/internal/model"
)

// ValidationError names the first authoring rule an exam draft breaks.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ErrInvalidExam is matched by every *ValidationError via errors.Is.
var ErrInvalidExam = errors.New("invalid exam")

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidExam
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateDraft checks an authoring payload and returns the first rule it
// breaks, in this order: title, subject, schedule presence, schedule order,
// duration, question count, then per question its text, its four options and
// its correct label. An empty correct label is filled with A.
func ValidateDraft(req *model.CreateExamRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return invalid("title", "title is required")
	}
	if strings.TrimSpace(req.SubjectID) == "" {
		return invalid("subject_id", "subject must be selected")
	}
	if req.StartTime == nil || req.EndTime == nil {
		return invalid("start_time", "start and end time are required")
	}
	if !req.StartTime.Before(*req.EndTime) {
		return invalid("end_time", "end time must be after start time")
	}
	if req.DurationMinutes <= 0 {
		return invalid("duration_minutes", "duration must be greater than 0")
	}
	if len(req.Questions) == 0 {
		return invalid("questions", "exam must have at least one question")
	}

	seen := make(map[string]struct{}, len(req.Questions))
	for i := range req.Questions {
		q := &req.Questions[i]
		n := i + 1
		if q.ID != "" {
			if _, dup := seen[q.ID]; dup {
				return invalid(fmt.Sprintf("questions[%d].id", i), "question %d has a duplicate id", n)
			}
			seen[q.ID] = struct{}{}
		}
		if strings.TrimSpace(q.Text) == "" {
			return invalid(fmt.Sprintf("questions[%d].text", i), "question %d is empty", n)
		}
		for _, l := range model.Labels {
			if strings.TrimSpace(q.Options.Get(l)) == "" {
				return invalid(fmt.Sprintf("questions[%d].options.%s", i, l), "option %s for question %d is empty", l, n)
			}
		}
		if q.CorrectAnswer == "" {
			q.CorrectAnswer = model.LabelA
		}
		if !q.CorrectAnswer.Valid() {
			return invalid(fmt.Sprintf("questions[%d].correct_answer", i), "correct answer for question %d must be one of A, B, C, D", n)
		}
	}
	return nil
}

// ValidateExam re-checks a stored exam against the authoring rules.
func ValidateExam(e *model.Exam) error {
	if strings.TrimSpace(e.Title) == "" {
		return invalid("title", "title is required")
	}
	if e.StartTime.IsZero() || e.EndTime.IsZero() || !e.StartTime.Before(e.EndTime) {
		return invalid("end_time", "end time must be after start time")
	}
	if e.DurationMinutes <= 0 {
		return invalid("duration_minutes", "duration must be greater than 0")
	}
	if len(e.Questions) == 0 {
		return invalid("questions", "exam must have at least one question")
	}
	for _, id := range e.QuestionIDs() {
		q := e.Questions[id]
		if strings.TrimSpace(q.Text) == "" {
			return invalid("questions", "question %s is empty", id)
		}
		for _, l := range model.Labels {
			if strings.TrimSpace(q.Options.Get(l)) == "" {
				return invalid("questions", "option %s for question %s is empty", l, id)
			}
		}
		if !q.CorrectAnswer.Valid() {
			return invalid("questions", "correct answer for question %s is invalid", id)
		}
	}
	return nil
}

// BuildExam turns a validated draft into an exam. Questions without an id are
// numbered after their position, starting at 1.
func BuildExam(req *model.CreateExamRequest, subjectName, author string, now time.Time) *model.Exam {
	terms := req.TermsAndConditions
	if strings.TrimSpace(terms) == "" {
		terms = model.DefaultTermsAndConditions
	}
	e := &model.Exam{
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		SubjectID:          req.SubjectID,
		SubjectName:        subjectName,
		BranchID:           req.BranchID,
		Semester:           req.Semester,
		DurationMinutes:    req.DurationMinutes,
		StartTime:          req.StartTime.UTC(),
		EndTime:            req.EndTime.UTC(),
		TermsAndConditions: terms,
		CreatedBy:          author,
		CreatedAt:          now.UTC(),
		Questions:          make(map[string]model.Question, len(req.Questions)),
	}
	taken := make(map[string]struct{}, len(req.Questions))
	for _, in := range req.Questions {
		if in.ID != "" {
			taken[in.ID] = struct{}{}
		}
	}
	next := 1
	for i, in := range req.Questions {
		id := in.ID
		if id == "" {
			if next < i+1 {
				next = i + 1
			}
			for {
				id = strconv.Itoa(next)
				next++
				if _, clash := taken[id]; !clash {
					break
				}
			}
			taken[id] = struct{}{}
		}
		e.Questions[id] = model.Question{
			ID:            id,
			Text:          in.Text,
			Options:       in.Options,
			CorrectAnswer: in.CorrectAnswer,
		}
	}
	return e
}

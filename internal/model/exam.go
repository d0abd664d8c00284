package model

import (
	"time"
)

// DefaultTermsAndConditions is used when an exam is authored without terms.
const DefaultTermsAndConditions = "1. No electronic devices allowed except the test device.\n" +
	"2. No talking or communication with others during the exam.\n" +
	"3. You may not leave the page once the exam has started.\n" +
	"4. Attempting to cheat will result in automatic disqualification."

// Exam represents an exam entity. Questions are keyed by question id.
type Exam struct {
	ID                 string              `json:"id" firestore:"-"`
	Title              string              `json:"title" firestore:"title"`
	Description        string              `json:"description" firestore:"description"`
	SubjectID          string              `json:"subject_id" firestore:"subjectId"`
	SubjectName        string              `json:"subject" firestore:"subject"`
	BranchID           string              `json:"branch_id,omitempty" firestore:"branch"`
	Semester           string              `json:"semester,omitempty" firestore:"semester"`
	DurationMinutes    int                 `json:"duration_minutes" firestore:"duration"`
	StartTime          time.Time           `json:"start_time" firestore:"startTime"`
	EndTime            time.Time           `json:"end_time" firestore:"endTime"`
	Questions          map[string]Question `json:"questions" firestore:"questions"`
	TermsAndConditions string              `json:"terms_and_conditions" firestore:"termsAndConditions"`
	CreatedBy          string              `json:"created_by" firestore:"createdBy"`
	CreatedAt          time.Time           `json:"created_at" firestore:"createdAt"`
}

// QuestionIDs returns the question ids in display order.
func (e *Exam) QuestionIDs() []string {
	ids := make([]string, 0, len(e.Questions))
	for id := range e.Questions {
		ids = append(ids, id)
	}
	SortQuestionIDs(ids)
	return ids
}

// Paper strips the answer key so the exam can be shown to a student.
func (e *Exam) Paper() ExamPaper {
	p := ExamPaper{
		ID:                 e.ID,
		Title:              e.Title,
		Description:        e.Description,
		SubjectName:        e.SubjectName,
		DurationMinutes:    e.DurationMinutes,
		StartTime:          e.StartTime,
		EndTime:            e.EndTime,
		TermsAndConditions: e.TermsAndConditions,
		Questions:          make([]QuestionForStudent, 0, len(e.Questions)),
	}
	for _, id := range e.QuestionIDs() {
		q := e.Questions[id]
		p.Questions = append(p.Questions, QuestionForStudent{ID: q.ID, Text: q.Text, Options: q.Options})
	}
	return p
}

// ExamPaper is the student-facing view of an exam (no correct answers).
type ExamPaper struct {
	ID                 string               `json:"id"`
	Title              string               `json:"title"`
	Description        string               `json:"description"`
	SubjectName        string               `json:"subject"`
	DurationMinutes    int                  `json:"duration_minutes"`
	StartTime          time.Time            `json:"start_time"`
	EndTime            time.Time            `json:"end_time"`
	TermsAndConditions string               `json:"terms_and_conditions"`
	Questions          []QuestionForStudent `json:"questions"`
}

// ExamSummary is a list row for the authoring and dashboard views.
type ExamSummary struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	SubjectName     string    `json:"subject"`
	BranchID        string    `json:"branch_id,omitempty"`
	Semester        string    `json:"semester,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	QuestionCount   int       `json:"question_count"`
	ResultCount     int       `json:"result_count"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// Summary builds the list row for e.
func (e *Exam) Summary() ExamSummary {
	return ExamSummary{
		ID:              e.ID,
		Title:           e.Title,
		SubjectName:     e.SubjectName,
		BranchID:        e.BranchID,
		Semester:        e.Semester,
		DurationMinutes: e.DurationMinutes,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		QuestionCount:   len(e.Questions),
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
	}
}

// CreateExamRequest is the payload for creating a new exam.
// Field rules beyond length limits are checked by the authoring validator so
// the first failing rule is reported in a fixed order.
type CreateExamRequest struct {
	Title              string          `json:"title" binding:"max=255"`
	Description        string          `json:"description" binding:"max=4000"`
	SubjectID          string          `json:"subject_id" binding:"max=64"`
	BranchID           string          `json:"branch_id" binding:"max=64"`
	Semester           string          `json:"semester" binding:"max=16"`
	DurationMinutes    int             `json:"duration_minutes"`
	StartTime          *time.Time      `json:"start_time"`
	EndTime            *time.Time      `json:"end_time"`
	TermsAndConditions string          `json:"terms_and_conditions" binding:"max=8000"`
	Questions          []QuestionInput `json:"questions" binding:"dive"`
}

package examsession

import (
	"testing"
	"time"

	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() *model.CreateExamRequest {
	start := base
	end := base.Add(7 * 24 * time.Hour)
	return &model.CreateExamRequest{
		Title:           "Midterm",
		SubjectID:       "sub-1",
		DurationMinutes: 60,
		StartTime:       &start,
		EndTime:         &end,
		Questions: []model.QuestionInput{
			{Text: "2+2?", Options: model.Options{A: "3", B: "4", C: "5", D: "6"}, CorrectAnswer: model.LabelB},
		},
	}
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, ErrInvalidExam)
	return ve.Field
}

func TestValidateDraft_Valid(t *testing.T) {
	assert.NoError(t, ValidateDraft(validDraft()))
}

func TestValidateDraft_Rules(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.CreateExamRequest)
		field  string
	}{
		{"blank title", func(r *model.CreateExamRequest) { r.Title = "  " }, "title"},
		{"no subject", func(r *model.CreateExamRequest) { r.SubjectID = "" }, "subject_id"},
		{"no start", func(r *model.CreateExamRequest) { r.StartTime = nil }, "start_time"},
		{"start equals end", func(r *model.CreateExamRequest) { e := *r.StartTime; r.EndTime = &e }, "end_time"},
		{"start after end", func(r *model.CreateExamRequest) { e := r.StartTime.Add(-time.Minute); r.EndTime = &e }, "end_time"},
		{"zero duration", func(r *model.CreateExamRequest) { r.DurationMinutes = 0 }, "duration_minutes"},
		{"no questions", func(r *model.CreateExamRequest) { r.Questions = nil }, "questions"},
		{"empty text", func(r *model.CreateExamRequest) { r.Questions[0].Text = "" }, "questions[0].text"},
		{"missing option C", func(r *model.CreateExamRequest) { r.Questions[0].Options.C = " " }, "questions[0].options.C"},
		{"bad label", func(r *model.CreateExamRequest) { r.Questions[0].CorrectAnswer = "E" }, "questions[0].correct_answer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validDraft()
			tc.mutate(r)
			assert.Equal(t, tc.field, fieldOf(t, ValidateDraft(r)))
		})
	}
}

func TestValidateDraft_FirstErrorWins(t *testing.T) {
	r := validDraft()
	r.Title = ""
	r.DurationMinutes = -1
	r.Questions = nil
	assert.Equal(t, "title", fieldOf(t, ValidateDraft(r)))
}

func TestValidateDraft_DefaultsCorrectAnswerToA(t *testing.T) {
	r := validDraft()
	r.Questions[0].CorrectAnswer = ""
	require.NoError(t, ValidateDraft(r))
	assert.Equal(t, model.LabelA, r.Questions[0].CorrectAnswer)
}

func TestBuildExam(t *testing.T) {
	r := validDraft()
	r.Questions = append(r.Questions,
		model.QuestionInput{ID: "2", Text: "3+3?", Options: model.Options{A: "6", B: "7", C: "8", D: "9"}, CorrectAnswer: model.LabelA},
		model.QuestionInput{Text: "1+1?", Options: model.Options{A: "1", B: "2", C: "3", D: "4"}, CorrectAnswer: model.LabelB},
	)
	require.NoError(t, ValidateDraft(r))

	e := BuildExam(r, "Mathematics", "teacher-1", base)

	assert.Equal(t, "Mathematics", e.SubjectName)
	assert.Equal(t, "teacher-1", e.CreatedBy)
	assert.Equal(t, model.DefaultTermsAndConditions, e.TermsAndConditions)
	assert.Equal(t, []string{"1", "2", "3"}, e.QuestionIDs())
	assert.Equal(t, "1+1?", e.Questions["3"].Text)
	assert.NoError(t, ValidateExam(e))
}

func TestReview_OrdersQuestionsNumerically(t *testing.T) {
	exam := &model.Exam{Questions: map[string]model.Question{}}
	for _, id := range []string{"10", "2", "1"} {
		exam.Questions[id] = question(id, model.LabelA)
	}
	items := Review(exam, map[string]model.Label{"2": model.LabelA})
	require.Len(t, items, 3)
	assert.Equal(t, "1", items[0].QuestionID)
	assert.Equal(t, model.ReviewUnanswered, items[0].Status)
	assert.Equal(t, "2", items[1].QuestionID)
	assert.Equal(t, model.ReviewCorrect, items[1].Status)
	assert.Equal(t, "10", items[2].QuestionID)
}

package model

import "time"

// Result is the single persisted outcome of one student taking one exam.
// Its JSON form is the stored record shape: {score, answers, completedAt}.
type Result struct {
	Score       int              `json:"score" firestore:"score"`
	Answers     map[string]Label `json:"answers" firestore:"answers"`
	CompletedAt time.Time        `json:"completedAt" firestore:"completedAt"`
}

// StudentResult is a Result together with the pair it belongs to.
type StudentResult struct {
	ExamID      string `json:"exam_id"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name,omitempty"`
	Result
}

// ReviewStatus annotates one question of a completed attempt.
type ReviewStatus string

const (
	ReviewCorrect    ReviewStatus = "correct"
	ReviewIncorrect  ReviewStatus = "incorrect"
	ReviewUnanswered ReviewStatus = "unanswered"
)

// ReviewItem is one row of the post-submission review.
type ReviewItem struct {
	QuestionID    string       `json:"question_id"`
	Text          string       `json:"text"`
	Options       Options      `json:"options"`
	Selected      Label        `json:"selected,omitempty"`
	CorrectAnswer Label        `json:"correct_answer"`
	Status        ReviewStatus `json:"status"`
}

// PersistJob is a result write handed to the retry worker.
type PersistJob struct {
	ExamID    string    `json:"exam_id"`
	StudentID string    `json:"student_id"`
	Result    Result    `json:"result"`
	Attempts  int       `json:"attempts"`
	QueuedAt  time.Time `json:"queued_at"`
}

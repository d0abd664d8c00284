package model

// AnswerRequest selects one option for a question.
type AnswerRequest struct {
	Answer Label `json:"answer" binding:"required"`
}

// NavigateRequest moves the display position of an attempt.
type NavigateRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}

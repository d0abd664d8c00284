package model

import (
	"sort"
	"strconv"
)

// Label addresses one of the four options of a question.
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"
)

// Labels lists the option labels in display order.
var Labels = [4]Label{LabelA, LabelB, LabelC, LabelD}

// Valid reports whether l is one of A, B, C or D.
func (l Label) Valid() bool {
	switch l {
	case LabelA, LabelB, LabelC, LabelD:
		return true
	}
	return false
}

// Options holds the four answer choices of a question.
type Options struct {
	A string `json:"A" firestore:"A"`
	B string `json:"B" firestore:"B"`
	C string `json:"C" firestore:"C"`
	D string `json:"D" firestore:"D"`
}

// Get returns the text of the option addressed by l.
func (o Options) Get(l Label) string {
	switch l {
	case LabelA:
		return o.A
	case LabelB:
		return o.B
	case LabelC:
		return o.C
	case LabelD:
		return o.D
	}
	return ""
}

// Question represents a single multiple-choice exam question.
type Question struct {
	ID            string  `json:"id" firestore:"id"`
	Text          string  `json:"text" firestore:"text"`
	Options       Options `json:"options" firestore:"options"`
	CorrectAnswer Label   `json:"correct_answer" firestore:"correctAnswer"`
}

// QuestionForStudent is a question without the correct answer, sent to students.
type QuestionForStudent struct {
	ID      string  `json:"id"`
	Text    string  `json:"text"`
	Options Options `json:"options"`
}

// QuestionInput is one question of an exam authoring payload.
type QuestionInput struct {
	ID            string  `json:"id" binding:"omitempty,max=64"`
	Text          string  `json:"text" binding:"max=2000"`
	Options       Options `json:"options"`
	CorrectAnswer Label   `json:"correct_answer"`
}

// SortQuestionIDs orders question ids numerically when both are integers
// and lexically otherwise, so "2" precedes "10".
func SortQuestionIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return ids[i] < ids[j]
	})
}

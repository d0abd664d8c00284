package examsession

import "github.com/stemsi/examportal-backend/internal/model"

// Score counts the answers that match the correct label of their question and
// returns the percentage rounded half up. Unanswered questions stay in the
// denominator.
func Score(exam *model.Exam, answers map[string]model.Label) (correct, total, score int) {
	total = len(exam.Questions)
	if total == 0 {
		return 0, 0, 0
	}
	for id, q := range exam.Questions {
		if sel, ok := answers[id]; ok && sel == q.CorrectAnswer {
			correct++
		}
	}
	return correct, total, Percent(correct, total)
}

// Percent returns round(correct/total*100) with halves rounded up, using
// integer arithmetic only.
func Percent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// Review annotates every question of the exam against the given answers.
// The correct label is always present, whatever the student picked.
func Review(exam *model.Exam, answers map[string]model.Label) []model.ReviewItem {
	ids := exam.QuestionIDs()
	items := make([]model.ReviewItem, 0, len(ids))
	for _, id := range ids {
		q := exam.Questions[id]
		item := model.ReviewItem{
			QuestionID:    id,
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		}
		sel, ok := answers[id]
		switch {
		case !ok || sel == "":
			item.Status = model.ReviewUnanswered
		case sel == q.CorrectAnswer:
			item.Selected = sel
			item.Status = model.ReviewCorrect
		default:
			item.Selected = sel
			item.Status = model.ReviewIncorrect
		}
		items = append(items, item)
	}
	return items
}

// Package scoring turns a quiz definition and the answers recorded against it
// into a score, a percentage and a pass verdict. Everything here is pure.
package scoring

import (
	"github.com/anjiri1684/quizmaster/models"
	"github.com/google/uuid"
)

type Result struct {
	Score          int  `json:"score"`
	TotalQuestions int  `json:"total_questions"`
	Percentage     int  `json:"percentage"`
	Passed         bool `json:"passed"`
	PassPercentage int  `json:"pass_percentage"`
}

// EvaluateAnswer reports whether selected names an option of question that is
// marked correct. Unknown ids and free text never match.
func EvaluateAnswer(question *models.Question, selected string) bool {
	if question == nil {
		return false
	}
	id, err := uuid.Parse(selected)
	if err != nil {
		return false
	}
	for _, option := range question.Options {
		if option != nil && option.ID == id {
			return option.Correct
		}
	}
	return false
}

// Score counts the correct answers among those that belong to the quiz. When
// answers repeat a question id the last one wins. Unanswered questions count
// as incorrect.
func Score(quiz *models.Quiz, answers []*models.AttemptAnswer) Result {
	result := Result{PassPercentage: models.DefaultPassPercentage}
	if quiz == nil {
		result.Passed = result.Percentage >= result.PassPercentage
		return result
	}
	result.PassPercentage = quiz.EffectivePassPercentage()
	known := make(map[uuid.UUID]struct{}, len(quiz.Questions))
	for _, question := range quiz.Questions {
		if question == nil {
			continue
		}
		known[question.ID] = struct{}{}
		result.TotalQuestions++
	}

	latest := make(map[uuid.UUID]bool, len(answers))
	for _, answer := range answers {
		if answer == nil {
			continue
		}
		if _, ok := known[answer.QuestionID]; !ok {
			continue
		}
		latest[answer.QuestionID] = answer.IsCorrect
	}
	for _, correct := range latest {
		if correct {
			result.Score++
		}
	}

	result.Percentage = Percentage(result.Score, result.TotalQuestions)
	result.Passed = result.Percentage >= result.PassPercentage
	return result
}

// Percentage is score/total*100 rounded half up, computed on integers so ties
// are exact. A quiz without questions scores 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*score + total) / (2 * total)
}

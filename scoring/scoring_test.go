package scoring

import (
	"testing"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/google/uuid"
)

func buildQuiz(questionCount, passPercentage int) *models.Quiz {
	quiz := &models.Quiz{ID: uuid.New(), PassPercentage: passPercentage}
	for i := 0; i < questionCount; i++ {
		question := &models.Question{ID: uuid.New(), Position: i}
		question.Options = []*models.AnswerOption{
			{ID: uuid.New(), Text: "right", Correct: true},
			{ID: uuid.New(), Text: "wrong"},
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz
}

func answersFor(quiz *models.Quiz, correct int) []*models.AttemptAnswer {
	answers := make([]*models.AttemptAnswer, 0, len(quiz.Questions))
	for i, question := range quiz.Questions {
		answers = append(answers, &models.AttemptAnswer{
			QuestionID: question.ID,
			IsCorrect:  i < correct,
		})
	}
	return answers
}

func TestScoreScenarios(t *testing.T) {
	testCases := []struct {
		name           string
		questions      int
		passPercentage int
		correct        int
		wantPercentage int
		wantPassed     bool
	}{
		{"three of four passes at 70", 4, 70, 3, 75, true},
		{"two of three fails at 70", 3, 70, 2, 67, false},
		{"all correct", 5, 70, 5, 100, true},
		{"one of eight rounds half up", 8, 10, 1, 13, true},
		{"unset threshold defaults to 70", 10, 0, 7, 70, true},
		{"unset threshold fails below 70", 10, 0, 6, 60, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			quiz := buildQuiz(tc.questions, tc.passPercentage)
			result := Score(quiz, answersFor(quiz, tc.correct))

			if result.Score != tc.correct {
				t.Errorf("expected score %d, got %d", tc.correct, result.Score)
			}
			if result.Percentage != tc.wantPercentage {
				t.Errorf("expected percentage %d, got %d", tc.wantPercentage, result.Percentage)
			}
			if result.Passed != tc.wantPassed {
				t.Errorf("expected passed=%v, got %v", tc.wantPassed, result.Passed)
			}
			if result.TotalQuestions != tc.questions {
				t.Errorf("expected %d questions, got %d", tc.questions, result.TotalQuestions)
			}
		})
	}
}

func TestScoreEmptyAnswers(t *testing.T) {
	for _, pass := range []int{0, 1, 70, 100} {
		quiz := buildQuiz(4, pass)
		result := Score(quiz, nil)
		if result.Percentage != 0 || result.Score != 0 {
			t.Fatalf("expected zero score, got %+v", result)
		}
		if result.PassPercentage != pass {
			t.Errorf("expected pass percentage %d, got %d", pass, result.PassPercentage)
		}
		if result.Passed != (0 >= pass) {
			t.Errorf("pass=%d: unexpected passed=%v", pass, result.Passed)
		}
	}
}

func TestScoreWithoutQuestions(t *testing.T) {
	result := Score(&models.Quiz{PassPercentage: 50}, []*models.AttemptAnswer{{QuestionID: uuid.New(), IsCorrect: true}})
	if result.Percentage != 0 || result.Score != 0 || result.Passed {
		t.Errorf("expected empty quiz to score 0 and fail, got %+v", result)
	}
}

func TestScoreIgnoresForeignQuestionsAndDuplicates(t *testing.T) {
	quiz := buildQuiz(2, 50)
	answers := []*models.AttemptAnswer{
		{QuestionID: quiz.Questions[0].ID, IsCorrect: true},
		{QuestionID: quiz.Questions[0].ID, IsCorrect: false},
		{QuestionID: uuid.New(), IsCorrect: true},
	}

	result := Score(quiz, answers)
	if result.Score != 0 {
		t.Errorf("expected last answer per question to win and foreign ids to be ignored, got score %d", result.Score)
	}
}

func TestEvaluateAnswer(t *testing.T) {
	right := &models.AnswerOption{ID: uuid.New(), Correct: true}
	wrong := &models.AnswerOption{ID: uuid.New()}
	alsoRight := &models.AnswerOption{ID: uuid.New(), Correct: true}

	testCases := []struct {
		name     string
		question *models.Question
		selected string
		want     bool
	}{
		{"correct option", &models.Question{Options: []*models.AnswerOption{right, wrong}}, right.ID.String(), true},
		{"incorrect option", &models.Question{Options: []*models.AnswerOption{right, wrong}}, wrong.ID.String(), false},
		{"unknown id", &models.Question{Options: []*models.AnswerOption{right, wrong}}, uuid.NewString(), false},
		{"free text", &models.Question{Type: models.QuestionFreeText}, "Paris", false},
		{"empty selection", &models.Question{Options: []*models.AnswerOption{right}}, "", false},
		{"no correct options", &models.Question{Options: []*models.AnswerOption{wrong}}, wrong.ID.String(), false},
		{"several correct options", &models.Question{Options: []*models.AnswerOption{right, alsoRight}}, alsoRight.ID.String(), true},
		{"nil question", nil, right.ID.String(), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EvaluateAnswer(tc.question, tc.selected); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestPercentage(t *testing.T) {
	testCases := []struct {
		score, total, want int
	}{
		{0, 0, 0},
		{2, 3, 67},
		{1, 3, 33},
		{1, 2, 50},
		{1, 8, 13},
		{3, 8, 38},
		{7, 7, 100},
	}
	for _, tc := range testCases {
		if got := Percentage(tc.score, tc.total); got != tc.want {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tc.score, tc.total, got, tc.want)
		}
	}
}

func TestScoreZeroPassPercentage(t *testing.T) {
	quiz := buildQuiz(3, 0)
	result := Score(quiz, answersFor(quiz, 0))
	if result.PassPercentage != 0 || !result.Passed {
		t.Errorf("expected a zero threshold to pass with no correct answers, got %+v", result)
	}
}

func TestScoreSkipsNilQuestions(t *testing.T) {
	quiz := buildQuiz(2, 50)
	answers := answersFor(quiz, 1)
	quiz.Questions = append(quiz.Questions, nil)

	result := Score(quiz, answers)
	if result.TotalQuestions != 2 || result.Score != 1 || result.Percentage != 50 || !result.Passed {
		t.Errorf("expected nil questions to be ignored, got %+v", result)
	}
	if _, ok := quiz.Question(uuid.New()); ok {
		t.Errorf("expected lookup of an unknown id to miss")
	}
	if view := quiz.View(); len(view.Questions) != 2 || view.QuestionCount != 2 {
		t.Errorf("expected view to skip nil questions, got %d", len(view.Questions))
	}
}

package quiz

import (
	"errors"
	"slices"
)

var ErrInvalidQuiz = errors.New("invalid quiz")

type Question struct {
	Text    string   `json:"text"`
	Answers []string `json:"answers"`
	Correct string   `json:"correct"`
}

type Quiz struct {
	ID        string     `json:"quizId"`
	Name      string     `json:"name"`
	HostCode  string     `json:"hostCode"`
	Questions []Question `json:"questions"`
}

// Summary is the public listing view; it never carries the host code.
type Summary struct {
	ID            string `json:"quizId"`
	Name          string `json:"name"`
	QuestionCount int    `json:"questionCount"`
}

func (q Quiz) Summary() Summary {
	return Summary{ID: q.ID, Name: q.Name, QuestionCount: len(q.Questions)}
}

func Validate(name string, questions []Question) error {
	if name == "" || len(questions) == 0 {
		return ErrInvalidQuiz
	}
	for _, qu := range questions {
		if qu.Text == "" || len(qu.Answers) < 2 {
			return ErrInvalidQuiz
		}
		if !slices.Contains(qu.Answers, qu.Correct) {
			return ErrInvalidQuiz
		}
	}
	return nil
}

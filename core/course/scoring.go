package course

// Answer is a learner's answer to one question of the quiz bank.
type Answer struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type QuestionResult struct {
	QuizID        string `json:"quizId"`
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
}

// ScoreReport is the outcome of grading a submission.
// Passed is decided by the caller against its pass threshold.
type ScoreReport struct {
	Score       int              `json:"score"`
	Total       int              `json:"total"`
	Percentage  float64          `json:"percentage"`
	Passed      bool             `json:"passed"`
	NoQuestions bool             `json:"noQuestions"`
	Results     []QuestionResult `json:"results"`
}

// Score grades answers against bank. Every question of the bank is graded: a missing answer is
// incorrect, and only an exact (case-sensitive) match of the correct answer earns a point.
// Answers to unknown questions are ignored. When a question is answered more than once the
// first answer counts. An empty bank scores 0% with NoQuestions set.
func Score(bank []QuizQuestion, answers []Answer) ScoreReport {
	given := make(map[string]string, len(answers))
	for _, a := range answers {
		if _, ok := given[a.QuestionID]; !ok {
			given[a.QuestionID] = a.Answer
		}
	}

	report := ScoreReport{
		Total:   len(bank),
		Results: make([]QuestionResult, 0, len(bank)),
	}
	for _, q := range bank {
		ans, ok := given[q.ID]
		correct := ok && ans == q.CorrectAnswer
		if correct {
			report.Score++
		}
		report.Results = append(report.Results, QuestionResult{
			QuizID:        q.ID,
			IsCorrect:     correct,
			CorrectAnswer: q.CorrectAnswer,
		})
	}

	if report.Total == 0 {
		report.NoQuestions = true
		return report
	}
	report.Percentage = float64(report.Score*100) / float64(report.Total)
	return report
}

package entity

import "time"

// FormulaProgress aggregates a user's attempts on one formula's quiz.
type FormulaProgress struct {
	UserID        int        `json:"user_id"`
	FormulaID     int        `json:"formula_id"`
	FormulaName   string     `json:"formula_name"`
	AttemptsCount int        `json:"attempts_count"`
	CorrectCount  int        `json:"correct_count"`
	LastAttemptAt *time.Time `json:"last_attempt_at"`
}

func (p FormulaProgress) Accuracy() int {
	if p.AttemptsCount == 0 {
		return 0
	}
	return p.CorrectCount * 100 / p.AttemptsCount
}

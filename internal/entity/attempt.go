package entity

import "time"

// Attempt is one graded quiz answer of a signed-in user.
type Attempt struct {
	ID           int          `json:"id"`
	UserID       int          `json:"user_id"`
	FormulaID    *int         `json:"formula_id,omitempty"`
	FormulaName  string       `json:"formula_name"`
	CourseID     *int         `json:"course_id,omitempty"`
	QuestionID   int          `json:"question_id"`
	QuestionType QuestionType `json:"question_type"`
	UserAnswer   string       `json:"user_answer"`
	IsCorrect    bool         `json:"is_correct"`
	CreatedAt    time.Time    `json:"created_at"`
}

func NewAttempt(userID int, q Question, userAnswer string, correct bool) Attempt {
	return Attempt{
		UserID:       userID,
		FormulaID:    q.FormulaID,
		QuestionID:   q.QuestionID,
		QuestionType: q.QuestionType,
		UserAnswer:   userAnswer,
		IsCorrect:    correct,
	}
}

package entity

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	WordProblem    QuestionType = "word_problem"
	Multipart      QuestionType = "multipart"
)

type AnswerOption struct {
	AnswerID      int      `json:"answer_id"`
	AnswerText    string   `json:"answer_text"`
	AnswerNumeric *float64 `json:"answer_numeric"`
	IsCorrect     bool     `json:"is_correct"`
	DisplayOrder  int      `json:"display_order"`
}

type QuestionPart struct {
	QuestionID   int            `json:"question_id"`
	PartLabel    string         `json:"part_label"`
	Stem         string         `json:"stem"`
	DisplayOrder int            `json:"display_order"`
	Answers      []AnswerOption `json:"answers"`
}

type Question struct {
	QuestionID   int            `json:"question_id"`
	QuestionType QuestionType   `json:"question_type"`
	Stem         string         `json:"stem"`
	Explanation  *string        `json:"explanation"`
	DisplayOrder int            `json:"display_order"`
	FormulaID    *int           `json:"formula_id"`
	Answers      []AnswerOption `json:"answers"`
	Parts        []QuestionPart `json:"parts"`
}

// CourseQuestions is the response of GET /api/courses/:id/questions.
type CourseQuestions struct {
	Questions  []Question `json:"questions"`
	CourseName string     `json:"course_name"`
	CourseCode *string    `json:"course_code"`
}

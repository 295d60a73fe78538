package entity

// Formula mirrors a formula record of the backend.
type Formula struct {
	ID                   int             `json:"id"`
	FormulaName          string          `json:"formula_name"`
	Latex                string          `json:"latex"`
	FormulaDescription   *string         `json:"formula_description"`
	EnglishVerbalization *string         `json:"english_verbalization"`
	Variables            []Variable      `json:"variables"`
	Keywords             []Keyword       `json:"keywords"`
	Examples             []Example       `json:"examples"`
	Prerequisites        []Prerequisite  `json:"prerequisites"`
	HelperFormulas       []HelperFormula `json:"helper_formulas"`
}

type Variable struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type Keyword struct {
	Keyword string  `json:"keyword"`
	Type    string  `json:"type"`
	Weight  float64 `json:"weight"`
}

type Example struct {
	Title       string             `json:"title"`
	Problem     string             `json:"problem"`
	GivenValues map[string]float64 `json:"given_values"`
	Solution    string             `json:"solution"`
	Answer      string             `json:"answer"`
}

type Prerequisite struct {
	Concept     string `json:"concept"`
	Importance  string `json:"importance"`
	Description string `json:"description"`
}

type HelperFormula struct {
	ID           int     `json:"id"`
	Relationship string  `json:"relationship"`
	Context      string  `json:"context"`
	FormulaName  *string `json:"formula_name"`
	Latex        *string `json:"latex"`
}

type Discipline struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Handle       string  `json:"handle"`
	Description  *string `json:"description"`
	ParentID     *int    `json:"parent_id"`
	ParentName   *string `json:"parent_name"`
	ParentHandle *string `json:"parent_handle"`
	FormulaCount int     `json:"formula_count"`
	TermCount    int     `json:"term_count"`
}

type Term struct {
	ID           int    `json:"id"`
	TermName     string `json:"term_name"`
	Definition   string `json:"definition"`
	DisplayOrder *int   `json:"display_order"`
}

type Application struct {
	ID              int     `json:"id"`
	Title           string  `json:"title"`
	ProblemText     string  `json:"problem_text"`
	SubjectArea     *string `json:"subject_area"`
	DifficultyLevel *string `json:"difficulty_level"`
	CreatedAt       *string `json:"created_at"`
}

type NewApplication struct {
	Title           string `json:"title"`
	ProblemText     string `json:"problem_text"`
	SubjectArea     string `json:"subject_area,omitempty"`
	DifficultyLevel string `json:"difficulty_level,omitempty"`
}

// ProblemMatch is one formula suggested for a free-text problem.
type ProblemMatch struct {
	Formula        Formula  `json:"formula"`
	RelevanceScore float64  `json:"relevance_score"`
	MatchReasons   []string `json:"match_reasons"`
}

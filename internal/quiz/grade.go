// Package quiz grades answers to formula quiz questions.
package quiz

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"linguaformula/internal/entity"
)

// Tolerance is the largest absolute error accepted for numeric answers.
const Tolerance = 0.01

// Answer is what the user submitted for one question.
type Answer struct {
	SelectedID *int
	Text       string
	// Parts maps a part's question_id to its text answer.
	Parts map[int]string
}

type Result struct {
	Correct bool
	Message string
}

func incorrect(msg string) Result { return Result{Message: msg} }

// Grade checks a against q. It has no side effects.
func Grade(q entity.Question, a Answer) Result {
	switch q.QuestionType {
	case entity.MultipleChoice, entity.TrueFalse:
		return gradeChoice(q, a)
	case entity.WordProblem:
		return gradeWord(q.Answers, a.Text)
	case entity.Multipart:
		// an empty parts list has nothing to get wrong; a missing one is invalid
		if q.Parts != nil {
			return gradeParts(q.Parts, a.Parts)
		}
	}
	return incorrect("Unknown question type.")
}

func correctOption(opts []entity.AnswerOption) *entity.AnswerOption {
	for i := range opts {
		if opts[i].IsCorrect {
			return &opts[i]
		}
	}
	return nil
}

func gradeChoice(q entity.Question, a Answer) Result {
	var selected *entity.AnswerOption
	if a.SelectedID != nil {
		for i := range q.Answers {
			if q.Answers[i].AnswerID == *a.SelectedID {
				selected = &q.Answers[i]
				break
			}
		}
	}
	if selected == nil {
		return incorrect("Please select an answer.")
	}
	if selected.IsCorrect {
		return Result{Correct: true, Message: "Correct!"}
	}
	want := "—"
	if c := correctOption(q.Answers); c != nil {
		want = c.AnswerText
	}
	return incorrect(fmt.Sprintf("Incorrect. The correct answer is: %s.", want))
}

func gradeWord(opts []entity.AnswerOption, input string) Result {
	input = strings.TrimSpace(input)
	if input == "" {
		return incorrect("Please enter an answer.")
	}
	c := correctOption(opts)
	if c == nil {
		return incorrect("No correct answer defined.")
	}
	if Matches(*c, input) {
		return Result{Correct: true, Message: "Correct!"}
	}
	return incorrect(fmt.Sprintf("Incorrect. The correct answer is: %s.", c.AnswerText))
}

func gradeParts(parts []entity.QuestionPart, answers map[int]string) Result {
	var misses []string
	for _, p := range SortedParts(parts) {
		c := correctOption(p.Answers)
		if c == nil {
			continue
		}
		if !Matches(*c, strings.TrimSpace(answers[p.QuestionID])) {
			misses = append(misses, fmt.Sprintf("Part (%s): correct answer is %s.", p.PartLabel, c.AnswerText))
		}
	}
	if len(misses) == 0 {
		return Result{Correct: true, Message: "Correct!"}
	}
	return incorrect("Incorrect. " + strings.Join(misses, " "))
}

// Matches compares an already trimmed input with the correct option:
// numerically within Tolerance when the option has a numeric value,
// otherwise as case-insensitive text.
func Matches(correct entity.AnswerOption, input string) bool {
	if correct.AnswerNumeric != nil {
		n := ParseLeadingFloat(input)
		return !math.IsNaN(n) && math.Abs(n-*correct.AnswerNumeric) < Tolerance
	}
	return strings.EqualFold(input, correct.AnswerText)
}

var leadingFloat = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// ParseLeadingFloat reads the number at the start of s and ignores the
// rest, so "9.81 m/s^2" is 9.81. It returns NaN when s does not start
// with a number.
func ParseLeadingFloat(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	m := leadingFloat.FindString(s)
	if m == "" {
		return math.NaN()
	}
	switch strings.TrimLeft(m, "+") {
	case "Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// exponent overflow still yields ±Inf with a range error
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

// SortedAnswers returns opts ordered by display order.
func SortedAnswers(opts []entity.AnswerOption) []entity.AnswerOption {
	out := append([]entity.AnswerOption(nil), opts...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out
}

// SortedParts returns parts ordered by display order.
func SortedParts(parts []entity.QuestionPart) []entity.QuestionPart {
	if parts == nil {
		return nil
	}
	out := make([]entity.QuestionPart, len(parts))
	copy(out, parts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out
}

// SortedQuestions returns qs ordered by display order.
func SortedQuestions(qs []entity.Question) []entity.Question {
	out := append([]entity.Question(nil), qs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out
}

package catalog

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"linguaformula/internal/entity"
)

// FilterTerms keeps terms whose name contains name and whose definition
// contains definition, ignoring case.
func FilterTerms(terms []entity.Term, name, definition string) []entity.Term {
	name = strings.ToLower(strings.TrimSpace(name))
	definition = strings.ToLower(strings.TrimSpace(definition))

	out := make([]entity.Term, 0, len(terms))
	for _, t := range terms {
		if name != "" && !strings.Contains(strings.ToLower(t.TermName), name) {
			continue
		}
		if definition != "" && !strings.Contains(strings.ToLower(t.Definition), definition) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SortTerms orders by display order, then name. Terms without a display
// order come last.
func SortTerms(terms []entity.Term) []entity.Term {
	out := append([]entity.Term(nil), terms...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DisplayOrder, out[j].DisplayOrder
		switch {
		case a != nil && b != nil && *a != *b:
			return *a < *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return strings.ToLower(out[i].TermName) < strings.ToLower(out[j].TermName)
	})
	return out
}

var sentenceStart = regexp.MustCompile(`([.!?]\s*)([a-z])`)

// CapitalizeSentences trims text and upper-cases its first letter and the
// first lowercase letter after each sentence end.
func CapitalizeSentences(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	s := strings.TrimSpace(text)
	r, size := utf8.DecodeRuneInString(s)
	s = string(unicode.ToUpper(r)) + s[size:]
	return sentenceStart.ReplaceAllStringFunc(s, func(m string) string {
		return m[:len(m)-1] + strings.ToUpper(m[len(m)-1:])
	})
}

// ParseIDList reads "1,2,3" and skips anything that is not a number.
func ParseIDList(s string) []int {
	var out []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func FormatIDList(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

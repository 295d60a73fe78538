// Package catalog holds the filtering and ordering applied to collections
// fetched from the backend before they are rendered. Every function
// returns a new slice and leaves its input untouched.
package catalog

import (
	"sort"
	"strings"
	"unicode"

	"linguaformula/internal/entity"
)

// LinkFilter narrows course-formula links. Empty fields match everything;
// set fields are combined with AND.
type LinkFilter struct {
	SegmentType string
	Query       string
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (f LinkFilter) match(l entity.CourseFormula) bool {
	if f.SegmentType != "" && deref(l.SegmentType) != f.SegmentType {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, field := range []string{l.FormulaName, deref(l.SegmentLabel), deref(l.FormulaDescription), l.CourseName} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func FilterLinks(links []entity.CourseFormula, f LinkFilter) []entity.CourseFormula {
	out := make([]entity.CourseFormula, 0, len(links))
	for _, l := range links {
		if f.match(l) {
			out = append(out, l)
		}
	}
	return out
}

type SortKey string

const (
	SortByName    SortKey = "name"
	SortBySegment SortKey = "segment"
	SortByLabel   SortKey = "label"
	SortByCourse  SortKey = "course"
)

// ParseSortKey maps a query value to a key, defaulting to name.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortBySegment, SortByLabel, SortByCourse:
		return SortKey(s)
	}
	return SortByName
}

var segmentRank = map[string]int{
	entity.SegmentChapter:     1,
	entity.SegmentModule:      2,
	entity.SegmentExamination: 3,
}

// SortLinks returns links ordered by key. Ties fall back to formula name.
// Unclassified links sort after classified ones in ascending order.
func SortLinks(links []entity.CourseFormula, key SortKey, desc bool) []entity.CourseFormula {
	out := append([]entity.CourseFormula(nil), links...)

	byName := func(a, b entity.CourseFormula) int {
		return NaturalCompare(strings.ToLower(a.FormulaName), strings.ToLower(b.FormulaName))
	}

	cmp := byName
	switch key {
	case SortBySegment:
		cmp = func(a, b entity.CourseFormula) int {
			ra, rb := rank(a.SegmentType), rank(b.SegmentType)
			if ra != rb {
				return ra - rb
			}
			return byName(a, b)
		}
	case SortByLabel:
		cmp = func(a, b entity.CourseFormula) int {
			la, lb := strings.TrimSpace(deref(a.SegmentLabel)), strings.TrimSpace(deref(b.SegmentLabel))
			switch {
			case la == "" && lb != "":
				return 1
			case la != "" && lb == "":
				return -1
			}
			if c := NaturalCompare(strings.ToLower(la), strings.ToLower(lb)); c != 0 {
				return c
			}
			return byName(a, b)
		}
	case SortByCourse:
		cmp = func(a, b entity.CourseFormula) int {
			if c := NaturalCompare(strings.ToLower(a.CourseName), strings.ToLower(b.CourseName)); c != 0 {
				return c
			}
			return byName(a, b)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return cmp(out[j], out[i]) < 0
		}
		return cmp(out[i], out[j]) < 0
	})
	return out
}

func rank(segmentType *string) int {
	if r, ok := segmentRank[deref(segmentType)]; ok {
		return r
	}
	return len(segmentRank) + 1
}

// SegmentLabels returns the distinct non-empty labels of links in natural
// order ("2" before "10").
func SegmentLabels(links []entity.CourseFormula) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range links {
		label := strings.TrimSpace(deref(l.SegmentLabel))
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	sort.SliceStable(out, func(i, j int) bool { return NaturalCompare(out[i], out[j]) < 0 })
	return out
}

// NaturalCompare orders strings with embedded numbers by numeric value.
func NaturalCompare(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		if unicode.IsDigit(ra[i]) && unicode.IsDigit(rb[j]) {
			si := i
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			sj := j
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			na := strings.TrimLeft(string(ra[si:i]), "0")
			nb := strings.TrimLeft(string(rb[sj:j]), "0")
			if len(na) != len(nb) {
				return len(na) - len(nb)
			}
			if c := strings.Compare(na, nb); c != 0 {
				return c
			}
			continue
		}
		ca, cb := unicode.ToLower(ra[i]), unicode.ToLower(rb[j])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	return (len(ra) - i) - (len(rb) - j)
}

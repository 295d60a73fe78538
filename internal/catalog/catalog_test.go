package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"linguaformula/internal/entity"
)

func str(s string) *string { return &s }

func intp(i int) *int { return &i }

func sampleLinks() []entity.CourseFormula {
	return []entity.CourseFormula{
		{FormulaID: 1, FormulaName: "Ohm's law", SegmentType: str("chapter"), SegmentLabel: str("10")},
		{FormulaID: 2, FormulaName: "Kinetic energy", SegmentType: str("chapter"), SegmentLabel: str("2"), FormulaDescription: str("Energy of motion")},
		{FormulaID: 3, FormulaName: "Newton's second law", SegmentType: str("examination"), SegmentLabel: str("Midterm")},
		{FormulaID: 4, FormulaName: "Potential energy"},
		{FormulaID: 5, FormulaName: "Power", SegmentType: str("module"), SegmentLabel: str(" 2 ")},
	}
}

func ids(links []entity.CourseFormula) []int {
	out := make([]int, len(links))
	for i, l := range links {
		out[i] = l.FormulaID
	}
	return out
}

func TestFilterLinks(t *testing.T) {
	links := sampleLinks()

	tests := []struct {
		name   string
		filter LinkFilter
		want   []int
	}{
		{"no filter", LinkFilter{}, []int{1, 2, 3, 4, 5}},
		{"segment type", LinkFilter{SegmentType: "chapter"}, []int{1, 2}},
		{"query on name", LinkFilter{Query: "ENERGY"}, []int{2, 4}},
		{"query on description", LinkFilter{Query: "motion"}, []int{2}},
		{"query on label", LinkFilter{Query: "midterm"}, []int{3}},
		{"both", LinkFilter{SegmentType: "chapter", Query: "energy"}, []int{2}},
		{"nothing", LinkFilter{SegmentType: "module", Query: "energy"}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterLinks(links, tt.filter))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterLinks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterLinks_Monotonic(t *testing.T) {
	links := sampleLinks()
	before := sampleLinks()

	all := FilterLinks(links, LinkFilter{})
	byType := FilterLinks(links, LinkFilter{SegmentType: "chapter"})
	byBoth := FilterLinks(links, LinkFilter{SegmentType: "chapter", Query: "ohm"})

	assert.LessOrEqual(t, len(byType), len(all))
	assert.LessOrEqual(t, len(byBoth), len(byType))
	for _, l := range byBoth {
		assert.Contains(t, byType, l)
	}

	if diff := cmp.Diff(before, links); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func TestSortLinks(t *testing.T) {
	links := sampleLinks()
	before := sampleLinks()

	assert.Equal(t, []int{2, 3, 1, 4, 5}, ids(SortLinks(links, SortByName, false)))
	assert.Equal(t, []int{5, 4, 1, 3, 2}, ids(SortLinks(links, SortByName, true)))
	assert.Equal(t, []int{2, 1, 5, 3, 4}, ids(SortLinks(links, SortBySegment, false)))
	// "2" (twice) < "10" < "Midterm", unlabeled last
	assert.Equal(t, []int{2, 5, 1, 3, 4}, ids(SortLinks(links, SortByLabel, false)))

	if diff := cmp.Diff(before, links); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortByLabel, ParseSortKey("label"))
	assert.Equal(t, SortByName, ParseSortKey(""))
	assert.Equal(t, SortByName, ParseSortKey("drop table"))
}

func TestSegmentLabels(t *testing.T) {
	got := SegmentLabels(sampleLinks())
	if diff := cmp.Diff([]string{"2", "10", "Midterm"}, got); diff != "" {
		t.Errorf("SegmentLabels mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, SegmentLabels(nil))
}

func TestNaturalCompare(t *testing.T) {
	assert.Negative(t, NaturalCompare("Chapter 2", "Chapter 10"))
	assert.Positive(t, NaturalCompare("Chapter 10", "Chapter 2"))
	assert.Zero(t, NaturalCompare("Chapter 02", "chapter 2"))
	assert.Negative(t, NaturalCompare("a", "ab"))
	assert.Negative(t, NaturalCompare("2", "Midterm"))
}

func TestFilterTerms(t *testing.T) {
	terms := []entity.Term{
		{ID: 1, TermName: "Velocity", Definition: "rate of change of position"},
		{ID: 2, TermName: "Acceleration", Definition: "rate of change of velocity"},
		{ID: 3, TermName: "Mass", Definition: "amount of matter"},
	}

	assert.Len(t, FilterTerms(terms, "", ""), 3)
	assert.Equal(t, 1, FilterTerms(terms, "veloc", "")[0].ID)
	assert.Len(t, FilterTerms(terms, "", "VELOCITY"), 1)
	assert.Len(t, FilterTerms(terms, "", "rate"), 2)
	assert.Empty(t, FilterTerms(terms, "mass", "rate"))
}

func TestSortTerms(t *testing.T) {
	terms := []entity.Term{
		{ID: 1, TermName: "b"},
		{ID: 2, TermName: "a"},
		{ID: 3, TermName: "z", DisplayOrder: intp(1)},
	}
	got := SortTerms(terms)
	assert.Equal(t, []int{3, 2, 1}, []int{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, 1, terms[0].ID)
}

func TestCapitalizeSentences(t *testing.T) {
	tests := map[string]string{
		"":                                    "",
		"   ":                                 "   ",
		"the rate of change. measured in m/s": "The rate of change. Measured in m/s",
		" force!yes? ok":                      "Force!Yes? Ok",
		"e.g. a vector":                       "E.G. A vector",
	}
	for in, want := range tests {
		assert.Equal(t, want, CapitalizeSentences(in), in)
	}
}

func TestIDList(t *testing.T) {
	assert.Equal(t, []int{1, 2, 7}, ParseIDList("1, 2,x,,7,2"))
	assert.Nil(t, ParseIDList(""))
	assert.Equal(t, "3,1", FormatIDList([]int{3, 1}))
	assert.Equal(t, "", FormatIDList(nil))
}

func TestBuildDisciplineTree(t *testing.T) {
	ds := []entity.Discipline{
		{ID: 1, Name: "Physics"},
		{ID: 2, Name: "Mechanics", ParentID: intp(1)},
		{ID: 3, Name: "Algebra", ParentID: intp(9)},
		{ID: 4, Name: "Electricity", ParentID: intp(1)},
		{ID: 5, Name: "Chemistry"},
	}

	tree := BuildDisciplineTree(ds, []int{2})

	names := func(ns []DisciplineNode) []string {
		var out []string
		for _, n := range ns {
			out = append(out, n.Name)
		}
		return out
	}
	assert.Equal(t, []string{"Algebra", "Chemistry", "Physics"}, names(tree))

	physics := tree[2]
	assert.True(t, physics.Expanded)
	assert.False(t, physics.Selected)
	assert.Equal(t, []string{"Electricity", "Mechanics"}, names(physics.Children))
	assert.True(t, physics.Children[1].Selected)
	assert.False(t, tree[1].Expanded)

	assert.Equal(t, "Mechanics", DisciplineName(ds, 2))
	assert.Equal(t, "", DisciplineName(ds, 42))
}

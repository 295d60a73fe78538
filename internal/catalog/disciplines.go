package catalog

import (
	"sort"
	"strings"

	"linguaformula/internal/entity"
)

// DisciplineNode is a top-level discipline with its children, ready for
// the filter sidebar.
type DisciplineNode struct {
	entity.Discipline
	Selected bool
	Expanded bool
	Children []DisciplineNode
}

// BuildDisciplineTree groups ds under their parents. Disciplines whose
// parent is unknown become roots. A root is expanded when one of its
// children is selected.
func BuildDisciplineTree(ds []entity.Discipline, selected []int) []DisciplineNode {
	sel := make(map[int]bool, len(selected))
	for _, id := range selected {
		sel[id] = true
	}
	known := make(map[int]bool, len(ds))
	for _, d := range ds {
		known[d.ID] = true
	}

	children := make(map[int][]DisciplineNode)
	var roots []DisciplineNode
	for _, d := range ds {
		n := DisciplineNode{Discipline: d, Selected: sel[d.ID]}
		if d.ParentID != nil && known[*d.ParentID] && *d.ParentID != d.ID {
			children[*d.ParentID] = append(children[*d.ParentID], n)
			continue
		}
		roots = append(roots, n)
	}

	byName := func(ns []DisciplineNode) {
		sort.SliceStable(ns, func(i, j int) bool {
			return strings.ToLower(ns[i].Name) < strings.ToLower(ns[j].Name)
		})
	}
	byName(roots)
	for i := range roots {
		kids := children[roots[i].ID]
		byName(kids)
		roots[i].Children = kids
		for _, k := range kids {
			if k.Selected {
				roots[i].Expanded = true
				break
			}
		}
	}
	return roots
}

// DisciplineName returns the name of id in ds, or "".
func DisciplineName(ds []entity.Discipline, id int) string {
	for _, d := range ds {
		if d.ID == id {
			return d.Name
		}
	}
	return ""
}

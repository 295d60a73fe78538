package handler

import (
	"net/url"
	"strconv"

	"linguaformula/internal/backend"
	"linguaformula/internal/catalog"
	"linguaformula/internal/entity"
)

// disciplineFilter reads the discipline selection from either the
// canonical disciplines=1,2 form or the sidebar's repeated d values.
// include_children defaults to true and is only false when no "true"
// value was sent.
func disciplineFilter(q url.Values) backend.DisciplineFilter {
	ids := catalog.ParseIDList(q.Get("disciplines"))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for _, v := range q["d"] {
		if id, err := strconv.Atoi(v); err == nil && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	include := true
	if vals, ok := q["include_children"]; ok {
		include = false
		for _, v := range vals {
			if v == "true" {
				include = true
			}
		}
	}
	return backend.DisciplineFilter{IDs: ids, IncludeChildren: include}
}

// filterQuery renders f for links that should keep the selection, e.g. the
// back link of a detail page.
func filterQuery(f backend.DisciplineFilter) string {
	if len(f.IDs) == 0 {
		return ""
	}
	v := url.Values{}
	v.Set("disciplines", catalog.FormatIDList(f.IDs))
	v.Set("include_children", strconv.FormatBool(f.IncludeChildren))
	return v.Encode()
}

type filterView struct {
	Tree            []catalog.DisciplineNode
	IncludeChildren bool
	// Query is "?..." or "" and is appended to detail links.
	Query string
}

func newFilterView(ds []entity.Discipline, f backend.DisciplineFilter) filterView {
	q := filterQuery(f)
	if q != "" {
		q = "?" + q
	}
	return filterView{
		Tree:            catalog.BuildDisciplineTree(ds, f.IDs),
		IncludeChildren: f.IncludeChildren,
		Query:           q,
	}
}

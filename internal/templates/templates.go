// Package templates embeds the HTML pages and their stylesheet.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"time"
	"unicode"

	"linguaformula/internal/catalog"
)

//go:embed *.html
var pages embed.FS

//go:embed static
var static embed.FS

// Static returns the stylesheet tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Funcs are available in every page.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"percent": func(correct, total int) int {
			if total == 0 {
				return 0
			}
			return correct * 100 / total
		},
		"formatDate": formatDate,
		"gt":  func(a, b int) bool { return a > b },
		"add": func(a, b int) int { return a + b },
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"capitalize": catalog.CapitalizeSentences,
		"title": func(s string) string {
			r := []rune(s)
			if len(r) == 0 {
				return s
			}
			r[0] = unicode.ToUpper(r[0])
			return string(r)
		},
		"idList": catalog.FormatIDList,
		"join":   strings.Join,
		"num": func(f float64) string {
			return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", f), "0"), ".")
		},
	}
}

func formatDate(v any) string {
	var t time.Time
	switch d := v.(type) {
	case time.Time:
		t = d
	case *time.Time:
		if d != nil {
			t = *d
		}
	}
	if t.IsZero() {
		return "—"
	}
	return t.Format("2006-01-02 15:04")
}

// Names lists the page templates, without the layout.
func Names() ([]string, error) {
	all, err := fs.Glob(pages, "*.html")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, n := range all {
		if n != "layout.html" {
			out = append(out, n)
		}
	}
	return out, nil
}

// Parse returns page combined with the layout. Execute it as "layout".
func Parse(page string) (*template.Template, error) {
	t, err := template.New(page).Funcs(Funcs()).ParseFS(pages, "layout.html", page)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", page, err)
	}
	return t, nil
}

// ParseAll parses every page.
func ParseAll() (map[string]*template.Template, error) {
	names, err := Names()
	if err != nil {
		return nil, err
	}
	out := make(map[string]*template.Template, len(names))
	for _, n := range names {
		t, err := Parse(n)
		if err != nil {
			return nil, err
		}
		out[strings.TrimSuffix(n, ".html")] = t
	}
	return out, nil
}

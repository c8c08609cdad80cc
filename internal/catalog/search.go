package catalog

import (
	"sort"
	"strings"
)

// Term weights for the shallow relevance scorer. Name matches dominate,
// categories and tags rank above the developer name.
const (
	scoreName      = 4
	scoreCategory  = 3
	scoreTag       = 3
	scoreDeveloper = 2
)

// Search returns the entries matching term, best match first. The scorer is
// a case-insensitive substring match summed over whitespace-separated terms;
// entries scoring zero are excluded. Equal scores keep catalog order.
func (c *Catalog) Search(term string) []App {
	terms := splitTerms(term)
	if len(terms) == 0 {
		return c.List()
	}

	type scored struct {
		app   App
		score int
	}

	var matches []scored
	for _, app := range c.apps {
		if score := relevance(app, terms); score > 0 {
			matches = append(matches, scored{app: app, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	out := make([]App, len(matches))
	for i, m := range matches {
		out[i] = m.app
	}
	return out
}

func splitTerms(raw string) []string {
	var terms []string
	for _, t := range strings.Fields(strings.ToLower(raw)) {
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

func relevance(app App, terms []string) int {
	score := 0
	for _, term := range terms {
		if containsTerm(app.Name, term) {
			score += scoreName
		}
		if anyContains(app.Categories, term) {
			score += scoreCategory
		}
		if anyContains(app.Tags, term) {
			score += scoreTag
		}
		if containsTerm(app.Developer, term) {
			score += scoreDeveloper
		}
	}
	return score
}

func containsTerm(text, term string) bool {
	if text == "" {
		return false
	}
	return strings.Contains(strings.ToLower(strings.TrimSpace(text)), term)
}

func anyContains(values []string, term string) bool {
	for _, v := range values {
		if containsTerm(v, term) {
			return true
		}
	}
	return false
}

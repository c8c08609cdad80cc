package grid

import "fmt"

// AppRef is the slice of a catalog entry the mutation functions need: the
// canonical launch URL, the publisher name used to title a new section, and
// the default item size.
type AppRef struct {
	LaunchURL string
	Developer string
	Width     int
	Height    int
}

// DefaultSectionColumns is the column count of a newly created section.
const DefaultSectionColumns = 2

// ComputeInstall returns a new section sequence with one IFRAME item for app
// appended to the target section. When target is nil a new section titled
// with the app's developer is prepended and receives the item. All other
// sections pass through unchanged and unreordered.
//
// ComputeInstall performs no duplicate check: calling it twice for the same
// app yields two identical items. Duplicate prevention is the orchestrator's
// invariant, enforced through the membership check before invocation.
func ComputeInstall(sections []Section, app AppRef, target *int) ([]Section, error) {
	item := Item{
		Type:   ItemTypeIFrame,
		Width:  app.Width,
		Height: app.Height,
		Properties: map[string]any{
			"src": app.LaunchURL,
		},
	}

	if target == nil {
		out := make([]Section, 0, len(sections)+1)
		out = append(out, Section{
			Title:       app.Developer,
			GridColumns: DefaultSectionColumns,
			Grid:        []Item{item},
		})
		return append(out, sections...), nil
	}

	idx := *target
	if idx < 0 || idx >= len(sections) {
		return nil, fmt.Errorf("grid: target section %d out of range (%d sections)", idx, len(sections))
	}

	out := make([]Section, len(sections))
	copy(out, sections)
	out[idx].Grid = append(append([]Item(nil), out[idx].Grid...), item)
	return out, nil
}

// ComputeUninstall returns a new section sequence with every IFRAME item
// matching app's launch URL removed. Sections left with zero items are
// dropped entirely; sections without a matching item pass through unchanged.
// Multiple matching items are all removed in one call.
func ComputeUninstall(sections []Section, app AppRef) []Section {
	out := make([]Section, 0, len(sections))
	for _, section := range sections {
		kept := section.Grid
		if sectionMatches(section, app.LaunchURL) {
			kept = make([]Item, 0, len(section.Grid))
			for _, item := range section.Grid {
				if item.Type == ItemTypeIFrame && item.Src() == app.LaunchURL {
					continue
				}
				kept = append(kept, item)
			}
		}
		if len(kept) == 0 {
			continue
		}
		section.Grid = kept
		out = append(out, section)
	}
	return out
}

func sectionMatches(section Section, launchURL string) bool {
	for _, item := range section.Grid {
		if item.Type == ItemTypeIFrame && item.Src() == launchURL {
			return true
		}
	}
	return false
}

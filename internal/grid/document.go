// Package grid holds the canonical in-memory form of a profile's grid
// document and the pure functions that mutate it. Nothing in this package
// performs I/O; gateways and services live elsewhere.
package grid

import "encoding/json"

// ItemTypeIFrame is the only item type the store interprets. All other item
// types are opaque payload that must be preserved untouched.
const ItemTypeIFrame = "IFRAME"

// Item is one widget on the grid. Properties beyond src are type-specific
// and pass through opaquely.
type Item struct {
	Type       string         `json:"type"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Properties map[string]any `json:"properties"`
}

// Src returns the embedded app URL for IFRAME items, "" otherwise.
func (it Item) Src() string {
	if it.Type != ItemTypeIFrame {
		return ""
	}
	src, _ := it.Properties["src"].(string)
	return src
}

// Visibility classifies a section.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Section is a named, column-configured group of grid items. Title equality
// is the de facto section identity used when installing into a developer's
// section. The visibility field superseded isPrivate in a later schema
// generation; both survive in stored documents.
type Section struct {
	Title       string `json:"title"`
	GridColumns int    `json:"gridColumns"`
	Grid        []Item `json:"grid"`
	Visibility  string `json:"visibility,omitempty"`
	IsPrivate   *bool  `json:"isPrivate,omitempty"`

	// extra carries section fields this code does not interpret, so a
	// write-back never drops what another tool stored alongside ours.
	extra map[string]json.RawMessage
}

// sectionFields are the JSON keys the Section struct interprets itself.
var sectionFields = map[string]struct{}{
	"title":       {},
	"gridColumns": {},
	"grid":        {},
	"visibility":  {},
	"isPrivate":   {},
}

// UnmarshalJSON decodes the known fields and keeps everything else raw.
func (s *Section) UnmarshalJSON(data []byte) error {
	type plain Section
	var known plain
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range raw {
		if _, ok := sectionFields[key]; ok {
			delete(raw, key)
		}
	}
	if len(raw) == 0 {
		raw = nil
	}

	*s = Section(known)
	s.extra = raw
	return nil
}

// MarshalJSON re-emits the retained unknown fields next to the known ones.
// Known fields win on a key collision.
func (s Section) MarshalJSON() ([]byte, error) {
	type plain Section
	data, err := json.Marshal(plain(s))
	if err != nil {
		return nil, err
	}
	if len(s.extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, value := range s.extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// Classify resolves the section's effective visibility: visibility wins when
// present, isPrivate is the legacy fallback, and the default is public.
func (s Section) Classify() Visibility {
	switch s.Visibility {
	case string(VisibilityPublic):
		return VisibilityPublic
	case string(VisibilityPrivate):
		return VisibilityPrivate
	}
	if s.IsPrivate != nil && *s.IsPrivate {
		return VisibilityPrivate
	}
	return VisibilityPublic
}

// Contains reports whether any section embeds an IFRAME item with the given
// launch URL. This is the installed-membership check.
func Contains(sections []Section, launchURL string) bool {
	for _, section := range sections {
		for _, item := range section.Grid {
			if item.Type == ItemTypeIFrame && item.Src() == launchURL {
				return true
			}
		}
	}
	return false
}

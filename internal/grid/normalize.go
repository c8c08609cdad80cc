package grid

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// EnvelopeKey is the wrapping field introduced by the current schema
// generation. Writes always produce the wrapped form; reads accept both.
const EnvelopeKey = "LSP28TheGrid"

var (
	// ErrInvalidJSON marks content that is not parseable JSON at all.
	ErrInvalidJSON = errors.New("grid: invalid grid data")

	// ErrInvalidFormat marks valid JSON whose shape is neither a bare
	// section array nor a recognized envelope.
	ErrInvalidFormat = errors.New("grid: invalid grid data format")
)

// Normalize decodes a stored grid document into the canonical section
// sequence, tolerating every historical shape:
//
//   - a bare array of sections (legacy),
//   - {"LSP28TheGrid": [sections...]} (current),
//   - {"LSP28TheGrid": {single section}} (current, degenerate).
//
// This is the only place in the repository that branches on raw document
// shape.
func Normalize(raw []byte) ([]Section, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}

	parsed := gjson.ParseBytes(raw)
	if parsed.IsArray() {
		return decodeSections([]byte(parsed.Raw))
	}
	if !parsed.IsObject() {
		return nil, ErrInvalidFormat
	}

	wrapped := parsed.Get(EnvelopeKey)
	switch {
	case wrapped.IsArray():
		return decodeSections([]byte(wrapped.Raw))
	case wrapped.IsObject():
		var section Section
		if err := json.Unmarshal([]byte(wrapped.Raw), &section); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		return []Section{section}, nil
	default:
		return nil, ErrInvalidFormat
	}
}

func decodeSections(raw []byte) ([]Section, error) {
	var sections []Section
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return sections, nil
}

// Envelope serializes sections in the wrapped, forward-compatible wire form
// used for every write.
func Envelope(sections []Section) ([]byte, error) {
	if sections == nil {
		sections = []Section{}
	}
	data, err := json.Marshal(map[string][]Section{EnvelopeKey: sections})
	if err != nil {
		return nil, fmt.Errorf("encode grid document: %w", err)
	}
	return data, nil
}

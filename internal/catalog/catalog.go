// Package catalog exposes the static app catalog: installable mini-apps
// identified by a canonical launch URL, with display metadata and a default
// grid size. The catalog is immutable reference data; the store never
// mutates it.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deliquified/ministore/internal/grid"
)

// GridSize is an app's default width/height in grid cells.
type GridSize struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// App is one installable catalog entry.
type App struct {
	ID               string   `yaml:"id" json:"id"`
	Name             string   `yaml:"name" json:"name"`
	LaunchURL        string   `yaml:"launchUrl" json:"launchUrl"`
	Developer        string   `yaml:"developer" json:"developer"`
	PublisherProfile string   `yaml:"publisherProfile" json:"publisherProfile"`
	Categories       []string `yaml:"categories" json:"categories"`
	Tags             []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	SourceCode       string   `yaml:"sourceCode,omitempty" json:"sourceCode,omitempty"`
	DefaultGridSize  GridSize `yaml:"defaultGridSize" json:"defaultGridSize"`
	Featured         bool     `yaml:"featured,omitempty" json:"featured,omitempty"`
}

// Ref projects the entry onto the fields the grid mutations need.
func (a App) Ref() grid.AppRef {
	return grid.AppRef{
		LaunchURL: a.LaunchURL,
		Developer: a.Developer,
		Width:     a.DefaultGridSize.Width,
		Height:    a.DefaultGridSize.Height,
	}
}

// Catalog is an ordered, read-only app collection.
type Catalog struct {
	apps []App
	byID map[string]App
}

// New builds a catalog from entries, validating ids and launch URLs.
func New(apps []App) (*Catalog, error) {
	byID := make(map[string]App, len(apps))
	for _, app := range apps {
		if app.ID == "" {
			return nil, fmt.Errorf("catalog: entry %q has no id", app.Name)
		}
		if app.LaunchURL == "" {
			return nil, fmt.Errorf("catalog: entry %q has no launch url", app.ID)
		}
		if _, dup := byID[app.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate id %q", app.ID)
		}
		byID[app.ID] = app
	}
	return &Catalog{apps: append([]App(nil), apps...), byID: byID}, nil
}

// catalogFile is the YAML layout of an external catalog file.
type catalogFile struct {
	Apps []App `yaml:"apps"`
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(file.Apps)
}

// LoadFileOrDefault reads a catalog from path, falling back to the built-in
// catalog when path is empty or missing.
func LoadFileOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	cat, err := LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default()
		}
		return nil, err
	}
	return cat, nil
}

// List returns all entries in catalog order.
func (c *Catalog) List() []App {
	return append([]App(nil), c.apps...)
}

// ByID returns the entry with the given id.
func (c *Catalog) ByID(id string) (App, bool) {
	app, ok := c.byID[id]
	return app, ok
}

// ByCategory returns entries listing the given category (case-insensitive).
func (c *Catalog) ByCategory(category string) []App {
	var out []App
	for _, app := range c.apps {
		for _, cat := range app.Categories {
			if strings.EqualFold(cat, category) {
				out = append(out, app)
				break
			}
		}
	}
	return out
}

// Featured returns entries flagged for the storefront banner.
func (c *Catalog) Featured() []App {
	var out []App
	for _, app := range c.apps {
		if app.Featured {
			out = append(out, app)
		}
	}
	return out
}

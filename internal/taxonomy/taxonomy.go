// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package taxonomy holds the closed, ordered set of signal categories with
// their keywords, affected loop nodes and pressure polarity. A Taxonomy is
// built once at start-up and never mutated; the classifier, aggregator and
// pressure synthesizer all read from the same value.
package taxonomy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/signal-engine/pkg/types"
)

//go:embed taxonomy.yaml
var defaultYAML []byte

// ErrInvalid is returned when a taxonomy document fails validation.
var ErrInvalid = errors.New("invalid taxonomy")

// Domains lists the category groupings a taxonomy entry may declare.
var Domains = []string{"capital-labor", "demographic", "fiscal", "political", "price", "adaptation"}

// Entry describes one category.
type Entry struct {
	Category    types.Category `json:"category" yaml:"category" toml:"category"`
	Label       string         `json:"label" yaml:"label" toml:"label"`
	Description string         `json:"description" yaml:"description" toml:"description"`
	Domain      string         `json:"domain" yaml:"domain" toml:"domain"`

	// Accelerating categories add to loop pressure when increasing;
	// stabilizing ones subtract from it.
	Accelerating bool `json:"accelerating" yaml:"accelerating" toml:"accelerating"`

	AffectedNodes []string `json:"affectedNodes" yaml:"affected_nodes" toml:"affected_nodes"`
	Keywords      []string `json:"keywords" yaml:"keywords" toml:"keywords"`
}

// document is the on-disk shape shared by the YAML and TOML formats.
type document struct {
	Categories []Entry `yaml:"categories" toml:"categories"`
}

// Taxonomy is an immutable, ordered category table.
type Taxonomy struct {
	entries []Entry
	index   map[types.Category]int
}

// Default returns the embedded taxonomy. It panics if the embedded
// document is invalid, which only a broken build can cause.
func Default() *Taxonomy {
	t, err := Parse(defaultYAML, "yaml")
	if err != nil {
		panic(fmt.Sprintf("embedded taxonomy: %v", err))
	}
	return t
}

// Load reads a taxonomy from path. The format is chosen by extension:
// .toml for TOML, anything else is parsed as YAML. An empty path returns
// the embedded default.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy %s: %w", path, err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = "toml"
	}
	t, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("loading taxonomy %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a taxonomy document in the given format ("yaml" or
// "toml") and validates it.
func Parse(data []byte, format string) (*Taxonomy, error) {
	var doc document
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported taxonomy format %q", format)
	}
	return New(doc.Categories)
}

// New validates entries and builds a Taxonomy. Keywords are lowercased
// and trimmed; the caller's slices are not retained.
func New(entries []Entry) (*Taxonomy, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no categories", ErrInvalid)
	}

	t := &Taxonomy{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[types.Category]int, len(entries)),
	}
	for i, e := range entries {
		if e.Category == "" {
			return nil, fmt.Errorf("%w: entry %d has no category", ErrInvalid, i)
		}
		if _, dup := t.index[e.Category]; dup {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalid, e.Category)
		}
		if !validDomain(e.Domain) {
			return nil, fmt.Errorf("%w: category %q has unknown domain %q", ErrInvalid, e.Category, e.Domain)
		}
		if len(e.AffectedNodes) == 0 {
			return nil, fmt.Errorf("%w: category %q has no affected nodes", ErrInvalid, e.Category)
		}

		keywords := make([]string, 0, len(e.Keywords))
		for _, kw := range e.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("%w: category %q has no keywords", ErrInvalid, e.Category)
		}

		e.Keywords = keywords
		e.AffectedNodes = append([]string(nil), e.AffectedNodes...)
		if e.Label == "" {
			e.Label = string(e.Category)
		}
		t.index[e.Category] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	return t, nil
}

func validDomain(d string) bool {
	for _, known := range Domains {
		if d == known {
			return true
		}
	}
	return false
}

// Len returns the number of categories.
func (t *Taxonomy) Len() int { return len(t.entries) }

// Categories returns the categories in scan order.
func (t *Taxonomy) Categories() []types.Category {
	out := make([]types.Category, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Category
	}
	return out
}

// Entries returns copies of all entries in scan order.
func (t *Taxonomy) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i := range t.entries {
		out[i] = t.entry(i)
	}
	return out
}

// Lookup returns a copy of the entry for c.
func (t *Taxonomy) Lookup(c types.Category) (Entry, bool) {
	i, ok := t.index[c]
	if !ok {
		return Entry{}, false
	}
	return t.entry(i), true
}

// Contains reports whether c is a member of the taxonomy.
func (t *Taxonomy) Contains(c types.Category) bool {
	_, ok := t.index[c]
	return ok
}

// AffectedNodes returns the static node list for c, or nil for an
// unknown category.
func (t *Taxonomy) AffectedNodes(c types.Category) []string {
	i, ok := t.index[c]
	if !ok {
		return nil
	}
	return append([]string(nil), t.entries[i].AffectedNodes...)
}

// IsAccelerating reports whether c adds to loop pressure when increasing.
func (t *Taxonomy) IsAccelerating(c types.Category) bool {
	i, ok := t.index[c]
	return ok && t.entries[i].Accelerating
}

// keywords exposes the normalized keyword slice without copying; callers
// inside the module must not modify it.
func (t *Taxonomy) keywords(i int) []string { return t.entries[i].Keywords }

// CountMatches returns, for every category in scan order, the number of
// its keywords that occur in lowered. lowered must already be lowercase.
func (t *Taxonomy) CountMatches(lowered string) []int {
	counts := make([]int, len(t.entries))
	for i := range t.entries {
		for _, kw := range t.keywords(i) {
			if strings.Contains(lowered, kw) {
				counts[i]++
			}
		}
	}
	return counts
}

// At returns the category at scan position i.
func (t *Taxonomy) At(i int) types.Category { return t.entries[i].Category }

func (t *Taxonomy) entry(i int) Entry {
	e := t.entries[i]
	e.AffectedNodes = append([]string(nil), e.AffectedNodes...)
	e.Keywords = append([]string(nil), e.Keywords...)
	return e
}

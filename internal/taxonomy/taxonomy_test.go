// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/signal-engine/pkg/types"
)

func TestDefaultTaxonomy(t *testing.T) {
	tax := Default()
	require.Equal(t, 13, tax.Len())

	cats := tax.Categories()
	assert.Equal(t, types.Category("capital_labor_decoupling"), cats[0])
	assert.Equal(t, types.Category("structural_adaptation"), cats[len(cats)-1])

	seenDomains := map[string]bool{}
	for _, e := range tax.Entries() {
		seenDomains[e.Domain] = true
		assert.NotEmpty(t, e.Keywords, "category %s", e.Category)
		assert.GreaterOrEqual(t, len(e.AffectedNodes), 2, "category %s", e.Category)
		assert.LessOrEqual(t, len(e.AffectedNodes), 3, "category %s", e.Category)
	}
	for _, d := range Domains {
		assert.True(t, seenDomains[d], "domain %s unused", d)
	}

	assert.False(t, tax.IsAccelerating("structural_adaptation"))
	assert.False(t, tax.IsAccelerating("redistribution_experimentation"))
	assert.True(t, tax.IsAccelerating("fertility_decline"))
	assert.False(t, tax.IsAccelerating("unknown"))
}

func TestLookupReturnsCopies(t *testing.T) {
	tax := Default()

	e, ok := tax.Lookup("automation_substitution")
	require.True(t, ok)
	e.AffectedNodes[0] = "mutated"
	e.Keywords[0] = "mutated"

	again, _ := tax.Lookup("automation_substitution")
	assert.Equal(t, []string{"ai", "labor"}, again.AffectedNodes)
	assert.NotEqual(t, "mutated", again.Keywords[0])

	nodes := tax.AffectedNodes("automation_substitution")
	nodes[0] = "mutated"
	assert.Equal(t, []string{"ai", "labor"}, tax.AffectedNodes("automation_substitution"))
	assert.Nil(t, tax.AffectedNodes("nope"))
}

func TestNewValidation(t *testing.T) {
	valid := Entry{Category: "a", Domain: "fiscal", AffectedNodes: []string{"x"}, Keywords: []string{"k"}}

	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty", nil},
		{"missing category", []Entry{{Domain: "fiscal", AffectedNodes: []string{"x"}, Keywords: []string{"k"}}}},
		{"duplicate", []Entry{valid, valid}},
		{"unknown domain", []Entry{{Category: "a", Domain: "weather", AffectedNodes: []string{"x"}, Keywords: []string{"k"}}}},
		{"no nodes", []Entry{{Category: "a", Domain: "fiscal", Keywords: []string{"k"}}}},
		{"blank keywords", []Entry{{Category: "a", Domain: "fiscal", AffectedNodes: []string{"x"}, Keywords: []string{"  "}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.entries)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestNewNormalizesKeywords(t *testing.T) {
	tax, err := New([]Entry{{
		Category: "a", Domain: "price", AffectedNodes: []string{"x"},
		Keywords: []string{"  Deflation ", "PRICE War"},
	}})
	require.NoError(t, err)

	e, _ := tax.Lookup("a")
	assert.Equal(t, []string{"deflation", "price war"}, e.Keywords)
	assert.Equal(t, "a", e.Label)
}

func TestLoadTOML(t *testing.T) {
	doc := `
[[categories]]
category = "automation"
label = "Automation"
domain = "capital-labor"
accelerating = true
affected_nodes = ["ai", "labor"]
keywords = ["robot", "automate", "ai"]

[[categories]]
category = "adaptation"
domain = "adaptation"
accelerating = false
affected_nodes = ["labor", "fiscal"]
keywords = ["reskilling"]
`
	path := filepath.Join(t.TempDir(), "tax.toml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	tax, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []types.Category{"automation", "adaptation"}, tax.Categories())
	assert.True(t, tax.IsAccelerating("automation"))
	assert.False(t, tax.IsAccelerating("adaptation"))
}

func TestLoadYAMLAndErrors(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "tax.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
categories:
  - category: only
    domain: political
    affected_nodes: [fiscal, labor]
    keywords: [gridlock]
`), 0o644))

	tax, err := Load(good)
	require.NoError(t, err)
	assert.Equal(t, 1, tax.Len())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("categories: [\n"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	def, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 13, def.Len())
}

func TestCountMatches(t *testing.T) {
	tax := Default()
	counts := tax.CountMatches("robot and automate jobs amid record profit")

	byCat := map[types.Category]int{}
	for i, n := range counts {
		byCat[tax.At(i)] = n
	}
	assert.Equal(t, 2, byCat["automation_substitution"])
	assert.Equal(t, 1, byCat["capital_labor_decoupling"])
	assert.Equal(t, 0, byCat["fertility_decline"])
}

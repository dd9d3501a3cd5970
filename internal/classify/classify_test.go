// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/signal-engine/internal/taxonomy"
	"github.com/pdiddy/signal-engine/pkg/types"
)

func smallTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	tax, err := taxonomy.New([]taxonomy.Entry{
		{
			Category: "automation", Domain: "capital-labor", Accelerating: true,
			AffectedNodes: []string{"ai", "labor"},
			Keywords:      []string{"robot", "automate", "ai"},
		},
		{
			Category: "fiscal", Domain: "fiscal", Accelerating: true,
			AffectedNodes: []string{"fiscal", "income"},
			Keywords:      []string{"deficit", "debt", "tax"},
		},
		{
			Category: "adaptation", Domain: "adaptation",
			AffectedNodes: []string{"labor", "fiscal"},
			Keywords:      []string{"reskilling", "apprentice", "robot"},
		},
	})
	require.NoError(t, err)
	return tax
}

func TestClassifyStrongAutomation(t *testing.T) {
	c, ok := Classify(smallTaxonomy(t), "AI robots automate warehouse jobs")
	require.True(t, ok)
	assert.Equal(t, types.Category("automation"), c.Category)
	assert.Equal(t, types.StrengthStrong, c.Strength)
	assert.Equal(t, 3, c.Matches)
}

func TestClassifyStrengthLevels(t *testing.T) {
	tax := smallTaxonomy(t)
	tests := []struct {
		text string
		want types.Strength
	}{
		{"Deficit widens", types.StrengthWeak},
		{"Deficit and debt widen", types.StrengthModerate},
		{"Deficit, debt and tax worries", types.StrengthStrong},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			c, ok := Classify(tax, tt.text)
			require.True(t, ok)
			assert.Equal(t, types.Category("fiscal"), c.Category)
			assert.Equal(t, tt.want, c.Strength)
		})
	}
}

func TestClassifyTieKeepsEarlierCategory(t *testing.T) {
	// "robot" belongs to both automation and adaptation; automation is
	// listed first.
	c, ok := Classify(smallTaxonomy(t), "robot")
	require.True(t, ok)
	assert.Equal(t, types.Category("automation"), c.Category)

	// A higher count later in the order still wins.
	c, ok = Classify(smallTaxonomy(t), "robot apprentice reskilling")
	require.True(t, ok)
	assert.Equal(t, types.Category("adaptation"), c.Category)
}

func TestClassifyNoMatch(t *testing.T) {
	tax := smallTaxonomy(t)
	for _, text := range []string{"", "   ", "x", "Local team wins cup final"} {
		_, ok := Classify(tax, text)
		assert.False(t, ok, "text %q", text)
	}
}

func TestClassifyDefaultTaxonomy(t *testing.T) {
	tax := taxonomy.Default()

	c, ok := Classify(tax, "Birth rate hits record low as fertility and population decline")
	require.True(t, ok)
	assert.Equal(t, types.Category("fertility_decline"), c.Category)
	assert.Equal(t, types.StrengthStrong, c.Strength)

	c, ok = Classify(tax, "Lawmakers weigh a universal basic income pilot program")
	require.True(t, ok)
	assert.Equal(t, types.Category("redistribution_experimentation"), c.Category)
}

func TestInferDirection(t *testing.T) {
	tests := []struct {
		text string
		want types.Direction
	}{
		{"Unemployment claims surge", types.DirectionIncreasing},
		{"Automation ACCELERATING across ports", types.DirectionIncreasing},
		{"Birth rate continues to decline", types.DirectionDecreasing},
		{"Government announces spending cuts", types.DirectionDecreasing},
		{"Prices rise while wages fall", types.DirectionStable},
		{"Parliament debates pension bill", types.DirectionStable},
		{"", types.DirectionStable},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, InferDirection(tt.text))
		})
	}
}

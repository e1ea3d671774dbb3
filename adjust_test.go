package ksjutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustMeshClimate(t *testing.T) {
	tab := NewTable("G02_001", "G02_002", "G02_059")
	tab.AppendRow(map[string]any{"G02_001": "53394511", "G02_002": float64(12345), "G02_059": 158})

	out, applied := Adjust(tab)
	require.True(t, applied)

	// Mesh code column is outside the scaled range.
	assert.Equal(t, "53394511", out.Cell(0, "G02_001"))
	assert.Equal(t, float64(1234.5), out.Cell(0, "G02_002"))
	assert.Equal(t, float64(15.8), out.Cell(0, "G02_059"))

	// Input untouched.
	assert.Equal(t, float64(12345), tab.Cell(0, "G02_002"))
}

func TestAdjustNoConverter(t *testing.T) {
	tab := NewTable("N03_001")
	tab.AppendRow(map[string]any{"N03_001": "01100"})

	out, applied := Adjust(tab)
	assert.False(t, applied)
	assert.Same(t, tab, out)
}

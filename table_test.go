package ksjutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRecords(t *testing.T) {
	tab := FromRecords([]map[string]any{
		{"P13_002": "3", "P13_001": "大通公園"},
		{"P13_001": "円山公園", "geometry": "POINT(0 0)"},
	})

	// Sorted union of keys.
	assert.Equal(t, []string{"P13_001", "P13_002", "geometry"}, tab.Columns())
	require.Equal(t, 2, tab.NumRows())
	assert.Equal(t, "3", tab.Cell(0, "P13_002"))
	assert.Nil(t, tab.Cell(1, "P13_002"))
}

func TestTableClone(t *testing.T) {
	tab := NewTable("a", "b")
	tab.Source = "N03-20240101.shp"
	tab.AppendRow(map[string]any{"a": "1", "b": "2"})

	c := tab.Clone()
	c.Rename("a", "x")
	c.setCell(0, "b", "changed")

	assert.Equal(t, []string{"a", "b"}, tab.Columns())
	assert.Equal(t, "2", tab.Cell(0, "b"))
	assert.Equal(t, tab.Source, c.Source)
}

func TestTableRename(t *testing.T) {
	tab := NewTable("a", "b", "c")
	tab.AppendRow(map[string]any{"a": 1, "b": 2, "c": 3})

	tab.Rename("b", "renamed")
	assert.Equal(t, []string{"a", "renamed", "c"}, tab.Columns())
	assert.Equal(t, 2, tab.Cell(0, "renamed"))
	assert.Nil(t, tab.Cell(0, "b"))

	// Missing column: no-op.
	tab.Rename("nope", "still nope")
	assert.Equal(t, []string{"a", "renamed", "c"}, tab.Columns())
}

func TestTableRowCopies(t *testing.T) {
	tab := NewTable("a")
	tab.AppendRow(map[string]any{"a": "1"})

	row := tab.Row(0)
	row["a"] = "mutated"
	assert.Equal(t, "1", tab.Cell(0, "a"))
}

func TestCodeString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{"string", "3", "3", true},
		{"empty string", "", "", false},
		{"int", 3, "3", true},
		{"int64", int64(99), "99", true},
		{"integral float", float64(3), "3", true},
		{"fractional float", 3.5, "3.5", true},
		{"nil", nil, "", false},
		{"bool", true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := codeString(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

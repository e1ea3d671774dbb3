package ksjutil

import "fmt"

// Converter rewrites dataset-specific raw values that the distribution
// stores scaled or encoded in a way no code list covers. Converters work
// on raw column names, so run Adjust before Cleanup.
type Converter func(*Table)

// converters registers per-dataset converters keyed by DatasetID.
var converters = map[string]Converter{
	"G02": adjustMeshClimate,
}

// Adjust applies the registered converters for every dataset family
// present in the table and reports whether any converter ran. When none
// applies, the input table is returned unchanged.
func Adjust(t *Table) (*Table, bool) {
	var matched []Converter
	seen := make(map[string]struct{})
	for _, name := range t.Columns() {
		key, ok := Classify(name)
		if !ok {
			continue
		}
		if _, dup := seen[key.Dataset]; dup {
			continue
		}
		seen[key.Dataset] = struct{}{}
		if conv, ok := converters[key.Dataset]; ok {
			matched = append(matched, conv)
		}
	}
	if len(matched) == 0 {
		return t, false
	}

	out := t.Clone()
	for _, conv := range matched {
		conv(out)
	}
	return out, true
}

// adjustMeshClimate rescales the mesh climate value columns, which the
// distribution stores multiplied by 10.
func adjustMeshClimate(t *Table) {
	for _, name := range meshClimateColumns() {
		for i := 0; i < t.NumRows(); i++ {
			switch v := t.Cell(i, name).(type) {
			case float64:
				t.setCell(i, name, v/10)
			case int:
				t.setCell(i, name, float64(v)/10)
			}
		}
	}
}

// meshClimateColumns lists the G02 value columns: 002-053 and 059-084.
// The gap covers mesh-code and count columns that are not scaled.
func meshClimateColumns() []string {
	var names []string
	for i := 2; i <= 53; i++ {
		names = append(names, fmt.Sprintf("G02_%03d", i))
	}
	for i := 59; i <= 84; i++ {
		names = append(names, fmt.Sprintf("G02_%03d", i))
	}
	return names
}

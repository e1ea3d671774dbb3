package ksjutil

import "regexp"

// ColumnKey identifies a column within a dataset family, e.g. N03_001.
// It is the primary lookup key into the reference store.
type ColumnKey struct {
	Dataset string // dataset family, e.g. "N03"
	Number  string // 3-digit column number, e.g. "001"
}

func (k ColumnKey) String() string { return k.Dataset + "_" + k.Number }

// columnPattern matches KSJ column names: a dataset id (an uppercase
// letter followed by digits, optionally a lowercase variant suffix as in
// L03b) joined to a 3-digit column number by an underscore.
var columnPattern = regexp.MustCompile(`^([A-Z][A-Z0-9]{1,3}[a-z]?)_([0-9]{3})$`)

// Classify parses a column name into its ColumnKey. The second return is
// false for columns outside the naming convention (geometry, free-form
// identifiers); Cleanup passes those through untouched.
func Classify(name string) (ColumnKey, bool) {
	m := columnPattern.FindStringSubmatch(name)
	if m == nil {
		return ColumnKey{}, false
	}
	return ColumnKey{Dataset: m[1], Number: m[2]}, true
}

// exemptKeys lists columns whose values stay as raw codes even when a
// code table exists for them. Downstream consumers join prefecture and
// municipality codes against other datasets, so translating them would
// break those joins.
var exemptKeys = map[ColumnKey]struct{}{
	{Dataset: "N03", Number: "001"}: {},
	{Dataset: "N03", Number: "002"}: {},
	{Dataset: "N03", Number: "003"}: {},
	{Dataset: "N03", Number: "004"}: {},
	{Dataset: "N03", Number: "007"}: {},
}

// Exempt reports whether the column's values must never be translated.
// Exempt columns are still renamed to their labels.
func Exempt(key ColumnKey) bool {
	_, ok := exemptKeys[key]
	return ok
}

package ksjutil

import "fmt"

// MissingMetadataError reports a column key that has no reference entry at
// all. It marks an unsupported dataset or column, not a transient failure.
type MissingMetadataError struct {
	Key ColumnKey
}

func (e *MissingMetadataError) Error() string {
	return fmt.Sprintf("no reference metadata for column %s", e.Key)
}

// UnmappedYearError reports a known column key whose label mapping has no
// entry for the requested year and language. Column semantics can change
// between releases in non-monotonic ways, so the store never substitutes
// an adjacent year.
type UnmappedYearError struct {
	Key      ColumnKey
	Year     int
	Language string
}

func (e *UnmappedYearError) Error() string {
	return fmt.Sprintf("column %s has no %q label for year %d", e.Key, e.Language, e.Year)
}

// UnresolvedYearError reports that no release year could be determined for
// a cleanup call. Without a year no mapping can be selected correctly, so
// this is the one condition that aborts Cleanup entirely.
type UnresolvedYearError struct {
	Source string
}

func (e *UnresolvedYearError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("cannot determine release year from source %q; pass WithYear", e.Source)
	}
	return "cannot determine release year; pass WithYear or set Table.Source"
}

package ksjutil

import (
	"errors"
	"fmt"
)

// DefaultLanguage is the label language used when none is requested.
const DefaultLanguage = "ja"

// WarningKind classifies the non-fatal conditions Cleanup records.
type WarningKind string

const (
	// WarnMissingMetadata: the column matched the naming convention but
	// the reference store has no entry for it at all.
	WarnMissingMetadata WarningKind = "missing_metadata"

	// WarnUnmappedYear: the column is known but has no label for the
	// resolved year and language.
	WarnUnmappedYear WarningKind = "unmapped_year"

	// WarnUntranslatableCode: a cell held a code absent from the column's
	// code table. External code lists are not guaranteed exhaustive.
	WarnUntranslatableCode WarningKind = "untranslatable_code"
)

// Warning records a condition Cleanup degraded past without losing data.
// Column is the original (pre-rename) column name; Row and Code are set
// for untranslatable codes only.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	Column string      `json:"column"`
	Row    int         `json:"row,omitempty"`
	Code   string      `json:"code,omitempty"`
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnUntranslatableCode:
		return fmt.Sprintf("%s: column %s row %d: code %q has no translation", w.Kind, w.Column, w.Row, w.Code)
	default:
		return fmt.Sprintf("%s: column %s", w.Kind, w.Column)
	}
}

// Result is the outcome of one Cleanup call. Warnings list every column
// and cell that was passed through unmodified, so callers can audit
// partial translations without losing data.
type Result struct {
	Table      *Table
	Year       int
	Language   string
	Renamed    int
	Translated int
	Warnings   []Warning
}

type options struct {
	year     int
	language string
	inPlace  bool
}

// Option configures a Cleanup call.
type Option func(*options)

// WithYear pins the release year, overriding Table.Source.
func WithYear(year int) Option {
	return func(o *options) { o.year = year }
}

// WithLanguage selects the label language tag. The packaged data is
// Japanese-first; "ja" is the default.
func WithLanguage(lang string) Option {
	return func(o *options) { o.language = lang }
}

// InPlace mutates the input table instead of transforming a copy.
func InPlace() Option {
	return func(o *options) { o.inPlace = true }
}

// Engine applies a reference store to tables.
type Engine struct {
	store *Store
}

// NewEngine creates an engine over a loaded store. The engine is
// stateless apart from the store and safe for concurrent use.
func NewEngine(store *Store) *Engine { return &Engine{store: store} }

// Store returns the engine's reference store.
func (e *Engine) Store() *Store { return e.store }

// Cleanup renames recognised KSJ columns to their year-scoped labels and
// rewrites coded cell values using the matching code tables. Row count,
// row order and column order are preserved; columns outside the naming
// convention pass through byte-identical.
//
// Only a missing release year aborts the call. Columns without metadata
// for the resolved year keep their original name and values, and cells
// holding codes absent from the code table keep their original value;
// both are reported in Result.Warnings.
func (e *Engine) Cleanup(t *Table, opts ...Option) (*Result, error) {
	o := options{language: DefaultLanguage}
	for _, opt := range opts {
		opt(&o)
	}

	year, err := resolveYear(t, o.year)
	if err != nil {
		return nil, err
	}

	out := t
	if !o.inPlace {
		out = t.Clone()
	}
	res := &Result{Table: out, Year: year, Language: o.language}

	for _, name := range t.Columns() {
		key, ok := Classify(name)
		if !ok {
			continue
		}

		label, err := e.store.Label(key, year, o.language)
		if err != nil {
			kind := WarnUnmappedYear
			var missing *MissingMetadataError
			if errors.As(err, &missing) {
				kind = WarnMissingMetadata
			}
			res.Warnings = append(res.Warnings, Warning{Kind: kind, Column: name})
			continue
		}

		if !Exempt(key) {
			if codes, ok := e.store.CodeTable(key, year); ok {
				translateColumn(out, name, codes, res)
			}
		}

		out.Rename(name, label)
		res.Renamed++
	}

	return res, nil
}

// translateColumn rewrites each cell whose canonical string form appears
// in the code table. Empty and nil cells are skipped silently; a non-empty
// code with no mapping keeps its value and is recorded per cell.
func translateColumn(t *Table, column string, codes CodeTable, res *Result) {
	for i := 0; i < t.NumRows(); i++ {
		code, ok := codeString(t.Cell(i, column))
		if !ok || code == "" {
			continue
		}
		value, found := codes[code]
		if !found {
			res.Warnings = append(res.Warnings, Warning{
				Kind:   WarnUntranslatableCode,
				Column: column,
				Row:    i,
				Code:   code,
			})
			continue
		}
		t.setCell(i, column, value)
		res.Translated++
	}
}

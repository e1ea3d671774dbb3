package ksjutil

import (
	"embed"
	"encoding/csv"
	"fmt"
	"io/fs"
	"strings"

	json "github.com/goccy/go-json"
)

//go:embed data
var refFS embed.FS

// CodeTable maps enumeration codes to their human-readable values for one
// column and year. Codes are strings; they are not necessarily numeric.
type CodeTable map[string]string

// Store holds the loaded reference data: year-scoped column labels and
// code tables keyed by ColumnKey. A Store is immutable after loading and
// safe to share read-only across goroutines.
type Store struct {
	// labels: key -> language tag -> year -> label
	labels map[ColumnKey]map[string]map[int]string
	// codes: key -> year -> code table
	codes map[ColumnKey]map[int]CodeTable
}

// NewStore loads the reference data packaged with the module.
func NewStore() (*Store, error) {
	return loadStore(refFS, "data")
}

// loadStore walks a data tree laid out as
//
//	<root>/<DatasetID>/<ColumnNumber>/labels.json
//	<root>/<DatasetID>/<ColumnNumber>/<year>.tsv
//
// and indexes it into nested maps, replacing per-column file access with a
// single lookup at cleanup time.
func loadStore(fsys fs.FS, root string) (*Store, error) {
	s := &Store{
		labels: make(map[ColumnKey]map[string]map[int]string),
		codes:  make(map[ColumnKey]map[int]CodeTable),
	}

	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel := strings.TrimPrefix(p, root+"/")
		parts := strings.Split(rel, "/")
		if len(parts) != 3 {
			return fmt.Errorf("unexpected reference file layout: %s", p)
		}
		key := ColumnKey{Dataset: parts[0], Number: parts[1]}

		switch {
		case parts[2] == "labels.json":
			return s.loadLabels(fsys, p, key)
		case strings.HasSuffix(parts[2], ".tsv"):
			year, err := parseYear(strings.TrimSuffix(parts[2], ".tsv"))
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			return s.loadCodes(fsys, p, key, year)
		}
		return fmt.Errorf("unexpected reference file: %s", p)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// loadLabels parses a labels.json file: {"ja": {"2020": "行政区域コード"}}.
func (s *Store) loadLabels(fsys fs.FS, p string, key ColumnKey) error {
	raw, err := fs.ReadFile(fsys, p)
	if err != nil {
		return err
	}

	var byLang map[string]map[string]string
	if err := json.Unmarshal(raw, &byLang); err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}

	langs := make(map[string]map[int]string, len(byLang))
	for lang, byYear := range byLang {
		years := make(map[int]string, len(byYear))
		for ys, label := range byYear {
			year, err := parseYear(ys)
			if err != nil {
				return fmt.Errorf("%s (%s): %w", p, lang, err)
			}
			if label == "" {
				return fmt.Errorf("%s: empty %s label for year %s", p, lang, ys)
			}
			years[year] = label
		}
		langs[lang] = years
	}
	s.labels[key] = langs
	return nil
}

// loadCodes parses a year-scoped TSV code table. The header must be
// "code" and "data"; codes must be unique within one table.
func (s *Store) loadCodes(fsys fs.FS, p string, key ColumnKey, year int) error {
	f, err := fsys.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	if len(records) == 0 || len(records[0]) < 2 || records[0][0] != "code" || records[0][1] != "data" {
		return fmt.Errorf("%s: code tables need a code/data header", p)
	}

	table := make(CodeTable, len(records)-1)
	for _, rec := range records[1:] {
		if _, dup := table[rec[0]]; dup {
			return fmt.Errorf("%s: duplicate code %q", p, rec[0])
		}
		table[rec[0]] = rec[1]
	}

	byYear := s.codes[key]
	if byYear == nil {
		byYear = make(map[int]CodeTable)
		s.codes[key] = byYear
	}
	byYear[year] = table
	return nil
}

// Label returns the column label for the key, year and language tag.
// Unknown keys return *MissingMetadataError; known keys without an entry
// for the requested year or language return *UnmappedYearError. The year
// must match exactly: no adjacent-year fallback.
func (s *Store) Label(key ColumnKey, year int, lang string) (string, error) {
	byLang, ok := s.labels[key]
	if !ok {
		return "", &MissingMetadataError{Key: key}
	}
	label, ok := byLang[lang][year]
	if !ok {
		return "", &UnmappedYearError{Key: key, Year: year, Language: lang}
	}
	return label, nil
}

// CodeTable returns the code table for the key and year. Absence is a
// normal, silent outcome: most columns are not code-based.
func (s *Store) CodeTable(key ColumnKey, year int) (CodeTable, bool) {
	table, ok := s.codes[key][year]
	return table, ok
}

// Known reports whether the key has any reference metadata at all.
func (s *Store) Known(key ColumnKey) bool {
	_, ok := s.labels[key]
	return ok
}

// KeyCount returns the number of column keys with reference metadata.
func (s *Store) KeyCount() int { return len(s.labels) }

package ksjutil

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// sourceYearPattern matches the year fragment KSJ distribution names carry
// after the dataset id: N03-20240101, L01-2020, P27-13.
var sourceYearPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{1,3}[a-z]?-([0-9]{2,8})`)

// YearFromFileName decodes the release year embedded in a KSJ distribution
// file name. Two-digit years pivot at 50 (00-49 map to the 2000s, 50-99 to
// the 1900s); longer fragments start with a 4-digit year.
//
// This is a convenience for callers that know the table's provenance;
// Cleanup itself never inspects cell contents to guess a year.
func YearFromFileName(name string) (int, error) {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	m := sourceYearPattern.FindStringSubmatch(base)
	if m == nil {
		return 0, &UnresolvedYearError{Source: name}
	}

	digits := m[1]
	switch len(digits) {
	case 2:
		yy, _ := strconv.Atoi(digits)
		if yy < 50 {
			return 2000 + yy, nil
		}
		return 1900 + yy, nil
	case 4, 6, 8:
		return parseYear(digits[:4])
	}
	return 0, &UnresolvedYearError{Source: name}
}

// parseYear parses a 4-digit calendar year string.
func parseYear(s string) (int, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("year %q must be 4 digits", s)
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 1000 {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return y, nil
}

// resolveYear picks the single year that applies to a cleanup call: an
// explicit override wins, then the table's Source provenance. Exactly one
// year applies per call; per-row years require separate calls.
func resolveYear(t *Table, override int) (int, error) {
	if override != 0 {
		if override < 1000 || override > 9999 {
			return 0, fmt.Errorf("year %d out of range", override)
		}
		return override, nil
	}
	if t.Source != "" {
		return YearFromFileName(t.Source)
	}
	return 0, &UnresolvedYearError{}
}

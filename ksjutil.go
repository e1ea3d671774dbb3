// Package ksjutil improves the readability of 国土数値情報 (Kokudo Suuchi
// Jouhou, Japan's national land numerical information) attribute tables.
//
// KSJ distributions name their columns with machine-oriented identifiers
// such as N03_001, and many columns carry enumeration codes whose meaning
// is defined by external, year-scoped code lists. Cleanup renames each
// recognised column to its Japanese label for the dataset's release year
// and rewrites coded cell values into the terms the code lists define:
//
//	t := ksjutil.NewTable("P13_002", "geometry")
//	t.AppendRow(map[string]any{"P13_002": "3", "geometry": geom})
//	res, err := ksjutil.Cleanup(t, ksjutil.WithYear(2014))
//
// The reference data is packaged with the module and loaded once; a Store
// is immutable after loading and safe to share across goroutines.
package ksjutil

import "sync"

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
	defaultErr    error
)

// Default returns the engine backed by the packaged reference data.
// The store is loaded on first use and reused afterwards.
func Default() (*Engine, error) {
	defaultOnce.Do(func() {
		store, err := NewStore()
		if err != nil {
			defaultErr = err
			return
		}
		defaultEngine = NewEngine(store)
	})
	return defaultEngine, defaultErr
}

// Cleanup runs the packaged engine over t. It is shorthand for
// Default() followed by Engine.Cleanup.
func Cleanup(t *Table, opts ...Option) (*Result, error) {
	eng, err := Default()
	if err != nil {
		return nil, err
	}
	return eng.Cleanup(t, opts...)
}

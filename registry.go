package anogo

import (
	"sort"
	"sync"

	"github.com/YuminosukeSato/anogo/core/detector"
	anogoErrors "github.com/YuminosukeSato/anogo/pkg/errors"
)

// Builder constructs an unfitted detector from factory parameters.
type Builder func(params Params) (detector.Detector, error)

var (
	registryMu sync.RWMutex
	builders   = make(map[string]Builder)
)

// catalog names every algorithm shipped in this tree together with the
// package whose init registers it. A name found here but absent from the
// builder table means the caller forgot the blank import, which deserves a
// better error than "unknown algorithm".
var catalog = map[string]string{
	"IsolationForest": "github.com/YuminosukeSato/anogo/tabular/iforest",
	"HBOS":            "github.com/YuminosukeSato/anogo/tabular/hbos",
}

// Register adds a builder under name. Adapter packages call this (through
// MustRegister) from init, following the database/sql driver pattern, so
// the table is effectively read-only once main starts.
func Register(name string, b Builder) error {
	const op = "Register"
	if name == "" {
		return anogoErrors.NewConfigError(op, "algorithm name must not be empty")
	}
	if b == nil {
		return anogoErrors.NewConfigErrorf(op, "builder for %q must not be nil", name)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := builders[name]; dup {
		return anogoErrors.NewConfigErrorf(op, "algorithm %q is already registered", name)
	}
	builders[name] = b
	return nil
}

// MustRegister is Register for init functions: it panics on error.
func MustRegister(name string, b Builder) {
	if err := Register(name, b); err != nil {
		panic(err)
	}
}

// Algorithms returns the sorted names of all registered algorithms.
func Algorithms() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewDetector resolves name in the registry and builds an unfitted
// detector with params. Failure modes:
//
//   - name registered: the builder runs; its error (unknown parameter,
//     invalid value) propagates unchanged.
//   - name in the catalog but not registered: a LoadError wrapping
//     ErrNotLinked, telling the caller which package to blank-import.
//   - name unknown entirely: a ConfigError listing what is registered.
//
// A builder whose detector reports a different Name than the registry key
// is rejected; concrete adapters follow the {Name}Adapter convention and
// must answer to the name they registered.
func NewDetector(name string, params Params) (detector.Detector, error) {
	const op = "NewDetector"

	registryMu.RLock()
	b, ok := builders[name]
	registryMu.RUnlock()

	if !ok {
		if importPath, known := catalog[name]; known {
			return nil, anogoErrors.NewLoadError(op, importPath, anogoErrors.Wrapf(
				anogoErrors.ErrNotLinked,
				"algorithm %q is known but not linked into this binary; add\n\timport _ %q",
				name, importPath))
		}
		return nil, anogoErrors.NewConfigErrorf(op,
			"unknown algorithm %q (registered: %v)", name, Algorithms())
	}

	det, err := b(params)
	if err != nil {
		return nil, err
	}
	if det == nil {
		return nil, anogoErrors.NewConfigErrorf(op, "builder for %q returned no detector", name)
	}
	if det.Name() != name {
		return nil, anogoErrors.NewConfigErrorf(op,
			"builder for %q produced a detector named %q; the adapter must report its registered name",
			name, det.Name())
	}
	return det, nil
}

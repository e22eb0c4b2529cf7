// Package iforest registers the IsolationForest detector.
//
// Blank-import it to make the algorithm resolvable by name:
//
//	import _ "github.com/YuminosukeSato/anogo/tabular/iforest"
package iforest

import (
	"github.com/YuminosukeSato/anogo"
	backend "github.com/YuminosukeSato/anogo/backend/iforest"
	"github.com/YuminosukeSato/anogo/core/adapter"
	"github.com/YuminosukeSato/anogo/core/detector"
	anogoErrors "github.com/YuminosukeSato/anogo/pkg/errors"
	"github.com/YuminosukeSato/anogo/pkg/log"
)

// Name is the registry name of this detector.
const Name = "IsolationForest"

// Declared parameters and their defaults:
//
//	n_estimators  int  100  ensemble size
//	max_samples   int  256  sub-sample size per tree
//	max_depth     int  0    tree height cap, 0 = automatic
//	random_state  int  -1   random seed, negative = nondeterministic
//	n_jobs        int  0    tree-building workers, 0 or -1 = all cores
//
// The backend scores with the sklearn sign (higher = more normal), so the
// binding inverts.
var binding = adapter.Binding{
	Algorithm: Name,
	New:       newBackend,
	Rename: map[string]string{
		"n_estimators": "num_trees",
		"max_samples":  "sample_size",
		"random_state": "seed",
		"n_jobs":       "workers",
	},
	Defaults: adapter.ParamSet{
		"n_estimators": 100,
		"max_samples":  256,
		"max_depth":    0,
		"random_state": -1,
		"n_jobs":       0,
	},
	InvertScore: true,
}

func newBackend(params adapter.ParamSet) (adapter.Estimator, error) {
	trees, err := params.Int("num_trees", backend.DefaultTrees)
	if err != nil {
		return nil, err
	}
	if trees <= 0 {
		return nil, anogoErrors.NewValidationError("n_estimators", "must be a positive integer", trees)
	}
	sampleSize, err := params.Int("sample_size", backend.DefaultSampleSize)
	if err != nil {
		return nil, err
	}
	if sampleSize <= 0 {
		return nil, anogoErrors.NewValidationError("max_samples", "must be a positive integer", sampleSize)
	}
	maxDepth, err := params.Int("max_depth", 0)
	if err != nil {
		return nil, err
	}
	if maxDepth < 0 {
		return nil, anogoErrors.NewValidationError("max_depth", "must be zero (automatic) or positive", maxDepth)
	}
	seed, err := params.Int("seed", -1)
	if err != nil {
		return nil, err
	}
	workers, err := params.Int("workers", 0)
	if err != nil {
		return nil, err
	}

	return backend.New(
		backend.WithTrees(trees),
		backend.WithSampleSize(sampleSize),
		backend.WithMaxDepth(maxDepth),
		backend.WithSeed(int64(seed)),
		backend.WithWorkers(workers),
	), nil
}

// IsolationForestAdapter is the IsolationForest detector. All lifecycle
// behavior comes from the embedded adapter; this type only fixes the
// binding and the reseed hook.
type IsolationForestAdapter struct {
	*adapter.Adapter
}

var (
	_ detector.Detector = (*IsolationForestAdapter)(nil)
	_ detector.Seeder   = (*IsolationForestAdapter)(nil)
)

// New constructs an unfitted IsolationForest detector.
func New(params anogo.Params) (*IsolationForestAdapter, error) {
	a, err := adapter.New(binding, params)
	if err != nil {
		return nil, err
	}
	return &IsolationForestAdapter{Adapter: a}, nil
}

// ResetSeed runs at the start of every fit. The backend is rebuilt from
// random_state during fitting, which is what actually reseeds; the hook
// records the seed the next fit will use.
func (d *IsolationForestAdapter) ResetSeed() {
	log.GetLoggerWithName("anogo.tabular.iforest").Debug("reseeding backend",
		log.DetectorNameKey, Name,
		log.RandomSeedKey, d.GetParams()["random_state"],
	)
}

func init() {
	anogo.MustRegister(Name, func(params anogo.Params) (detector.Detector, error) {
		return New(params)
	})
}

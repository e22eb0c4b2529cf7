// Package detector defines the lifecycle contract shared by every anomaly
// detector in AnoGo: construction, fitting, scoring, thresholded prediction,
// and container-based persistence.
//
// Concrete algorithms do not implement this contract directly. They embed the
// adapter template from core/adapter, which in turn embeds Base from this
// package and supplies the backend-specific extension points through the
// Driver interface.
package detector

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for detectors that learn from training data.
type Fitter interface {
	// Fit trains the detector on X. The label matrix y is accepted for
	// interface compatibility with supervised estimators and is ignored.
	Fit(X, y mat.Matrix) error
}

// Scorer is the interface for detectors that produce per-sample anomaly scores.
type Scorer interface {
	// PredictScore returns one real-valued anomaly score per input sample.
	// Larger values mean more anomalous, regardless of the backend's native
	// sign convention.
	PredictScore(X mat.Matrix) ([]float64, error)
}

// Predictor is the interface for detectors that classify samples as
// anomalous (1) or normal (0).
type Predictor interface {
	// Predict binarizes PredictScore against the fitted threshold using a
	// strict score > threshold comparison.
	Predict(X mat.Matrix) ([]int, error)

	// PredictWithThreshold behaves like Predict but uses the supplied
	// cut-off instead of the fitted one.
	PredictWithThreshold(X mat.Matrix, threshold float64) ([]int, error)
}

// Persistable is the interface for detectors that can be saved and loaded
// through the persisted model container.
type Persistable interface {
	// Save writes the detector to a container at path.
	Save(path string) error

	// Load restores the detector from a container at path.
	Load(path string) error
}

// Detector is the uniform contract every registered algorithm satisfies.
type Detector interface {
	Fitter
	Scorer
	Predictor
	Persistable

	// Name returns the algorithm name the detector was registered under,
	// for example "IsolationForest".
	Name() string

	// IsFitted reports whether the detector has been fitted or loaded.
	IsFitted() bool

	// Threshold returns the fitted score cut-off. It returns a
	// NotFittedError before a successful Fit or Load.
	Threshold() (float64, error)

	// Contamination returns the expected anomaly fraction configured at
	// construction time.
	Contamination() float64
}

// Driver supplies the backend-specific extension points Base orchestrates.
// Every adapter implements it.
type Driver interface {
	// FitBackend validates X and fits the native backend on it.
	FitBackend(X, y mat.Matrix) error

	// Score produces contract-oriented anomaly scores (higher = more
	// anomalous) for X. It fails with a NotFittedError when no backend
	// handle exists.
	Score(X mat.Matrix) ([]float64, error)

	// SaveBackend persists the native backend into dir using its own
	// serialization mechanism.
	SaveBackend(dir string) error

	// LoadBackend restores the native backend from dir.
	LoadBackend(dir string) error

	// Attributes returns a pointer to the adapter's versioned state record,
	// persisted in the container's attributes part. A nil return means the
	// adapter keeps no state beyond the backend blob.
	Attributes() any
}

// Seeder is an optional interface for drivers that hold pseudo-random state.
// When implemented, ResetSeed is invoked at the start of every Fit so that
// repeated fits with the same seed reproduce the same model.
type Seeder interface {
	ResetSeed()
}

// AdapterSuffix is the naming convention suffix for concrete adapter types:
// the type registered under a name is declared as that name plus "Adapter",
// for example IsolationForestAdapter.
const AdapterSuffix = "Adapter"

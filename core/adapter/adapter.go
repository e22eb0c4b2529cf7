// Package adapter bridges the uniform detector contract onto concrete
// anomaly-scoring backends.
//
// A backend is any estimator that can fit itself to a matrix and produce
// per-row outlier scores. Backends keep their native parameter vocabulary
// and score orientation; the Adapter translates both so that every
// detector exposes the same caller-facing convention (higher score = more
// anomalous, parameters named as the detector documents them).
//
// Concrete detectors are thin: they supply a Binding (constructor, renames,
// defaults, score orientation) and embed the Adapter for everything else.
package adapter

import (
	"encoding"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/anogo/core/detector"
	anogoErrors "github.com/YuminosukeSato/anogo/pkg/errors"
	"github.com/YuminosukeSato/anogo/pkg/log"
	"github.com/YuminosukeSato/anogo/validation"
)

// Estimator is the minimal surface a backend must expose to be driven by
// an Adapter.
type Estimator interface {
	// Fit trains the backend on X, replacing any previous training state.
	Fit(X mat.Matrix) error
}

// SampleScorer is the primary scoring capability. ScoreSamples returns one
// score per row of X in the backend's native orientation.
type SampleScorer interface {
	ScoreSamples(X mat.Matrix) ([]float64, error)
}

// DecisionScorer is the secondary scoring capability, used when a backend
// has no ScoreSamples. DecisionFunction returns one score per row of X in
// the backend's native orientation.
type DecisionScorer interface {
	DecisionFunction(X mat.Matrix) ([]float64, error)
}

// Binding declares how one algorithm maps onto its backend. The zero value
// is not usable; every concrete detector package defines exactly one.
type Binding struct {
	// Algorithm is the public detector name, e.g. "IsolationForest".
	Algorithm string

	// New constructs the backend from the merged parameter set. The set
	// arrives already translated into the backend's vocabulary.
	New func(params ParamSet) (Estimator, error)

	// Rename maps detector-facing parameter names to backend names.
	// Parameters without an entry keep their name.
	Rename map[string]string

	// Defaults declares the accepted detector-facing parameters and their
	// default values. A caller-supplied parameter outside this vocabulary
	// (and outside the reserved keys) is a configuration error.
	Defaults ParamSet

	// InvertScore negates backend scores before they reach the caller.
	// Set it for backends where lower native scores mean more anomalous.
	InvertScore bool
}

const (
	// Reserved parameter keys handled by the adapter itself rather than
	// forwarded to the backend.
	contaminationKey  = "contamination"
	backendOptionsKey = "backend_options"

	// attributesSchemaVersion tags the adapter state record inside saved
	// containers. Bump it when the record layout changes.
	attributesSchemaVersion = 1

	// backendModelFile is the serialized estimator inside the container's
	// backend directory.
	backendModelFile = "model.gob"
)

// attributes is the adapter state persisted in the container's attributes
// part and restored before the backend itself is rebuilt.
type attributes struct {
	SchemaVersion  int      `json:"schema_version"`
	Algorithm      string   `json:"algorithm"`
	Params         ParamSet `json:"params"`
	BackendOptions ParamSet `json:"backend_options,omitempty"`
	NFeatures      int      `json:"n_features,omitempty"`
}

// Adapter implements detector.Driver on top of a Binding. It owns the
// parameter layering, score orientation, and backend persistence; the
// embedded detector.Base owns thresholding and the fitted state machine.
type Adapter struct {
	*detector.Base

	binding Binding
	attrs   attributes

	backend Estimator
	score   func(X mat.Matrix) ([]float64, error)

	logger log.Logger
}

var _ detector.Driver = (*Adapter)(nil)

// New builds an Adapter for binding with the caller's parameters layered
// over the binding defaults. Reserved keys: "contamination" configures the
// threshold quantile, "backend_options" passes a nested map straight to
// the backend constructor with the final word on conflicts.
func New(binding Binding, params ParamSet) (*Adapter, error) {
	if binding.Algorithm == "" {
		return nil, anogoErrors.NewConfigError("adapter.New", "binding must declare an algorithm name")
	}

	contamination, err := params.Float(contaminationKey, detector.DefaultContamination)
	if err != nil {
		return nil, err
	}
	options, err := params.Sub(backendOptionsKey)
	if err != nil {
		return nil, err
	}

	declared := binding.Defaults.Clone()
	for key, value := range params {
		if key == contaminationKey || key == backendOptionsKey {
			continue
		}
		if _, ok := binding.Defaults[key]; !ok {
			return nil, anogoErrors.NewConfigErrorf(binding.Algorithm,
				"unknown parameter %q (known parameters: %v, plus %q and %q)",
				key, binding.Defaults.Keys(), contaminationKey, backendOptionsKey)
		}
		declared[key] = value
	}

	a := &Adapter{
		binding: binding,
		attrs: attributes{
			SchemaVersion:  attributesSchemaVersion,
			Algorithm:      binding.Algorithm,
			Params:         declared,
			BackendOptions: options,
		},
	}
	base, err := detector.NewBase(binding.Algorithm, contamination, a)
	if err != nil {
		return nil, err
	}
	a.Base = base
	a.logger = log.GetLoggerWithName("anogo.adapter").With(log.DetectorNameKey, binding.Algorithm)
	return a, nil
}

// mergedParams flattens the layers into the backend vocabulary: defaults
// and declared parameters are renamed first, then backend options are laid
// on top so explicit passthrough always wins.
func (a *Adapter) mergedParams() ParamSet {
	merged := a.attrs.Params.Clone().Rename(a.binding.Rename)
	return merged.Merge(a.attrs.BackendOptions)
}

// FitBackend constructs a fresh backend from the merged parameters and
// trains it on X. The label matrix y is accepted for interface symmetry
// and ignored; detection here is unsupervised.
func (a *Adapter) FitBackend(X, y mat.Matrix) error {
	op := a.binding.Algorithm + ".Fit"
	if a.binding.New == nil {
		return anogoErrors.NewConfigError(op, "no backend constructor configured for this algorithm")
	}
	Xd, err := validation.Matrix(X)
	if err != nil {
		return err
	}
	_ = y

	merged := a.mergedParams()
	backend, err := a.binding.New(merged)
	if err != nil {
		return err
	}
	if backend == nil {
		return anogoErrors.NewConfigError(op, "backend constructor returned no estimator")
	}
	score, err := bindScorer(a.binding.Algorithm, backend)
	if err != nil {
		return err
	}
	if err := backend.Fit(Xd); err != nil {
		return anogoErrors.Wrapf(err, "%s: backend fitting failed", op)
	}

	rows, cols := Xd.Dims()
	a.backend = backend
	a.score = score
	a.attrs.NFeatures = cols
	a.logger.Debug("backend fitted",
		log.BackendKey, fmt.Sprintf("%T", backend),
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
	)
	return nil
}

// Score runs the bound scoring capability on X and normalizes the result
// to the caller-facing orientation where higher means more anomalous.
func (a *Adapter) Score(X mat.Matrix) ([]float64, error) {
	op := a.binding.Algorithm + ".PredictScore"
	if a.backend == nil || a.score == nil {
		return nil, anogoErrors.NewNotFittedError(a.binding.Algorithm, "PredictScore")
	}
	Xd, err := validation.Matrix(X)
	if err != nil {
		return nil, err
	}
	rows, cols := Xd.Dims()
	if a.attrs.NFeatures > 0 && cols != a.attrs.NFeatures {
		return nil, anogoErrors.NewDimensionError(op, a.attrs.NFeatures, cols, 1)
	}

	scores, err := a.score(Xd)
	if err != nil {
		return nil, anogoErrors.Wrapf(err, "%s: backend scoring failed", op)
	}
	if len(scores) != rows {
		return nil, anogoErrors.NewDimensionError(op, rows, len(scores), 0)
	}
	if a.binding.InvertScore {
		for i := range scores {
			scores[i] = -scores[i]
		}
	}
	if err := anogoErrors.CheckNumericalStability(op, scores, 0); err != nil {
		return nil, err
	}
	return scores, nil
}

// SaveBackend serializes the trained backend into dir as model.gob.
func (a *Adapter) SaveBackend(dir string) error {
	if a.backend == nil {
		return anogoErrors.NewNotFittedError(a.binding.Algorithm, "Save")
	}
	m, ok := a.backend.(encoding.BinaryMarshaler)
	if !ok {
		return anogoErrors.NewConfigErrorf(a.binding.Algorithm,
			"backend %T does not support serialization", a.backend)
	}
	blob, err := m.MarshalBinary()
	if err != nil {
		return anogoErrors.Wrapf(err, "%s: backend serialization failed", a.binding.Algorithm)
	}
	path := filepath.Join(dir, backendModelFile)
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return anogoErrors.Wrapf(err, "%s: writing backend model", a.binding.Algorithm)
	}
	return nil
}

// LoadBackend rebuilds the backend from the restored attributes and
// deserializes its training state from dir. The attributes record must
// already be decoded when this runs.
func (a *Adapter) LoadBackend(dir string) error {
	op := a.binding.Algorithm + ".Load"
	if a.binding.New == nil {
		return anogoErrors.NewConfigError(op, "no backend constructor configured for this algorithm")
	}
	if a.attrs.SchemaVersion != attributesSchemaVersion {
		return anogoErrors.NewLoadError(op, dir, anogoErrors.Newf(
			"unsupported adapter schema version %d (expected %d)",
			a.attrs.SchemaVersion, attributesSchemaVersion))
	}
	path := filepath.Join(dir, backendModelFile)
	blob, err := os.ReadFile(path)
	if err != nil {
		return anogoErrors.NewLoadError("read backend model", path, err)
	}

	backend, err := a.binding.New(a.mergedParams())
	if err != nil {
		return err
	}
	if backend == nil {
		return anogoErrors.NewConfigError(op, "backend constructor returned no estimator")
	}
	u, ok := backend.(encoding.BinaryUnmarshaler)
	if !ok {
		return anogoErrors.NewConfigErrorf(a.binding.Algorithm,
			"backend %T does not support deserialization", backend)
	}
	if err := u.UnmarshalBinary(blob); err != nil {
		return anogoErrors.NewLoadError("decode backend model", path, err)
	}
	score, err := bindScorer(a.binding.Algorithm, backend)
	if err != nil {
		return err
	}
	a.backend = backend
	a.score = score
	return nil
}

// Attributes exposes the adapter state record for the container codec.
func (a *Adapter) Attributes() any {
	return &a.attrs
}

// Backend returns the trained estimator for callers that need native
// access, e.g. to inspect backend-specific statistics.
func (a *Adapter) Backend() (Estimator, error) {
	if a.backend == nil {
		return nil, anogoErrors.NewNotFittedError(a.binding.Algorithm, "Backend")
	}
	return a.backend, nil
}

// GetParams reports the detector-facing configuration, mirroring the
// values a caller could pass to the factory to rebuild this detector.
func (a *Adapter) GetParams() map[string]any {
	out := map[string]any(a.attrs.Params.Clone())
	out[contaminationKey] = a.Contamination()
	if len(a.attrs.BackendOptions) > 0 {
		out[backendOptionsKey] = map[string]any(a.attrs.BackendOptions.Clone())
	}
	return out
}

// bindScorer picks the scoring capability once, preferring ScoreSamples
// and falling back to DecisionFunction.
func bindScorer(algorithm string, backend Estimator) (func(X mat.Matrix) ([]float64, error), error) {
	if s, ok := backend.(SampleScorer); ok {
		return s.ScoreSamples, nil
	}
	if d, ok := backend.(DecisionScorer); ok {
		return d.DecisionFunction, nil
	}
	return nil, anogoErrors.NewConfigErrorf(algorithm,
		"backend %T provides neither ScoreSamples nor DecisionFunction", backend)
}

// Package hbos implements the Histogram-Based Outlier Score estimator.
//
// Each feature gets an equal-width histogram over the training range; a
// sample's score is the sum over features of the negative log density of
// the bin it falls into. Sparse bins therefore push the score up. HBOS
// already orients scores with higher = more anomalous, so it exposes only
// DecisionFunction and needs no sign inversion.
package hbos

import (
	"bytes"
	"encoding/gob"
	"sync"

	"gonum.org/v1/gonum/mat"

	anogoErrors "github.com/YuminosukeSato/anogo/pkg/errors"
)

// DefaultBins is the histogram resolution used when no option overrides it.
const DefaultBins = 10

// Options holds the tunable parameters of a Model.
type Options struct {
	// Bins is the number of equal-width bins per feature.
	Bins int
}

// Option mutates Options during construction.
type Option func(*Options)

// WithBins sets the number of histogram bins per feature.
func WithBins(n int) Option { return func(o *Options) { o.Bins = n } }

// featureHist is the fitted histogram of one feature. Fields are exported
// for gob.
type featureHist struct {
	Min   float64
	Width float64 // 0 marks a constant feature

	// Densities holds the per-bin density count/(n*width). Empty bins
	// stay at zero and are floored at log time.
	Densities []float64
}

// Model is a fitted-or-not HBOS estimator. Construct with New.
type Model struct {
	mu   sync.RWMutex
	opts Options

	features  []featureHist
	nFeatures int
	fitted    bool
}

// New builds an unfitted Model with the given options applied over the
// defaults.
func New(opts ...Option) *Model {
	o := Options{Bins: DefaultBins}
	for _, opt := range opts {
		opt(&o)
	}
	return &Model{opts: o}
}

// Options reports the configuration the model was built with.
func (m *Model) Options() Options {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opts
}

// NumFeatures returns the feature count seen at fit time, zero before fit.
func (m *Model) NumFeatures() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nFeatures
}

// Fit estimates one histogram per feature of X, replacing any previous
// training state. Deterministic; HBOS has no random component.
func (m *Model) Fit(X mat.Matrix) error {
	const op = "hbos.Fit"
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return anogoErrors.NewDataFormatError(op, "empty training data", anogoErrors.ErrEmptyData)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	bins := m.opts.Bins
	if bins < 1 {
		bins = DefaultBins
	}

	features := make([]featureHist, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, X)

		minVal, maxVal := col[0], col[0]
		for _, v := range col[1:] {
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
		if minVal == maxVal {
			features[j] = featureHist{Min: minVal}
			continue
		}

		width := (maxVal - minVal) / float64(bins)
		counts := make([]float64, bins)
		for _, v := range col {
			counts[binIndex(v, minVal, width, bins)]++
		}
		densities := make([]float64, bins)
		for k, c := range counts {
			densities[k] = c / (float64(rows) * width)
		}
		features[j] = featureHist{Min: minVal, Width: width, Densities: densities}
	}

	m.features = features
	m.nFeatures = cols
	m.fitted = true
	return nil
}

// DecisionFunction returns one outlier score per row of X: the sum over
// features of the negative log bin density. Higher means more anomalous.
func (m *Model) DecisionFunction(X mat.Matrix) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	const op = "hbos.DecisionFunction"
	if !m.fitted {
		return nil, anogoErrors.NewNotFittedError("HBOS", "DecisionFunction")
	}
	rows, cols := X.Dims()
	if cols != m.nFeatures {
		return nil, anogoErrors.NewDimensionError(op, m.nFeatures, cols, 1)
	}

	scores := make([]float64, rows)
	for i := 0; i < rows; i++ {
		var score float64
		for j, h := range m.features {
			score -= anogoErrors.StabilizeLog(h.density(X.At(i, j)))
		}
		scores[i] = score
	}
	return scores, nil
}

// density looks up the training density at value v. Values outside the
// training range land in the nearest edge bin. A constant feature has
// density 1 at its single observed value and 0 elsewhere.
func (h featureHist) density(v float64) float64 {
	if h.Width <= 0 {
		if v == h.Min {
			return 1
		}
		return 0
	}
	return h.Densities[binIndex(v, h.Min, h.Width, len(h.Densities))]
}

// binIndex places v into its equal-width bin, clamping to the edges so the
// top of the range and unseen out-of-range values stay addressable.
func binIndex(v, min, width float64, bins int) int {
	idx := int((v - min) / width)
	if idx < 0 {
		return 0
	}
	if idx >= bins {
		return bins - 1
	}
	return idx
}

// hbosModel is the gob wire form of a trained model.
type hbosModel struct {
	Options   Options
	Features  []featureHist
	NFeatures int
}

// MarshalBinary serializes the trained model with encoding/gob.
func (m *Model) MarshalBinary() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.fitted {
		return nil, anogoErrors.NewNotFittedError("HBOS", "MarshalBinary")
	}
	var buf bytes.Buffer
	model := hbosModel{
		Options:   m.opts,
		Features:  m.features,
		NFeatures: m.nFeatures,
	}
	if err := gob.NewEncoder(&buf).Encode(model); err != nil {
		return nil, anogoErrors.Wrap(err, "hbos: encoding model")
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary restores a trained model serialized by MarshalBinary.
func (m *Model) UnmarshalBinary(data []byte) error {
	var model hbosModel
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&model); err != nil {
		return anogoErrors.Wrap(err, "hbos: decoding model")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.opts = model.Options
	m.features = model.Features
	m.nFeatures = model.NFeatures
	m.fitted = len(model.Features) > 0
	return nil
}

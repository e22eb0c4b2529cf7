// Package iforest implements the Isolation Forest anomaly estimator.
//
// Each tree isolates points by recursive random axis-aligned splits over a
// sub-sample of the training data; anomalous points need fewer splits to
// end up alone, so shorter average path lengths mean higher anomaly scores.
// The package follows the sklearn sign convention: ScoreSamples returns the
// negated anomaly score (higher = more normal) and DecisionFunction shifts
// it by +0.5 so that negative values flag anomalies.
package iforest

import (
	"bytes"
	"encoding/gob"
	"math"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/anogo/core/parallel"
	anogoErrors "github.com/YuminosukeSato/anogo/pkg/errors"
)

const (
	// DefaultTrees is the ensemble size used when no option overrides it.
	DefaultTrees = 100

	// DefaultSampleSize is the per-tree sub-sample size ψ. Trees are grown
	// on at most this many rows drawn without replacement.
	DefaultSampleSize = 256

	// eulerGamma is the Euler-Mascheroni constant used in the harmonic
	// number approximation of the average BST path length.
	eulerGamma = 0.5772156649015329

	// scoreParallelThreshold is the batch size above which ScoreSamples
	// traverses the ensemble on multiple goroutines.
	scoreParallelThreshold = 512
)

// Options holds the tunable parameters of a Forest.
type Options struct {
	// Trees is the number of isolation trees in the ensemble.
	Trees int

	// SampleSize is the sub-sample size per tree, capped at the number of
	// training rows.
	SampleSize int

	// MaxDepth limits tree height. Zero means ceil(log2(SampleSize)), the
	// depth at which isolation stops being informative.
	MaxDepth int

	// Seed drives all randomness. Negative means draw a seed from the
	// clock, giving a different forest on every fit.
	Seed int64

	// Workers bounds the goroutines used to grow trees. Zero means one
	// per CPU.
	Workers int
}

// Option mutates Options during construction.
type Option func(*Options)

// WithTrees sets the ensemble size.
func WithTrees(n int) Option { return func(o *Options) { o.Trees = n } }

// WithSampleSize sets the per-tree sub-sample size.
func WithSampleSize(n int) Option { return func(o *Options) { o.SampleSize = n } }

// WithMaxDepth caps the tree height. Zero restores the automatic cap.
func WithMaxDepth(d int) Option { return func(o *Options) { o.MaxDepth = d } }

// WithSeed fixes the random seed for reproducible forests.
func WithSeed(seed int64) Option { return func(o *Options) { o.Seed = seed } }

// WithWorkers bounds the tree-building goroutines.
func WithWorkers(n int) Option { return func(o *Options) { o.Workers = n } }

// treeNode is one node of an isolation tree. Fields are exported for gob.
type treeNode struct {
	SplitFeature int
	SplitValue   float64
	Left, Right  *treeNode

	// Size is the number of sub-sample rows that reached this leaf.
	Size int
}

// Forest is an Isolation Forest estimator. The zero value is not usable;
// construct with New.
type Forest struct {
	mu   sync.RWMutex
	opts Options

	trees      []*treeNode
	subSample  int     // ψ actually used
	normalizer float64 // c(ψ)
	nFeatures  int
	fitted     bool
}

// New builds an unfitted Forest with the given options applied over the
// defaults.
func New(opts ...Option) *Forest {
	o := Options{
		Trees:      DefaultTrees,
		SampleSize: DefaultSampleSize,
		Seed:       -1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Forest{opts: o}
}

// Options reports the configuration the forest was built with.
func (f *Forest) Options() Options {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.opts
}

// NumFeatures returns the feature count seen at fit time, zero before fit.
func (f *Forest) NumFeatures() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.nFeatures
}

// Fit grows the ensemble on X, replacing any previous training state.
// Trees are grown concurrently; results are identical for a fixed seed
// regardless of the worker count because every tree owns a seed drawn
// up front from the master sequence.
func (f *Forest) Fit(X mat.Matrix) error {
	const op = "iforest.Fit"
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return anogoErrors.NewDataFormatError(op, "empty training data", anogoErrors.ErrEmptyData)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	data := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		data[i] = mat.Row(nil, i, X)
	}

	psi := f.opts.SampleSize
	if psi > rows {
		psi = rows
	}
	maxDepth := f.opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = int(math.Ceil(math.Log2(float64(psi))))
		if maxDepth < 1 {
			maxDepth = 1
		}
	}

	seed := f.opts.Seed
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	master := rand.New(rand.NewSource(seed))
	seeds := make([]int64, f.opts.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]*treeNode, f.opts.Trees)
	parallel.ParallelizeWorkers(f.opts.Workers, f.opts.Trees, func(start, end int) {
		for i := start; i < end; i++ {
			rng := rand.New(rand.NewSource(seeds[i]))
			sample := make([][]float64, psi)
			for j, idx := range rng.Perm(rows)[:psi] {
				sample[j] = data[idx]
			}
			trees[i] = buildNode(sample, cols, 0, maxDepth, rng)
		}
	})

	f.trees = trees
	f.subSample = psi
	f.normalizer = averagePathLength(float64(psi))
	f.nFeatures = cols
	f.fitted = true
	return nil
}

// buildNode grows one subtree over data, splitting on a random feature at
// a random cut between the feature's min and max.
func buildNode(data [][]float64, nFeatures, depth, maxDepth int, rng *rand.Rand) *treeNode {
	n := len(data)
	if depth >= maxDepth || n <= 1 {
		return &treeNode{Size: n}
	}

	feature := rng.Intn(nFeatures)
	minVal, maxVal := data[0][feature], data[0][feature]
	for _, row := range data[1:] {
		if row[feature] < minVal {
			minVal = row[feature]
		}
		if row[feature] > maxVal {
			maxVal = row[feature]
		}
	}
	if minVal == maxVal {
		return &treeNode{Size: n}
	}

	splitValue := minVal + rng.Float64()*(maxVal-minVal)
	var left, right [][]float64
	for _, row := range data {
		if row[feature] < splitValue {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	return &treeNode{
		SplitFeature: feature,
		SplitValue:   splitValue,
		Left:         buildNode(left, nFeatures, depth+1, maxDepth, rng),
		Right:        buildNode(right, nFeatures, depth+1, maxDepth, rng),
		Size:         n,
	}
}

// ScoreSamples returns the negated anomaly score per row of X, in (-1, 0).
// Higher values mean more normal, matching the sklearn convention.
func (f *Forest) ScoreSamples(X mat.Matrix) ([]float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	const op = "iforest.ScoreSamples"
	if !f.fitted {
		return nil, anogoErrors.NewNotFittedError("IsolationForest", "ScoreSamples")
	}
	rows, cols := X.Dims()
	if cols != f.nFeatures {
		return nil, anogoErrors.NewDimensionError(op, f.nFeatures, cols, 1)
	}

	scores := make([]float64, rows)
	parallel.ParallelizeWithThreshold(rows, scoreParallelThreshold, func(start, end int) {
		row := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			scores[i] = -f.anomalyScore(row)
		}
	})
	return scores, nil
}

// DecisionFunction returns ScoreSamples shifted by +0.5, so values below
// zero correspond to anomalies under the default contamination.
func (f *Forest) DecisionFunction(X mat.Matrix) ([]float64, error) {
	scores, err := f.ScoreSamples(X)
	if err != nil {
		return nil, err
	}
	for i := range scores {
		scores[i] += 0.5
	}
	return scores, nil
}

// anomalyScore computes s(x, ψ) = 2^(-E[h(x)]/c(ψ)) for one sample.
func (f *Forest) anomalyScore(sample []float64) float64 {
	var total float64
	for _, root := range f.trees {
		total += pathLength(sample, root, 0)
	}
	avgPath := total / float64(len(f.trees))
	if f.normalizer <= 0 {
		return 0.5
	}
	return math.Pow(2, -avgPath/f.normalizer)
}

// pathLength walks sample down one tree, extending leaf depth by the
// expected remaining path for the leaf's sub-sample size.
func pathLength(sample []float64, n *treeNode, depth int) float64 {
	if n.Left == nil && n.Right == nil {
		return float64(depth) + averagePathLength(float64(n.Size))
	}
	if sample[n.SplitFeature] < n.SplitValue {
		return pathLength(sample, n.Left, depth+1)
	}
	return pathLength(sample, n.Right, depth+1)
}

// averagePathLength is c(n), the average path length of an unsuccessful
// BST search over n points: 2H(n-1) - 2(n-1)/n with the harmonic number
// approximated as H(n) = ln(n) + eulerGamma.
func averagePathLength(n float64) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		return 2*(math.Log(n-1)+eulerGamma) - 2*(n-1)/n
	}
}

// forestModel is the gob wire form of a trained forest.
type forestModel struct {
	Options    Options
	Trees      []*treeNode
	SubSample  int
	Normalizer float64
	NFeatures  int
}

// MarshalBinary serializes the trained forest with encoding/gob.
func (f *Forest) MarshalBinary() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.fitted {
		return nil, anogoErrors.NewNotFittedError("IsolationForest", "MarshalBinary")
	}
	var buf bytes.Buffer
	model := forestModel{
		Options:    f.opts,
		Trees:      f.trees,
		SubSample:  f.subSample,
		Normalizer: f.normalizer,
		NFeatures:  f.nFeatures,
	}
	if err := gob.NewEncoder(&buf).Encode(model); err != nil {
		return nil, anogoErrors.Wrap(err, "iforest: encoding model")
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary restores a trained forest serialized by MarshalBinary.
func (f *Forest) UnmarshalBinary(data []byte) error {
	var model forestModel
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&model); err != nil {
		return anogoErrors.Wrap(err, "iforest: decoding model")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts = model.Options
	f.trees = model.Trees
	f.subSample = model.SubSample
	f.normalizer = model.Normalizer
	f.nFeatures = model.NFeatures
	f.fitted = len(model.Trees) > 0
	return nil
}

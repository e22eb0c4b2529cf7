package detector

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	anogoErrors "github.com/YuminosukeSato/anogo/pkg/errors"
	"github.com/YuminosukeSato/anogo/pkg/log"
)

// DefaultContamination is the expected anomaly fraction used when a detector
// is constructed without an explicit contamination value.
const DefaultContamination = 0.1

// Base implements the Detector contract on top of a Driver. Adapters embed
// *Base and supply the backend-specific extension points; Base owns fit
// orchestration, thresholding, prediction, and container persistence.
type Base struct {
	algorithm     string
	contamination float64
	driver        Driver
	state         *StateManager
	logger        log.Logger
}

var _ Detector = (*Base)(nil)

// NewBase creates the contract implementation for an adapter.
//
// algorithm is the registry name of the detector, contamination the expected
// anomaly fraction in [0, 1), and driver the adapter supplying the backend
// extension points.
func NewBase(algorithm string, contamination float64, driver Driver) (*Base, error) {
	if algorithm == "" {
		return nil, anogoErrors.NewValidationError("algorithm", "must not be empty", algorithm)
	}
	if contamination < 0 || contamination >= 1 {
		return nil, anogoErrors.NewValidationError("contamination", "must be in [0, 1)", contamination)
	}
	if driver == nil {
		return nil, anogoErrors.NewConfigError(algorithm, "detector driver must not be nil")
	}

	return &Base{
		algorithm:     algorithm,
		contamination: contamination,
		driver:        driver,
		state:         NewStateManager(),
		logger:        log.GetLoggerWithName("anogo.detector").With(log.DetectorNameKey, algorithm),
	}, nil
}

// Name returns the algorithm name the detector was registered under.
func (b *Base) Name() string {
	return b.algorithm
}

// IsFitted reports whether the detector has been fitted or loaded.
func (b *Base) IsFitted() bool {
	return b.state.IsFitted()
}

// Contamination returns the expected anomaly fraction configured at
// construction (or restored by Load).
func (b *Base) Contamination() float64 {
	return b.contamination
}

// Threshold returns the fitted score cut-off.
// It returns a NotFittedError before a successful Fit or Load.
func (b *Base) Threshold() (float64, error) {
	if !b.state.IsFitted() {
		return 0, anogoErrors.NewNotFittedError(b.algorithm, "Threshold")
	}
	t, ok := b.state.Threshold()
	if !ok {
		return 0, anogoErrors.NewNotFittedError(b.algorithm, "Threshold")
	}
	return t, nil
}

// FittedDimensions returns the number of features and samples seen by the
// last successful Fit. Both are zero for detectors restored via Load.
func (b *Base) FittedDimensions() (nFeatures, nSamples int) {
	return b.state.GetDimensions()
}

// Fit trains the detector on X and computes the anomaly threshold as the
// (1 - contamination) quantile of the in-sample scores. The label matrix y
// is ignored.
//
// Re-fitting fully replaces prior state. A failed Fit leaves the detector
// unfitted; the previously fitted model is not restored.
func (b *Base) Fit(X, y mat.Matrix) (err error) {
	defer anogoErrors.Recover(&err, fmt.Sprintf("%s.Fit", b.algorithm))
	start := time.Now()

	b.state.Reset()

	if seeder, ok := b.driver.(Seeder); ok {
		seeder.ResetSeed()
	}

	if err := b.driver.FitBackend(X, y); err != nil {
		return err
	}

	scores, err := b.driver.Score(X)
	if err != nil {
		return anogoErrors.Wrap(err, "failed to score training data for threshold selection")
	}
	threshold, err := thresholdFromScores(b.algorithm, scores, b.contamination)
	if err != nil {
		return err
	}

	rows, cols := X.Dims()
	b.state.SetDimensions(cols, rows)
	b.state.SetThreshold(threshold)
	b.state.SetFitted()

	b.logger.Info("detector fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.ContaminationKey, b.contamination,
		log.ThresholdKey, threshold,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// PredictScore returns one anomaly score per sample of X, higher meaning
// more anomalous. It does not require a prior Fit on this instance as long
// as a backend handle exists (for example after Load), and fails with a
// NotFittedError otherwise.
func (b *Base) PredictScore(X mat.Matrix) (scores []float64, err error) {
	defer anogoErrors.Recover(&err, fmt.Sprintf("%s.PredictScore", b.algorithm))

	scores, err = b.driver.Score(X)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("scored samples",
		log.OperationKey, log.OperationPredictScore,
		log.PredsKey, len(scores),
	)
	return scores, nil
}

// Predict classifies each sample of X as anomalous (1) or normal (0) using
// the fitted threshold with a strict score > threshold comparison.
//
// It fails with a NotFittedError if the detector was never fitted or loaded,
// and with a ValueError if no threshold is available.
func (b *Base) Predict(X mat.Matrix) (labels []int, err error) {
	defer anogoErrors.Recover(&err, fmt.Sprintf("%s.Predict", b.algorithm))

	if !b.state.IsFitted() {
		return nil, anogoErrors.NewNotFittedError(b.algorithm, "Predict")
	}
	threshold, ok := b.state.Threshold()
	if !ok {
		return nil, anogoErrors.NewValueError(b.algorithm+".Predict",
			"no threshold available: refit the detector or use PredictWithThreshold")
	}
	return b.predictWith(X, threshold)
}

// PredictWithThreshold classifies each sample of X against an explicit
// cut-off instead of the fitted one. The detector must still be fitted,
// since scoring requires a backend handle.
func (b *Base) PredictWithThreshold(X mat.Matrix, threshold float64) (labels []int, err error) {
	defer anogoErrors.Recover(&err, fmt.Sprintf("%s.PredictWithThreshold", b.algorithm))

	if !b.state.IsFitted() {
		return nil, anogoErrors.NewNotFittedError(b.algorithm, "PredictWithThreshold")
	}
	if err := anogoErrors.CheckScalar("threshold", threshold, 0); err != nil {
		return nil, anogoErrors.NewValueError(b.algorithm+".PredictWithThreshold",
			"threshold must be a finite number")
	}
	return b.predictWith(X, threshold)
}

func (b *Base) predictWith(X mat.Matrix, threshold float64) ([]int, error) {
	scores, err := b.driver.Score(X)
	if err != nil {
		return nil, err
	}

	labels := make([]int, len(scores))
	anomalies := 0
	for i, s := range scores {
		if s > threshold {
			labels[i] = 1
			anomalies++
		}
	}

	b.logger.Debug("classified samples",
		log.OperationKey, log.OperationPredict,
		log.ThresholdKey, threshold,
		log.PredsKey, len(labels),
		log.AnomaliesKey, anomalies,
	)
	return labels, nil
}

// thresholdFromScores computes the (1 - contamination) quantile of the
// in-sample scores with linear interpolation.
func thresholdFromScores(algorithm string, scores []float64, contamination float64) (float64, error) {
	if len(scores) == 0 {
		return 0, anogoErrors.NewDataFormatError(algorithm+".Fit",
			"no training scores to derive a threshold from", anogoErrors.ErrEmptyData)
	}

	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	threshold := stat.Quantile(1-contamination, stat.LinInterp, sorted, nil)
	if err := anogoErrors.CheckScalar("threshold", threshold, 0); err != nil {
		return 0, err
	}

	if sorted[0] == sorted[len(sorted)-1] {
		anogoErrors.Warn(anogoErrors.NewConstantScoreWarning(algorithm, sorted[0]))
	}
	return threshold, nil
}

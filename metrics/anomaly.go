// Package metrics provides evaluation metrics for anomaly detectors.
//
// All functions take ground-truth binary labels (1 = anomaly, 0 = normal)
// together with detector outputs: real-valued anomaly scores where higher
// means more anomalous, or binarized predictions.
package metrics

import (
	"sort"

	"github.com/YuminosukeSato/anogo/pkg/errors"
)

// ROCAUC computes the area under the ROC curve from anomaly scores, using
// the rank statistic with average ranks for tied scores. It fails when the
// labels contain only one class, where the curve is undefined.
func ROCAUC(yTrue []int, scores []float64) (float64, error) {
	const op = "ROCAUC"
	if err := checkLabelsScores(op, yTrue, scores); err != nil {
		return 0, err
	}

	n := len(scores)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && scores[idx[j+1]] == scores[idx[i]] {
			j++
		}
		avgRank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avgRank
		}
		i = j + 1
	}

	var nPos, nNeg int
	var posRankSum float64
	for i, label := range yTrue {
		if label == 1 {
			nPos++
			posRankSum += ranks[i]
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0, errors.NewValueError(op, "labels must contain both classes")
	}

	auc := (posRankSum - float64(nPos)*float64(nPos+1)/2) / (float64(nPos) * float64(nNeg))
	return auc, nil
}

// PrecisionAtN computes the precision among the n highest-scoring samples.
// When n <= 0 it defaults to the number of true anomalies, matching the
// usual "precision @ rank n" evaluation of contaminated datasets.
func PrecisionAtN(yTrue []int, scores []float64, n int) (float64, error) {
	const op = "PrecisionAtN"
	if err := checkLabelsScores(op, yTrue, scores); err != nil {
		return 0, err
	}

	if n <= 0 {
		for _, label := range yTrue {
			if label == 1 {
				n++
			}
		}
		if n == 0 {
			return 0, errors.NewValueError(op, "labels contain no anomalies and no explicit n was given")
		}
	}
	if n > len(scores) {
		return 0, errors.NewDimensionError(op, len(scores), n, 0)
	}

	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	hits := 0
	for _, i := range idx[:n] {
		if yTrue[i] == 1 {
			hits++
		}
	}
	return float64(hits) / float64(n), nil
}

// Report bundles the standard evaluation of one detector on one dataset.
type Report struct {
	ROCAUC       float64
	PrecisionAtN float64
}

// Evaluate computes the standard report: ROC AUC plus precision at the
// number of true anomalies.
func Evaluate(yTrue []int, scores []float64) (Report, error) {
	auc, err := ROCAUC(yTrue, scores)
	if err != nil {
		return Report{}, err
	}
	prec, err := PrecisionAtN(yTrue, scores, 0)
	if err != nil {
		return Report{}, err
	}
	return Report{ROCAUC: auc, PrecisionAtN: prec}, nil
}

func checkLabelsScores(op string, yTrue []int, scores []float64) error {
	if len(yTrue) == 0 {
		return errors.NewValueError(op, "empty labels")
	}
	if len(yTrue) != len(scores) {
		return errors.NewDimensionError(op, len(yTrue), len(scores), 0)
	}
	for _, label := range yTrue {
		if label != 0 && label != 1 {
			return errors.NewValidationError("yTrue", "labels must be 0 or 1", label)
		}
	}
	return nil
}

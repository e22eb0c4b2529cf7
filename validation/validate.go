// Package validation normalizes caller-supplied data into the dense
// matrices the detectors operate on.
//
// Every lifecycle entry point funnels its input through Validate, so the
// backends can assume a rectangular, finite float64 matrix and nothing
// else has to re-check shapes.
package validation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	anogoErrors "github.com/YuminosukeSato/anogo/pkg/errors"
)

// Options controls which checks Validate applies.
type Options struct {
	// EnsureFinite rejects matrices containing NaN or infinite values.
	EnsureFinite bool

	// Coerce1D interprets a flat vector as n samples of a single feature.
	// When false, flat input is rejected with a reshape hint.
	Coerce1D bool

	// MinSamples and MinFeatures set lower bounds on the matrix shape.
	MinSamples  int
	MinFeatures int
}

// DefaultOptions returns the checks applied on the detector lifecycle
// paths: finite values required, flat vectors treated as one feature,
// at least one sample and one feature.
func DefaultOptions() Options {
	return Options{
		EnsureFinite: true,
		Coerce1D:     true,
		MinSamples:   1,
		MinFeatures:  1,
	}
}

// Matrix validates X with DefaultOptions. It is the form the adapters use.
func Matrix(X mat.Matrix) (*mat.Dense, error) {
	return Validate(X, DefaultOptions())
}

// Validate checks X against opts and returns it as a dense matrix.
//
// Accepted inputs: anything implementing mat.Matrix, [][]float64,
// []float64, [][]int and []int. Integer input is converted to float64 and
// reported through the warning hook. A *mat.Dense passes through without
// copying; other forms allocate.
func Validate(X any, opts Options) (*mat.Dense, error) {
	const op = "validate"
	if X == nil {
		return nil, anogoErrors.NewDataFormatError(op, "input data is nil", nil)
	}

	var d *mat.Dense
	switch v := X.(type) {
	case *mat.Dense:
		if v == nil {
			return nil, anogoErrors.NewDataFormatError(op, "input data is nil", nil)
		}
		if err := checkDims(op, v, opts); err != nil {
			return nil, err
		}
		d = v
	case mat.Matrix:
		if err := checkDims(op, v, opts); err != nil {
			return nil, err
		}
		d = mat.DenseCopyOf(v)
	case [][]float64:
		m, err := fromRows(op, v)
		if err != nil {
			return nil, err
		}
		if err := checkDims(op, m, opts); err != nil {
			return nil, err
		}
		d = m
	case []float64:
		m, err := fromVector(op, v, opts)
		if err != nil {
			return nil, err
		}
		d = m
	case [][]int:
		rows := make([][]float64, len(v))
		for i, row := range v {
			rows[i] = make([]float64, len(row))
			for j, x := range row {
				rows[i][j] = float64(x)
			}
		}
		anogoErrors.Warn(anogoErrors.NewDataConversionWarning("[][]int", "float64",
			"integer features are converted to float64 for scoring"))
		return Validate(rows, opts)
	case []int:
		vec := make([]float64, len(v))
		for i, x := range v {
			vec[i] = float64(x)
		}
		anogoErrors.Warn(anogoErrors.NewDataConversionWarning("[]int", "float64",
			"integer features are converted to float64 for scoring"))
		return Validate(vec, opts)
	default:
		return nil, anogoErrors.NewDataFormatError(op,
			fmt.Sprintf("unsupported input type %T", X), nil)
	}

	if opts.EnsureFinite {
		if err := checkFinite(op, d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func fromRows(op string, rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, anogoErrors.NewDataFormatError(op, "input data is empty", anogoErrors.ErrEmptyData)
	}
	cols := len(rows[0])
	flat := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, anogoErrors.NewDataFormatError(op,
				fmt.Sprintf("row %d has %d columns, expected %d", i, len(row), cols), nil)
		}
		flat = append(flat, row...)
	}
	return mat.NewDense(len(rows), cols, flat), nil
}

func fromVector(op string, vec []float64, opts Options) (*mat.Dense, error) {
	if len(vec) == 0 {
		return nil, anogoErrors.NewDataFormatError(op, "input data is empty", anogoErrors.ErrEmptyData)
	}
	if !opts.Coerce1D {
		return nil, anogoErrors.NewDataFormatError(op,
			"flat input needs an explicit shape, pass a matrix with one column per feature", nil)
	}
	d := mat.NewDense(len(vec), 1, nil)
	for i, x := range vec {
		d.Set(i, 0, x)
	}
	if err := checkDims(op, d, opts); err != nil {
		return nil, err
	}
	return d, nil
}

func checkDims(op string, m mat.Matrix, opts Options) error {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return anogoErrors.NewDataFormatError(op, "input data is empty", anogoErrors.ErrEmptyData)
	}
	if rows < opts.MinSamples {
		return anogoErrors.NewDimensionError(op, opts.MinSamples, rows, 0)
	}
	if cols < opts.MinFeatures {
		return anogoErrors.NewDimensionError(op, opts.MinFeatures, cols, 1)
	}
	return nil
}

func checkFinite(op string, d *mat.Dense) error {
	rows, cols := d.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			x := d.At(i, j)
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return anogoErrors.NewDataFormatError(op,
					fmt.Sprintf("non-finite value %v at row %d, column %d", x, i, j), nil)
			}
		}
	}
	return nil
}

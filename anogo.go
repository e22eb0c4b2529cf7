package anogo

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/anogo/core/adapter"
	"github.com/YuminosukeSato/anogo/core/detector"
	"github.com/YuminosukeSato/anogo/validation"
)

// Version is the library release version recorded in saved containers.
const Version = detector.LibraryVersion

// Params carries the factory configuration for NewDetector. Keys are the
// adapter's declared parameter names plus the reserved "contamination" and
// "backend_options" entries.
type Params = adapter.ParamSet

// Detector is the uniform contract every registered algorithm satisfies.
type Detector = detector.Detector

// Matrix converts raw tabular input ([][]float64, []float64, integer
// slices, or anything implementing mat.Matrix) into the dense matrix the
// detectors consume.
func Matrix(data any) (*mat.Dense, error) {
	return validation.Validate(data, validation.DefaultOptions())
}

// ReadMetadata returns the advisory metadata part of a saved container
// without restoring the detector.
func ReadMetadata(path string) (detector.Metadata, error) {
	return detector.ReadMetadata(path)
}

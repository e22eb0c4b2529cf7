// Package hbos registers the HBOS detector.
//
// Blank-import it to make the algorithm resolvable by name:
//
//	import _ "github.com/YuminosukeSato/anogo/tabular/hbos"
package hbos

import (
	"github.com/YuminosukeSato/anogo"
	backend "github.com/YuminosukeSato/anogo/backend/hbos"
	"github.com/YuminosukeSato/anogo/core/adapter"
	"github.com/YuminosukeSato/anogo/core/detector"
	anogoErrors "github.com/YuminosukeSato/anogo/pkg/errors"
)

// Name is the registry name of this detector.
const Name = "HBOS"

// Declared parameters and their defaults:
//
//	n_bins  int  10  histogram bins per feature
//
// The backend exposes only DecisionFunction and already scores higher =
// more anomalous, so the binding does not invert.
var binding = adapter.Binding{
	Algorithm: Name,
	New:       newBackend,
	Rename: map[string]string{
		"n_bins": "bins",
	},
	Defaults: adapter.ParamSet{
		"n_bins": 10,
	},
	InvertScore: false,
}

func newBackend(params adapter.ParamSet) (adapter.Estimator, error) {
	bins, err := params.Int("bins", backend.DefaultBins)
	if err != nil {
		return nil, err
	}
	if bins <= 0 {
		return nil, anogoErrors.NewValidationError("n_bins", "must be a positive integer", bins)
	}
	return backend.New(backend.WithBins(bins)), nil
}

// HBOSAdapter is the HBOS detector. All lifecycle behavior comes from the
// embedded adapter.
type HBOSAdapter struct {
	*adapter.Adapter
}

var _ detector.Detector = (*HBOSAdapter)(nil)

// New constructs an unfitted HBOS detector.
func New(params anogo.Params) (*HBOSAdapter, error) {
	a, err := adapter.New(binding, params)
	if err != nil {
		return nil, err
	}
	return &HBOSAdapter{Adapter: a}, nil
}

func init() {
	anogo.MustRegister(Name, func(params anogo.Params) (detector.Detector, error) {
		return New(params)
	})
}

// Package anogo provides a uniform interface over anomaly-detection
// algorithms for Go, designed for backend services that need outlier
// scoring without committing to a single modeling backend.
//
// AnoGo offers a PyOD-like lifecycle (Fit, PredictScore, Predict, Save,
// Load) behind a name-based factory, so swapping algorithms is a string
// change rather than a rewrite.
//
// # Features
//
// - Uniform Contract: one lifecycle for every algorithm
// - Name-Based Factory: resolve detectors by registry name
// - Portable Persistence: one-file containers carrying wrapper and backend state
// - Consistent Scores: higher always means more anomalous, whatever the backend
// - Robust Error Handling: typed, wrapped errors with stack traces
//
// # Installation
//
// Install AnoGo using go get:
//
//	go get github.com/YuminosukeSato/anogo
//
// # Quick Start
//
// Fit an Isolation Forest and flag anomalies:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/anogo"
//	    _ "github.com/YuminosukeSato/anogo/tabular/iforest"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    det, err := anogo.NewDetector("IsolationForest", anogo.Params{
//	        "n_estimators":  100,
//	        "contamination": 0.1,
//	        "random_state":  42,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    X := mat.NewDense(4, 2, []float64{
//	        0.9, 1.1,
//	        1.0, 1.0,
//	        1.1, 0.9,
//	        8.0, 9.0,
//	    })
//	    if err := det.Fit(X, nil); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    labels, err := det.Predict(X)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("Labels:", labels) // 1 marks an anomaly
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - core/detector: the detector contract, lifecycle base, and container
//   - core/adapter: backend bindings, parameter layering, score orientation
//   - core/parallel: parallel processing utilities
//   - backend/iforest: native Isolation Forest estimator
//   - backend/hbos: native histogram-based outlier score estimator
//   - tabular/iforest, tabular/hbos: registered adapters (blank-import to link)
//   - validation: input coercion and shape/finiteness checks
//   - metrics: ROC AUC and precision@n for labeled evaluations
//   - preprocessing: feature scaling ahead of distance-sensitive backends
//   - pkg/errors, pkg/log: error taxonomy and structured logging
//
// # Linking Algorithms
//
// Adapters register themselves at init, so a binary only carries the
// algorithms it imports:
//
//	import (
//	    _ "github.com/YuminosukeSato/anogo/tabular/hbos"
//	    _ "github.com/YuminosukeSato/anogo/tabular/iforest"
//	)
//
// Resolving a known algorithm that was never imported returns an error
// naming the exact import line to add.
//
// # Persistence
//
// A fitted detector saves to a single container file and loads back into a
// freshly resolved instance:
//
//	if err := det.Save("model.zip"); err != nil { ... }
//	restored, _ := anogo.NewDetector("IsolationForest", nil)
//	if err := restored.Load("model.zip"); err != nil { ... }
//
// # License
//
// AnoGo is released under the MIT License.
package anogo

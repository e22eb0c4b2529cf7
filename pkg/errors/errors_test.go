package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestNewConfigError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		message  string
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "unknown algorithm",
			op:       "NewDetector",
			message:  `unknown algorithm "LOF"`,
			wantMsg:  `anogo: NewDetector: unknown algorithm "LOF"`,
			hasStack: true,
		},
		{
			name:     "unknown parameter",
			op:       "IsolationForest.New",
			message:  `unknown parameter "n_tree"`,
			wantMsg:  `anogo: IsolationForest.New: unknown parameter "n_tree"`,
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfigError(tt.op, tt.message)

			// 基本的なエラーメッセージの確認
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			// ConfigError型にキャスト可能か確認
			var cfgErr *ConfigError
			if !As(err, &cfgErr) {
				t.Error("Error should be castable to *ConfigError")
			}
			if cfgErr.Op != tt.op {
				t.Errorf("Op = %v, want %v", cfgErr.Op, tt.op)
			}
		})
	}
}

func TestNewConfigErrorf(t *testing.T) {
	err := NewConfigErrorf("NewDetector", "unknown algorithm %q (registered: %v)", "KNN", []string{"HBOS", "IsolationForest"})

	want := `anogo: NewDetector: unknown algorithm "KNN" (registered: [HBOS IsolationForest])`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestNewDimensionError(t *testing.T) {
	tests := []struct {
		name    string
		axis    int
		wantMsg string
	}{
		{
			name:    "column mismatch",
			axis:    1,
			wantMsg: "anogo: IsolationForest.PredictScore: dimension mismatch on axis 1 (features). Expected 4, got 3",
		},
		{
			name:    "row mismatch",
			axis:    0,
			wantMsg: "anogo: IsolationForest.PredictScore: dimension mismatch on axis 0 (rows). Expected 4, got 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDimensionError("IsolationForest.PredictScore", 4, 3, tt.axis)

			// 基本的なエラーメッセージの確認
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// DimensionError型にキャスト可能か確認
			var dimErr *DimensionError
			if !As(err, &dimErr) {
				t.Error("Error should be castable to *DimensionError")
			}
			if dimErr.Axis != tt.axis {
				t.Errorf("Axis = %v, want %v", dimErr.Axis, tt.axis)
			}
		})
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("IsolationForest", "Predict")

	// 基本的なエラーメッセージの確認
	want := "anogo: IsolationForest: this detector is not fitted yet. Call Fit() or Load() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	// NotFittedError型にキャスト可能か確認
	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
	if notFittedErr.DetectorName != "IsolationForest" {
		t.Errorf("DetectorName = %v, want IsolationForest", notFittedErr.DetectorName)
	}
	if notFittedErr.Method != "Predict" {
		t.Errorf("Method = %v, want Predict", notFittedErr.Method)
	}
}

func TestNewDataFormatError(t *testing.T) {
	tests := []struct {
		name    string
		reason  string
		cause   error
		wantMsg string
	}{
		{
			name:    "with cause",
			reason:  "no samples",
			cause:   ErrEmptyData,
			wantMsg: "anogo: Fit: invalid input data: no samples: empty data",
		},
		{
			name:    "without cause",
			reason:  "row 2 has 3 columns, expected 4",
			cause:   nil,
			wantMsg: "anogo: Fit: invalid input data: row 2 has 3 columns, expected 4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDataFormatError("Fit", tt.reason, tt.cause)

			// 基本的なエラーメッセージの確認
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// DataFormatError型にキャスト可能か確認
			var fmtErr *DataFormatError
			if !As(err, &fmtErr) {
				t.Error("Error should be castable to *DataFormatError")
			}

			// 原因エラーがUnwrapで辿れるか確認
			if tt.cause != nil && !Is(err, tt.cause) {
				t.Error("Expected Is(err, cause) to be true")
			}
		})
	}
}

func TestNewLoadError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		path    string
		cause   error
		wantMsg string
	}{
		{
			name:    "with path",
			op:      "Load",
			path:    "/tmp/model.zip",
			cause:   ErrMissingPart,
			wantMsg: `anogo: Load: "/tmp/model.zip": missing container part`,
		},
		{
			name:    "without path",
			op:      "NewDetector",
			path:    "",
			cause:   ErrNotLinked,
			wantMsg: "anogo: NewDetector: adapter not linked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewLoadError(tt.op, tt.path, tt.cause)

			// 基本的なエラーメッセージの確認
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// LoadError型にキャスト可能か確認
			var loadErr *LoadError
			if !As(err, &loadErr) {
				t.Error("Error should be castable to *LoadError")
			}

			// 原因エラーがUnwrapで辿れるか確認
			if !Is(err, tt.cause) {
				t.Error("Expected Is(err, cause) to be true")
			}
		})
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("contamination", "must be in [0, 1)", 1.5)

	// 基本的なエラーメッセージの確認
	want := "anogo: validation failed for parameter 'contamination': must be in [0, 1) (got: 1.5)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	// ValidationError型にキャスト可能か確認
	var valErr *ValidationError
	if !As(err, &valErr) {
		t.Error("Error should be castable to *ValidationError")
	}
	if valErr.ParamName != "contamination" {
		t.Errorf("ParamName = %v, want contamination", valErr.ParamName)
	}
}

func TestNewValueError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		message string
		wantMsg string
	}{
		{
			name:    "NaN threshold",
			op:      "PredictWithThreshold",
			message: "threshold must not be NaN",
			wantMsg: "anogo: PredictWithThreshold: threshold must not be NaN",
		},
		{
			name:    "single class labels",
			op:      "ROCAUC",
			message: "labels must contain both classes",
			wantMsg: "anogo: ROCAUC: labels must contain both classes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValueError(tt.op, tt.message)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// ValueError型にキャスト可能か確認
			var valErr *ValueError
			if !As(err, &valErr) {
				t.Error("Error should be castable to *ValueError")
			}
		})
	}
}

func TestNewNumericalInstabilityError(t *testing.T) {
	err := NewNumericalInstabilityError("HBOS.Score", []float64{1.5, 2.25}, 0)

	// 基本的なエラーメッセージの確認
	want := "anogo: numerical instability detected in HBOS.Score at iteration 0. Values: [1.5, 2.25]"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Error("Error should be castable to *NumericalInstabilityError")
	}
}

func TestNumericalChecks(t *testing.T) {
	if err := CheckNumericalStability("fit", []float64{1, 2, 3}, 0); err != nil {
		t.Errorf("Finite values should pass: %v", err)
	}
	if err := CheckNumericalStability("fit", []float64{1, math.NaN()}, 2); err == nil {
		t.Error("NaN should be detected")
	}
	if err := CheckScalar("threshold", math.Inf(1), 0); err == nil {
		t.Error("Inf should be detected")
	}
	if err := CheckScalar("threshold", 0.62, 0); err != nil {
		t.Errorf("Finite scalar should pass: %v", err)
	}
}

func TestNumericalHelpers(t *testing.T) {
	// ゼロ除算は 0 に落とす
	if got := SafeDivide(1, 0); got != 0 {
		t.Errorf("SafeDivide(1, 0) = %v, want 0", got)
	}
	if got := SafeDivide(6, 3); got != 2 {
		t.Errorf("SafeDivide(6, 3) = %v, want 2", got)
	}

	if got := ClipValue(1.5, 0, 1); got != 1.0 {
		t.Errorf("ClipValue(1.5, 0, 1) = %v, want 1", got)
	}
	if got := ClipValue(-0.5, 0, 1); got != 0.0 {
		t.Errorf("ClipValue(-0.5, 0, 1) = %v, want 0", got)
	}
	if got := ClipValue(0.25, 0, 1); got != 0.25 {
		t.Errorf("ClipValue(0.25, 0, 1) = %v, want 0.25", got)
	}

	// log(0) 防止
	if got := StabilizeLog(0); got != math.Log(1e-10) {
		t.Errorf("StabilizeLog(0) = %v, want log(1e-10)", got)
	}
	if got := StabilizeLog(1); got != 0 {
		t.Errorf("StabilizeLog(1) = %v, want 0", got)
	}
}

func TestNewDataConversionWarning(t *testing.T) {
	warn := NewDataConversionWarning("[][]int", "float64", "integer features are converted to float64 for scoring")

	// 基本的な警告メッセージの確認
	want := "data converted from [][]int to float64. Reason: integer features are converted to float64 for scoring"
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}

	// DataConversionWarning型へのキャストのみ確認
	var convWarn *DataConversionWarning
	if !As(warn, &convWarn) {
		t.Error("Warning should be castable to *DataConversionWarning")
	}
}

func TestNewConstantScoreWarning(t *testing.T) {
	warn := NewConstantScoreWarning("HBOS", 0.5)

	want := "all training scores for HBOS are 0.5; the fitted threshold will classify no sample as anomalous"
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}

	var constWarn *ConstantScoreWarning
	if !As(warn, &constWarn) {
		t.Error("Warning should be castable to *ConstantScoreWarning")
	}
}

func TestSetWarningHandler(t *testing.T) {
	var captured []error
	SetWarningHandler(func(w error) {
		captured = append(captured, w)
	})
	defer SetWarningHandler(func(w error) {})

	// zerologシンクが未設定の場合はハンドラに届く
	Warn(NewDataConversionWarning("[]int", "float64", "test"))

	if len(captured) != 1 {
		t.Fatalf("Expected 1 captured warning, got %d", len(captured))
	}

	var convWarn *DataConversionWarning
	if !As(captured[0], &convWarn) {
		t.Errorf("Captured warning has wrong type: %T", captured[0])
	}
}

func TestWrapAndIs(t *testing.T) {
	// 元のエラー
	baseErr := ErrNotLinked

	// ラップ
	wrapped := Wrap(baseErr, "in NewDetector")

	// Is関数でチェック
	if !Is(wrapped, ErrNotLinked) {
		t.Error("Expected Is(wrapped, ErrNotLinked) to be true")
	}

	// エラーメッセージの確認
	if !strings.Contains(wrapped.Error(), "in NewDetector") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	// 元のエラー
	baseErr := ErrEmptyData

	// フォーマット付きラップ
	wrapped := Wrapf(baseErr, "in %s: expected %d, got %d", "Fit", 10, 0)

	// Is関数でチェック
	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	// エラーメッセージの確認
	expectedMsg := "in Fit: expected 10, got 0"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestErrorChaining(t *testing.T) {
	// エラーチェーンの作成
	err1 := fmt.Errorf("base error")
	err2 := Wrap(err1, "wrapped once")
	err3 := NewDataFormatError("Fit", "conversion failed", err2)

	// チェーン全体を確認
	if !strings.Contains(err3.Error(), "base error") {
		t.Error("Expected error chain to contain base error")
	}

	// 元のエラーまで辿れるか確認
	if !Is(err3, err1) {
		t.Error("Expected Is(err3, err1) to be true")
	}

	// スタックトレースの確認（詳細表示）
	formatted := fmt.Sprintf("%+v", err3)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected detailed error to contain stack trace")
	}
}

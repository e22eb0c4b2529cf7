package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRecoverWithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "IsolationForest.Fit")
		panic("index out of range")
	}

	err := testFunc()

	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}

	if panicErr.Operation != "IsolationForest.Fit" {
		t.Errorf("Expected operation 'IsolationForest.Fit', got '%s'", panicErr.Operation)
	}

	if panicErr.PanicValue != "index out of range" {
		t.Errorf("Expected panic value 'index out of range', got '%v'", panicErr.PanicValue)
	}

	if panicErr.StackTrace == "" {
		t.Error("Expected non-empty stack trace")
	}

	expectedMsg := "panic in IsolationForest.Fit: index out of range"
	if panicErr.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, panicErr.Error())
	}
}

func TestRecoverWithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "IsolationForest.Fit")
		return nil
	}

	if err := testFunc(); err != nil {
		t.Fatalf("Expected no error when no panic occurs, got: %v", err)
	}
}

// パニック発生前にエラーが設定されていた場合、両方の情報を保持する。
func TestRecoverKeepsExistingError(t *testing.T) {
	originalErr := errors.New("backend fitting failed")

	testFunc := func() (err error) {
		defer Recover(&err, "HBOS.Fit")
		err = originalErr
		panic("panic after error")
	}

	err := testFunc()

	if err == nil {
		t.Fatal("Expected error from recovered panic with existing error, got nil")
	}

	errMsg := err.Error()
	for _, expected := range []string{"panic in HBOS.Fit", "panic after error", "backend fitting failed"} {
		if !strings.Contains(errMsg, expected) {
			t.Errorf("Error message should contain '%s': %s", expected, errMsg)
		}
	}

	// 元のエラーがerrors.Isで辿れること
	if !errors.Is(err, originalErr) {
		t.Error("Should be able to identify original error with errors.Is")
	}
}

func TestRecoverPanicValues(t *testing.T) {
	testCases := []struct {
		name       string
		panicValue interface{}
		// Goはpanic(nil)を特定の文字列に変換する
		expectedValue interface{}
	}{
		{"string panic", "split failed", "split failed"},
		{"int panic", 42, 42},
		{"error panic", fmt.Errorf("error as panic"), fmt.Errorf("error as panic")},
		{"nil panic", nil, "panic called with nil argument"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			testFunc := func() (err error) {
				defer Recover(&err, "Detector.PredictScore")
				panic(tc.panicValue)
			}

			err := testFunc()

			if err == nil {
				t.Fatal("Expected error from panic")
			}

			var panicErr *PanicError
			if !errors.As(err, &panicErr) {
				t.Fatalf("Expected PanicError, got %T", err)
			}

			if fmt.Sprintf("%v", panicErr.PanicValue) != fmt.Sprintf("%v", tc.expectedValue) {
				t.Errorf("Expected panic value %v, got %v", tc.expectedValue, panicErr.PanicValue)
			}
		})
	}
}

func TestSafeExecute(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		err := SafeExecute("backend fit", func() error {
			return nil
		})
		if err != nil {
			t.Fatalf("Expected no error for successful operation, got: %v", err)
		}
	})

	t.Run("function error passes through", func(t *testing.T) {
		originalErr := fmt.Errorf("function error")
		err := SafeExecute("backend fit", func() error {
			return originalErr
		})
		if err != originalErr {
			t.Fatalf("Expected original error, got: %v", err)
		}
	})

	t.Run("panic becomes PanicError", func(t *testing.T) {
		err := SafeExecute("backend fit", func() error {
			panic("tree construction failed")
		})
		if err == nil {
			t.Fatal("Expected error from panic in SafeExecute, got nil")
		}

		var panicErr *PanicError
		if !errors.As(err, &panicErr) {
			t.Fatalf("Expected PanicError, got %T", err)
		}
		if panicErr.Operation != "backend fit" {
			t.Errorf("Expected operation 'backend fit', got '%s'", panicErr.Operation)
		}
	})
}

func TestPanicErrorString(t *testing.T) {
	panicErr := NewPanicError("Detector.Save", "disk full")

	expectedMsg := "panic in Detector.Save: disk full"
	if panicErr.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, panicErr.Error())
	}

	// String()はスタックトレースを含む
	str := panicErr.String()
	if !strings.Contains(str, "Stack trace:") {
		t.Error("String() should include stack trace information")
	}
	if !strings.Contains(str, expectedMsg) {
		t.Error("String() should include basic error information")
	}

	if panicErr.Unwrap() != nil {
		t.Error("PanicError.Unwrap() should return nil")
	}
}

func BenchmarkRecoverNoPanic(b *testing.B) {
	for i := 0; i < b.N; i++ {
		func() (err error) {
			defer Recover(&err, "BenchmarkOp")
			return nil
		}()
	}
}

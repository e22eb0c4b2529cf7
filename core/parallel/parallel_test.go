package parallel

import (
	"sync"
	"testing"
)

func TestParallelizeWorkersCoversAllItems(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		items   int
	}{
		{"single worker", 1, 100},
		{"two workers", 2, 100},
		{"more workers than items", 16, 5},
		{"workers equals items", 8, 8},
		{"zero workers uses NumCPU", 0, 100},
		{"uneven split", 3, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			visits := make([]int, tt.items)

			ParallelizeWorkers(tt.workers, tt.items, func(start, end int) {
				if start < 0 || end > tt.items || start >= end {
					t.Errorf("invalid range [%d, %d) for %d items", start, end, tt.items)
					return
				}
				mu.Lock()
				for i := start; i < end; i++ {
					visits[i]++
				}
				mu.Unlock()
			})

			// すべてのインデックスがちょうど1回処理されること
			for i, n := range visits {
				if n != 1 {
					t.Errorf("item %d visited %d times, want 1", i, n)
				}
			}
		})
	}
}

func TestParallelizeWorkersZeroItems(t *testing.T) {
	called := false
	ParallelizeWorkers(4, 0, func(start, end int) {
		called = true
	})
	if called {
		t.Error("fn should not be called for zero items")
	}
}

func TestParallelize(t *testing.T) {
	var mu sync.Mutex
	visits := make([]int, 1000)

	Parallelize(1000, func(start, end int) {
		mu.Lock()
		for i := start; i < end; i++ {
			visits[i]++
		}
		mu.Unlock()
	})

	for i, n := range visits {
		if n != 1 {
			t.Fatalf("item %d visited %d times, want 1", i, n)
		}
	}
}

func TestParallelizeWithThreshold(t *testing.T) {
	t.Run("below threshold runs sequentially", func(t *testing.T) {
		var calls [][2]int
		ParallelizeWithThreshold(10, 100, func(start, end int) {
			calls = append(calls, [2]int{start, end})
		})

		// 閾値以下は呼び出し元のゴルーチンで1回だけ実行される
		if len(calls) != 1 {
			t.Fatalf("expected 1 sequential call, got %d", len(calls))
		}
		if calls[0] != [2]int{0, 10} {
			t.Errorf("expected range [0, 10), got [%d, %d)", calls[0][0], calls[0][1])
		}
	})

	t.Run("above threshold covers all items", func(t *testing.T) {
		var mu sync.Mutex
		visits := make([]int, 500)

		ParallelizeWithThreshold(500, 100, func(start, end int) {
			mu.Lock()
			for i := start; i < end; i++ {
				visits[i]++
			}
			mu.Unlock()
		})

		for i, n := range visits {
			if n != 1 {
				t.Fatalf("item %d visited %d times, want 1", i, n)
			}
		}
	})
}

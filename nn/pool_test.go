package nn

import "testing"

func TestScratchPool(t *testing.T) {
	var pool scratchPool

	s := pool.alloc(8)
	if len(s) != 8 {
		t.Errorf("expected len 8, got %v", len(s))
	}

	for i := range s {
		s[i] = float64(i + 1)
	}
	pool.free(s)

	// Recycled buffers must come back zeroed.
	s = pool.alloc(4)
	if len(s) != 4 {
		t.Errorf("expected len 4, got %v", len(s))
	}
	for i, v := range s {
		if v != 0 {
			t.Errorf("index %d: expected 0, got %v", i, v)
		}
	}
}

func TestScratchPoolNil(t *testing.T) {
	var pool *scratchPool

	s := pool.alloc(3)
	if len(s) != 3 {
		t.Errorf("expected len 3, got %v", len(s))
	}
	pool.free(s)
}

func BenchmarkScratchPool(b *testing.B) {
	var pool scratchPool
	for i := 0; i < b.N; i++ {
		s := pool.alloc(512)
		pool.free(s)
	}
}

func BenchmarkScratchMake(b *testing.B) {
	for i := 0; i < b.N; i++ {
		s := make([]float64, 512)
		_ = s
	}
}

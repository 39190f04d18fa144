package deepsize

import (
	"testing"
)

type BenchmarkRecord struct {
	ID    uint64
	Name  string
	Tags  []string
	Attrs map[string]string
	Left  *BenchmarkRecord
	Right *BenchmarkRecord
}

func buildBenchTree(depth int) *BenchmarkRecord {
	if depth == 0 {
		return nil
	}
	return &BenchmarkRecord{
		ID:   uint64(depth),
		Name: heapString('b', 24),
		Tags: []string{heapString('t', 6), heapString('u', 6)},
		Attrs: map[string]string{
			heapString('k', 4): heapString('v', 12),
		},
		Left:  buildBenchTree(depth - 1),
		Right: buildBenchTree(depth - 1),
	}
}

func BenchmarkOfTree(b *testing.B) {
	tree := buildBenchTree(8)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Of(tree)
	}
}

func BenchmarkOfFlatSlice(b *testing.B) {
	nums := make([]uint64, 1<<16)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Of(nums)
	}
}

func BenchmarkOfStringSlice(b *testing.B) {
	strs := make([]string, 1024)
	for i := range strs {
		strs[i] = heapString(byte('a'+i%26), 32)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Of(strs)
	}
}

func BenchmarkOfWithAllocRounding(b *testing.B) {
	tree := buildBenchTree(8)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = NewContext().WithAllocRounding().Of(tree)
	}
}

func BenchmarkScanTree(b *testing.B) {
	tree := buildBenchTree(8)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Scan(tree)
	}
}

func BenchmarkOfParallel(b *testing.B) {
	tree := buildBenchTree(6)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = Of(tree)
		}
	})
}

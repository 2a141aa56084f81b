package bytesort

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// BenchmarkSort measures the full two-pass sort across input sizes and
// budgets. The input file is generated once per configuration; each
// iteration re-sorts it into the same output path.
func BenchmarkSort(b *testing.B) {
	configs := []struct {
		size  int
		cache uint64
	}{
		{64 << 10, 4 << 10},
		{1 << 20, 32 << 10},
		{8 << 20, 256 << 10},
	}

	for _, cfg := range configs {
		name := fmt.Sprintf("size_%dKB_cache_%dKB", cfg.size>>10, cfg.cache>>10)
		b.Run(name, func(b *testing.B) {
			rng := newTestRNG(b)
			input := randomBytes(rng, cfg.size)
			dir := b.TempDir()
			path := filepath.Join(dir, "input.bin")
			if err := os.WriteFile(path, input, 0o644); err != nil {
				b.Fatalf("write input: %v", err)
			}

			b.SetBytes(int64(cfg.size))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				res, err := Sort(context.Background(), path, cfg.cache)
				if err != nil {
					b.Fatalf("Sort: %v", err)
				}
				_ = res
			}
		})
	}
}

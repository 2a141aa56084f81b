package bytesort

import (
	"encoding/binary"
	"hash/fnv"
	randv2 "math/rand/v2"
	"os"
	"path/filepath"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *randv2.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return randv2.New(randv2.NewPCG(testSeed1^s1, testSeed2^s2))
}

// randomBytes returns n deterministic pseudo-random bytes from rng.
func randomBytes(rng *randv2.Rand, n int) []byte {
	buf := make([]byte, n)
	for i := 0; i+8 <= len(buf); i += 8 {
		binary.LittleEndian.PutUint64(buf[i:], rng.Uint64())
	}
	if tail := len(buf) % 8; tail > 0 {
		v := rng.Uint64()
		start := len(buf) - tail
		for j := 0; j < tail; j++ {
			buf[start+j] = byte(v >> (j * 8))
		}
	}
	return buf
}

// writeInputFile writes data to a fresh file under a per-test temp dir
// and returns its path.
func writeInputFile(t testing.TB, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write input file: %v", err)
	}
	return path
}

// byteHistogram counts occurrences of each byte value.
func byteHistogram(data []byte) [256]uint64 {
	var hist [256]uint64
	for _, b := range data {
		hist[b]++
	}
	return hist
}

// verifySortResult reads the output file and asserts it is a sorted
// permutation of input: same length, non-decreasing order, identical
// byte histogram.
func verifySortResult(t *testing.T, input []byte, outPath string) {
	t.Helper()
	out, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output file: %v", err)
	}
	if len(out) != len(input) {
		t.Fatalf("output length %d, want %d", len(out), len(input))
	}
	for i := 1; i < len(out); i++ {
		if out[i-1] > out[i] {
			t.Fatalf("output not sorted at offset %d: 0x%02x > 0x%02x", i-1, out[i-1], out[i])
		}
	}
	if byteHistogram(out) != byteHistogram(input) {
		t.Fatalf("output is not a permutation of the input")
	}
}

// mustNotExist fails the test if path exists.
func mustNotExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("%s should not exist (stat err: %v)", path, err)
	}
}

// expectedRuns returns ceil(fileLen/cacheSize).
func expectedRuns(fileLen, cacheSize uint64) uint64 {
	return (fileLen + cacheSize - 1) / cacheSize
}

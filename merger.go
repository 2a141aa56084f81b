package bytesort

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	bserrors "github.com/vmarkushin/bytesort/errors"
)

// merger streams the sorted runs in the scratch file back together into
// the output file in a single k-way pass.
//
// Each of the runs gets a sub-buffer of bufferSize = cacheSize/(runs+1)
// bytes, and one more sub-buffer of the same size collects the output,
// so total buffering stays within cacheSize no matter how large the
// input is. A run is consumed slice by slice: whenever its sub-buffer
// is drained, the next bufferSize-sized segment of the run is read from
// the scratch file at an absolute offset. All geometry (bufferSize,
// slice counts, last-run and last-slice remainders) is derived once at
// construction and never recomputed mid-merge.
type merger struct {
	cacheSize  uint64
	runs       uint64
	bufferSize uint64

	scratch *os.File
	out     *os.File
	digest  *xxhash.Digest // nil unless a checksum was requested

	// Per-run cursor state: the loaded slice, the read position within
	// it, and how many slices have been loaded so far.
	bufs   [][]byte // backing arrays, each bufferSize long
	heads  [][]byte // loaded slice views into bufs
	pos    []uint64
	loaded []uint64

	outBuf []byte

	// Slice geometry. The last run may be shorter than cacheSize, so it
	// has its own slice count and terminal slice length.
	slicesPerRun        uint64
	slicesPerLastRun    uint64
	lastSliceLen        uint64
	lastSliceLastRunLen uint64
}

// newMerger validates the memory budget against the run count and
// derives the merge geometry. fileLen and runs come from the run pass;
// the last run holds the remainder fileLen - (runs-1)*cacheSize.
//
// Returns ErrBudgetTooSmall when the budget cannot give every run plus
// the output at least one byte of buffering. That bounds a single-pass
// merge at roughly (cacheSize+1)² input bytes.
func newMerger(scratch, out *os.File, digest *xxhash.Digest, fileLen, cacheSize, runs uint64) (*merger, error) {
	maxRuns := cacheSize - 1
	if runs > maxRuns {
		return nil, fmt.Errorf("%w: %d runs from a %d byte file need a cache of at least %d bytes",
			bserrors.ErrBudgetTooSmall, runs, fileLen, runs+1)
	}

	// runs <= cacheSize-1 guarantees bufferSize >= 1.
	bufferSize := cacheSize / (runs + 1)
	lastRunLen := fileLen - (runs-1)*cacheSize
	slicesPerRun := ceilDiv(cacheSize, bufferSize)
	slicesPerLastRun := ceilDiv(lastRunLen, bufferSize)

	m := &merger{
		cacheSize:           cacheSize,
		runs:                runs,
		bufferSize:          bufferSize,
		scratch:             scratch,
		out:                 out,
		digest:              digest,
		bufs:                make([][]byte, runs),
		heads:               make([][]byte, runs),
		pos:                 make([]uint64, runs),
		loaded:              make([]uint64, runs),
		outBuf:              make([]byte, 0, bufferSize),
		slicesPerRun:        slicesPerRun,
		slicesPerLastRun:    slicesPerLastRun,
		lastSliceLen:        bufferSize - (slicesPerRun*bufferSize - cacheSize),
		lastSliceLastRunLen: bufferSize - (slicesPerLastRun*bufferSize - lastRunLen),
	}
	for i := range m.bufs {
		m.bufs[i] = make([]byte, bufferSize)
	}
	return m, nil
}

func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}

// slicesFor returns how many slices the given run is divided into.
func (m *merger) slicesFor(run int) uint64 {
	if uint64(run) == m.runs-1 {
		return m.slicesPerLastRun
	}
	return m.slicesPerRun
}

// sliceLen returns the length of the given slice of a run. All slices
// are bufferSize long except the terminal slice of each run, which
// holds the remainder.
func (m *merger) sliceLen(run int, slice uint64) uint64 {
	if slice != m.slicesFor(run)-1 {
		return m.bufferSize
	}
	if uint64(run) != m.runs-1 {
		return m.lastSliceLen
	}
	return m.lastSliceLastRunLen
}

// initBuffers loads the first slice of every run and resets its cursor.
func (m *merger) initBuffers() error {
	for i := range m.heads {
		if err := m.loadSlice(i); err != nil {
			return err
		}
	}
	return nil
}

// loadSlice refills run i's sub-buffer with its next slice, read from
// the scratch file at the run's absolute offset, and resets the cursor.
// The caller must have checked that the run has a slice remaining.
func (m *merger) loadSlice(i int) error {
	slice := m.loaded[i]
	n := m.sliceLen(i, slice)
	off := int64(uint64(i)*m.cacheSize + slice*m.bufferSize)

	buf := m.bufs[i][:n]
	if _, err := m.scratch.ReadAt(buf, off); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: run %d slice %d at offset %d", bserrors.ErrScratchTruncated, i, slice, off)
		}
		return fmt.Errorf("read run %d slice %d: %w", i, slice, err)
	}

	m.heads[i] = buf
	m.pos[i] = 0
	m.loaded[i]++
	return nil
}

// merge emits bytes until every run is exhausted: scan all run heads
// for the smallest available byte (ties to the lowest run index),
// append it to the output buffer, advance that run's cursor, and refill
// its sub-buffer when drained. The output buffer is flushed whenever it
// reaches bufferSize; the remainder is flushed at the end and the
// output is synced to stable storage.
func (m *merger) merge(ctx context.Context) error {
	emitted := 0
	for {
		emitted++
		if emitted >= contextCheckInterval {
			emitted = 0
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		minIdx := -1
		var minVal byte
		for i := range m.heads {
			if m.pos[i] >= uint64(len(m.heads[i])) {
				continue // run exhausted, never selected again
			}
			if b := m.heads[i][m.pos[i]]; minIdx < 0 || b < minVal {
				minIdx, minVal = i, b
			}
		}
		if minIdx < 0 {
			break // no run has an available byte left
		}

		m.outBuf = append(m.outBuf, minVal)
		m.pos[minIdx]++
		if m.pos[minIdx] >= uint64(len(m.heads[minIdx])) && m.loaded[minIdx] < m.slicesFor(minIdx) {
			if err := m.loadSlice(minIdx); err != nil {
				return err
			}
		}

		if uint64(len(m.outBuf)) == m.bufferSize {
			if err := m.flushOutput(); err != nil {
				return err
			}
		}
	}

	if err := m.flushOutput(); err != nil {
		return err
	}
	if err := m.out.Sync(); err != nil {
		return fmt.Errorf("sync output file: %w", err)
	}
	return nil
}

// flushOutput writes the buffered output bytes to the output file,
// folds them into the checksum digest, and clears the buffer.
func (m *merger) flushOutput() error {
	if len(m.outBuf) == 0 {
		return nil
	}
	if _, err := m.out.Write(m.outBuf); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if m.digest != nil {
		if _, err := m.digest.Write(m.outBuf); err != nil {
			panic("hash.Hash.Write returned unexpected error: " + err.Error())
		}
	}
	m.outBuf = m.outBuf[:0]
	return nil
}

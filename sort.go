package bytesort

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/cespare/xxhash/v2"
	bserrors "github.com/vmarkushin/bytesort/errors"
)

const (
	// contextCheckInterval is how often, in bytes processed, to check
	// for context cancellation inside the hot loops.
	contextCheckInterval = 1 << 16

	// scratchSuffix and outputSuffix are appended to the input path to
	// derive the default scratch and output file names.
	scratchSuffix = ".runs.tmp"
	outputSuffix  = ".sorted"
)

// Result describes a completed sort.
type Result struct {
	// OutputPath is the file holding the sorted bytes. For inputs that
	// are trivially sorted (zero or one byte long) it is the input path
	// itself and no new file is created.
	OutputPath string

	// Bytes is the total number of bytes sorted.
	Bytes uint64

	// Runs is the number of sorted runs the input was partitioned into.
	Runs uint64

	// Checksum is the xxhash of the sorted output. Only meaningful when
	// the sort ran with WithChecksum.
	Checksum uint64
}

// Sort sorts the byte content of the file at path using at most
// cacheSize bytes of buffering and returns where the sorted output
// landed.
//
// The input is first partitioned into sorted runs of cacheSize bytes
// in a scratch file, then the runs are merged in a single bounded-memory
// pass into the output file. Inputs of zero or one byte are returned
// as-is; inputs that fit in a single run skip the merge and promote the
// scratch file directly. The scratch file is deleted before Sort
// returns on every path, including errors.
//
// Sort fails with ErrBudgetTooSmall when cacheSize cannot give every
// run at least one byte of merge buffering (cacheSize < runs+1); the
// caller can retry with a larger budget. Any I/O failure aborts the
// whole invocation.
func Sort(ctx context.Context, path string, cacheSize uint64, opts ...Option) (*Result, error) {
	if cacheSize == 0 {
		return nil, bserrors.ErrZeroBudget
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	scratchPath := cfg.scratchPath
	if scratchPath == "" {
		scratchPath = path + scratchSuffix
	}
	outPath := cfg.outputPath
	if outPath == "" {
		outPath = path + outputSuffix
	}

	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer in.Close()

	stat, err := in.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat input file: %w", err)
	}
	fadviseSequential(int(in.Fd()), 0, stat.Size())

	f, err := os.OpenFile(scratchPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	sf := &scratchFile{f: f, path: scratchPath}
	// The scratch file never outlives the invocation, whichever way it
	// ends. Removal failures are swallowed so they can't mask the
	// primary result or error.
	defer sf.cleanup()

	// Pre-allocate disk blocks so the run pass cannot die halfway
	// through on a full disk. Stat is a sizing hint only; the read loop
	// below is authoritative for the actual length.
	if size := stat.Size(); size > 0 {
		if err := fallocateFile(sf.f, size); err != nil {
			return nil, fmt.Errorf("pre-allocate scratch file: %w", err)
		}
	}

	var digest *xxhash.Digest
	if cfg.checksum {
		digest = xxhash.New()
	}

	fileLen, runs, err := writeRuns(ctx, in, sf.f, cacheSize, digest)
	if err != nil {
		return nil, err
	}

	res := &Result{Bytes: fileLen, Runs: runs}

	// Zero- or one-byte inputs are already sorted: hand back the input
	// path untouched and let the deferred cleanup discard the scratch.
	if fileLen <= 1 {
		res.OutputPath = path
		if digest != nil {
			res.Checksum = digest.Sum64()
		}
		return res, nil
	}

	// A single run already is the fully sorted result; promote the
	// scratch file to the output path instead of merging.
	if runs == 1 {
		// The pre-allocation may have left the scratch longer than the
		// data actually read; shrink to the real length first.
		if err := sf.f.Truncate(int64(fileLen)); err != nil {
			return nil, fmt.Errorf("truncate scratch file: %w", err)
		}
		if err := sf.f.Sync(); err != nil {
			return nil, fmt.Errorf("sync scratch file: %w", err)
		}
		if err := sf.close(); err != nil {
			return nil, fmt.Errorf("close scratch file: %w", err)
		}
		if err := os.Rename(scratchPath, outPath); err != nil {
			return nil, fmt.Errorf("promote scratch file: %w", err)
		}
		sf.promoted = true
		res.OutputPath = outPath
		if digest != nil {
			res.Checksum = digest.Sum64()
		}
		return res, nil
	}

	// The merge path hashes output flushes instead of whole runs.
	if digest != nil {
		digest.Reset()
	}

	out, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	if err := fallocateFile(out, int64(fileLen)); err != nil {
		primaryErr := fmt.Errorf("pre-allocate output file: %w", err)
		return nil, errors.Join(primaryErr, out.Close(), os.Remove(outPath))
	}

	m, err := newMerger(sf.f, out, digest, fileLen, cacheSize, runs)
	if err != nil {
		return nil, errors.Join(err, out.Close(), os.Remove(outPath))
	}
	if err := m.initBuffers(); err != nil {
		return nil, errors.Join(err, out.Close(), os.Remove(outPath))
	}
	if err := m.merge(ctx); err != nil {
		return nil, errors.Join(err, out.Close(), os.Remove(outPath))
	}
	if err := out.Close(); err != nil {
		primaryErr := fmt.Errorf("close output file: %w", err)
		return nil, errors.Join(primaryErr, os.Remove(outPath))
	}

	res.OutputPath = outPath
	if digest != nil {
		res.Checksum = digest.Sum64()
	}
	return res, nil
}

// writeRuns streams the input through a single cacheSize buffer,
// sorting each chunk in place and appending it to the scratch file as a
// sorted run. Every run except possibly the last is exactly cacheSize
// bytes; memory use is bounded by cacheSize regardless of input size.
//
// When digest is non-nil it is reset at every run boundary, so for
// inputs that never reach the merge phase it ends up holding the hash
// of the run that becomes the output.
func writeRuns(ctx context.Context, in io.Reader, scratch io.Writer, cacheSize uint64, digest *xxhash.Digest) (fileLen, runs uint64, err error) {
	buf := make([]byte, cacheSize)
	for {
		select {
		case <-ctx.Done():
			return fileLen, runs, ctx.Err()
		default:
		}

		n, rerr := io.ReadFull(in, buf)
		if rerr == io.EOF {
			return fileLen, runs, nil
		}
		if rerr != nil && rerr != io.ErrUnexpectedEOF {
			return fileLen, runs, fmt.Errorf("read input: %w", rerr)
		}

		chunk := buf[:n]
		slices.Sort(chunk)
		if _, werr := scratch.Write(chunk); werr != nil {
			return fileLen, runs, fmt.Errorf("write run: %w", werr)
		}
		if digest != nil {
			digest.Reset()
			if _, derr := digest.Write(chunk); derr != nil {
				panic("hash.Hash.Write returned unexpected error: " + derr.Error())
			}
		}

		fileLen += uint64(n)
		runs++

		// A short chunk means end of input; the final run may be
		// shorter than cacheSize.
		if rerr == io.ErrUnexpectedEOF {
			return fileLen, runs, nil
		}
	}
}

// scratchFile tracks the transient run file so it can be removed on
// every exit path exactly once.
type scratchFile struct {
	f        *os.File
	path     string
	promoted bool // renamed to the output path; nothing left to remove
}

// close closes the underlying file. Idempotent.
func (s *scratchFile) close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// cleanup closes and removes the scratch file. Idempotent: safe to call
// multiple times, and a missing file is not an error.
func (s *scratchFile) cleanup() error {
	err := s.close()
	if s.promoted || s.path == "" {
		return err
	}
	if rerr := os.Remove(s.path); rerr != nil && !os.IsNotExist(rerr) {
		err = errors.Join(err, rerr)
	}
	s.path = ""
	return err
}

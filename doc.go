// Package bytesort sorts the byte content of arbitrarily large files
// using a fixed, caller-supplied memory budget.
//
// The input is treated as a plain byte sequence, not lines or records:
// the output is a permutation of the input bytes in non-decreasing
// order. Sorting happens in two passes. The first pass streams the
// input through a single cacheSize buffer, sorting each chunk in place
// and appending it to a scratch file as a sorted run. The second pass
// merges all runs back together in one k-way pass, giving each run a
// sub-buffer of cacheSize/(runs+1) bytes plus one more for the output,
// so total buffering never exceeds the budget regardless of input size.
// The scratch file is deleted before Sort returns, on every exit path.
//
// # Basic Usage
//
// Sorting a file:
//
//	res, err := bytesort.Sort(ctx, "big_file.bin", 64<<20)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("sorted output:", res.OutputPath)
//
// Files of zero or one byte are already sorted; Sort returns the input
// path unchanged and creates no new file.
//
// Checking a result:
//
//	if err := bytesort.VerifySorted(res.OutputPath); err != nil {
//	    log.Fatal(err)
//	}
//
// # Limits
//
// A single merge pass caps the sortable input size at roughly
// (cacheSize+1)² bytes: the budget must admit at least one byte of
// buffering per run plus one for the output. Sort returns
// ErrBudgetTooSmall when the run count implied by the input size
// exceeds cacheSize-1; callers can retry with a larger budget.
// Inputs beyond the single-pass cap would need a multi-level merge,
// which this package does not implement.
//
// # Package Structure
//
// The implementation is organized as follows:
//
//   - Public API: sort.go (Sort, Result), verify.go (VerifySorted)
//   - Configuration: options.go (Option, With* functions)
//   - Merge engine: merger.go (sub-buffer geometry, k-way merge loop)
//   - Errors: errors/ (exported sentinels)
//   - Platform: fallocate_*.go, fadvise_*.go (OS-specific optimizations)
package bytesort

//go:build !linux && !darwin

package bytesort

import "os"

// fallocateFile pre-allocates disk blocks for the scratch and output
// files so a full disk surfaces before the sort starts writing.
// On platforms without native fallocate, uses Truncate as a fallback.
// Note: This sets file size but may not reserve actual disk blocks on all filesystems.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}

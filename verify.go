package bytesort

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	bserrors "github.com/vmarkushin/bytesort/errors"
)

// VerifySorted checks that the file at path is sorted in non-decreasing
// byte order. It memory-maps the file read-only and scans adjacent
// bytes; the first violation is reported as ErrNotSorted with the
// offending offset. Files of zero or one byte are trivially sorted.
func VerifySorted(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if stat.Size() <= 1 {
		return nil
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return fmt.Errorf("mmap file: %w", err)
	}
	defer mm.Unmap()

	data := []byte(mm)
	for i := 1; i < len(data); i++ {
		if data[i-1] > data[i] {
			return fmt.Errorf("%w: byte 0x%02x precedes 0x%02x at offset %d",
				bserrors.ErrNotSorted, data[i-1], data[i], i-1)
		}
	}
	return nil
}

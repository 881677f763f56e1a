package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// DiskUsage returns the bytes occupied by the files backing s. Files not written yet count as zero.
func DiskUsage(s Store) (int64, error) {
	var total int64
	for _, p := range s.Paths() {
		info, err := os.Stat(p)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			return 0, fmt.Errorf("failed to stat %s: %w", p, err)
		case info.Mode().IsRegular():
			total += info.Size()
		}
	}
	return total, nil
}

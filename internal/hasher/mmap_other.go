//go:build !darwin && !linux

package hasher

import (
	"os"
)

// hashMapped falls back to streaming on platforms without a ported
// mmap path. The digest is identical either way.
func hashMapped(f *os.File, size int64) (string, error) {
	return hashStream(f)
}

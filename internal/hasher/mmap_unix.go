//go:build darwin || linux

package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"runtime/debug"

	"golang.org/x/sys/unix"
)

// hashMapped maps the whole file read-only and feeds the mapped region
// to the digest in one call.
func hashMapped(f *os.File, size int64) (digest string, err error) {
	data, mmapErr := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if mmapErr != nil {
		return "", fmt.Errorf("failed to memory-map %s: %w", f.Name(), mmapErr)
	}
	defer func() { _ = unix.Munmap(data) }()

	// A concurrent truncate by another process would fault the mapping
	// (SIGBUS). Convert that to an error instead of crashing.
	old := debug.SetPanicOnFault(true)
	defer func() {
		debug.SetPanicOnFault(old)
		if r := recover(); r != nil {
			err = fmt.Errorf("page fault hashing %s: %v", f.Name(), r)
		}
	}()

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

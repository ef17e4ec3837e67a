// Package hasher computes content digests for files on disk.
//
// The digest is SHA-256 over the file bytes only (path, name and
// metadata never influence it), hex-encoded lowercase, 64 characters.
// Files above a size threshold are hashed through a read-only memory
// map to avoid a user-space copy; everything else streams through a
// small buffer. Both strategies produce identical digests for
// identical bytes.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const (
	// DefaultMmapThreshold is the file size above which hashing goes
	// through a memory map instead of buffered reads.
	DefaultMmapThreshold = 500 << 20 // 500 MiB

	// readBufferSize balances syscall count against memory footprint.
	readBufferSize = 8 * 1024
)

// Hasher computes file content digests. The zero value uses
// DefaultMmapThreshold; lower it in tests to exercise the mapped path
// without gigabyte fixtures.
type Hasher struct {
	// MmapThreshold is the file size in bytes above which the file is
	// memory-mapped. Zero selects DefaultMmapThreshold.
	MmapThreshold int64
}

// New returns a Hasher with default settings.
func New() *Hasher {
	return &Hasher{MmapThreshold: DefaultMmapThreshold}
}

// HashFile returns the lowercase hex SHA-256 digest of the file's
// content. Any I/O error is returned as-is for the caller to treat as a
// per-file condition.
//
// The memory-mapped path offers no protection against the file being
// truncated concurrently by another process; on Linux that surfaces as
// a fault which is converted to an error, not a crash.
func (h *Hasher) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	threshold := h.MmapThreshold
	if threshold <= 0 {
		threshold = DefaultMmapThreshold
	}

	if info.Size() > threshold {
		return hashMapped(f, info.Size())
	}
	return hashStream(f)
}

// hashStream feeds the file through a fixed-size buffer.
func hashStream(r io.Reader) (string, error) {
	digest := sha256.New()
	buf := make([]byte, readBufferSize)
	if _, err := io.CopyBuffer(digest, r, buf); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

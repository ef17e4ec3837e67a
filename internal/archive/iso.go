// Package archive builds ISO images of ingested trees via xorriso.
package archive

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// fallbackEpoch pins file timestamps in the image when the caller has
// not set SOURCE_DATE_EPOCH (2024-01-01T00:00:00Z).
const fallbackEpoch = "1704067200"

// VolumeID is the volume identifier stamped on created images.
const VolumeID = "DEEP_ARCHIVE"

// CreateISO writes sourceDir to an ISO-9660 image at outputPath with
// Rock Ridge and Joliet extensions. SOURCE_DATE_EPOCH is honored when
// set and pinned otherwise, so identical trees produce identical
// images.
func CreateISO(ctx context.Context, sourceDir, outputPath string) error {
	cmd := exec.CommandContext(ctx, "xorriso",
		"-as", "mkisofs",
		"-o", outputPath,
		"-R",
		"-J",
		"-V", VolumeID,
		sourceDir,
	)

	cmd.Env = os.Environ()
	if os.Getenv("SOURCE_DATE_EPOCH") == "" {
		cmd.Env = append(cmd.Env, "SOURCE_DATE_EPOCH="+fallbackEpoch)
	}
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("xorriso failed (is it installed?): %w", err)
	}
	return nil
}

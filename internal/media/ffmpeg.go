package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

const (
	// FrameEdge is the width and height of a sampled frame.
	FrameEdge = 224

	// FrameBytes is the size of one packed RGB24 frame.
	FrameBytes = FrameEdge * FrameEdge * 3
)

// ExtractFrames runs ffmpeg over the input, sampling one frame every
// five seconds of media, scaled to FrameEdge square, and returns the
// concatenated packed RGB24 frames from stdout. Still images yield a
// single frame. Fails when the input is not decodable media or ffmpeg
// exits non-zero.
//
// The call blocks until ffmpeg finishes; a cancelled context kills the
// child process.
func ExtractFrames(ctx context.Context, path string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-vf", fmt.Sprintf("fps=1/5,scale=%d:%d", FrameEdge, FrameEdge),
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	)

	var out bytes.Buffer
	cmd.Stdout = &out
	// Stderr deliberately discarded; ffmpeg is chatty even on success.

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed for %s: %w", path, err)
	}
	return out.Bytes(), nil
}

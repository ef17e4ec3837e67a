package media

import (
	"fmt"
	"image"
)

// FrameFromRaw reconstructs an image from a packed RGB24 buffer as
// produced by ExtractFrames. When the buffer holds more than one
// sampled frame, only the first is used.
func FrameFromRaw(raw []byte) (image.Image, error) {
	if len(raw) < FrameBytes {
		return nil, fmt.Errorf("raw frame buffer too short: got %d bytes, need %d", len(raw), FrameBytes)
	}

	img := image.NewNRGBA(image.Rect(0, 0, FrameEdge, FrameEdge))
	for y := 0; y < FrameEdge; y++ {
		for x := 0; x < FrameEdge; x++ {
			src := (y*FrameEdge + x) * 3
			dst := img.PixOffset(x, y)
			img.Pix[dst] = raw[src]
			img.Pix[dst+1] = raw[src+1]
			img.Pix[dst+2] = raw[src+2]
			img.Pix[dst+3] = 0xff
		}
	}
	return img, nil
}

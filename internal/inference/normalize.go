package inference

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

const (
	// SafetyInputEdge is the square input size of the safety classifier.
	SafetyInputEdge = 224

	// TaggerInputEdge is the square input size of the tagger.
	TaggerInputEdge = 448
)

// Tensor is a dense float32 tensor in NCHW layout.
type Tensor struct {
	Data  []float32
	Shape [4]int
}

// NormalizeForSafety resizes the image to SafetyInputEdge square and
// maps each channel value from [0, 255] to [-1, 1] (scale to [0, 1],
// subtract 0.5, divide by 0.5).
func NormalizeForSafety(img image.Image) (*Tensor, error) {
	resized, err := resizeSquare(img, SafetyInputEdge)
	if err != nil {
		return nil, err
	}
	return toCHW(resized, SafetyInputEdge, func(v uint8) float32 {
		return (float32(v)/255.0 - 0.5) / 0.5
	}), nil
}

// NormalizeForTagger resizes the image to TaggerInputEdge square and
// scales each channel value to [0, 1]. No mean/variance shift.
func NormalizeForTagger(img image.Image) (*Tensor, error) {
	resized, err := resizeSquare(img, TaggerInputEdge)
	if err != nil {
		return nil, err
	}
	return toCHW(resized, TaggerInputEdge, func(v uint8) float32 {
		return float32(v) / 255.0
	}), nil
}

func resizeSquare(img image.Image, edge int) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("cannot normalize empty image %v", bounds)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, edge, edge))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst, nil
}

// toCHW converts an NRGBA image to a 1x3xHxW tensor, applying the
// per-channel value transform.
func toCHW(img *image.NRGBA, edge int, transform func(uint8) float32) *Tensor {
	plane := edge * edge
	data := make([]float32, 3*plane)
	for y := 0; y < edge; y++ {
		for x := 0; x < edge; x++ {
			off := img.PixOffset(x, y)
			idx := y*edge + x
			data[idx] = transform(img.Pix[off])
			data[plane+idx] = transform(img.Pix[off+1])
			data[2*plane+idx] = transform(img.Pix[off+2])
		}
	}
	return &Tensor{Data: data, Shape: [4]int{1, 3, edge, edge}}
}

package brand

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

var ErrImageDecode = errors.New("cannot decode image")

// Variant names one of the two pre-rendered watermark overlays.
type Variant string

const (
	VariantWhite Variant = "white-watermark"
	VariantBlack Variant = "black-watermark"
)

// Side length of the sample grid the dominant-color histogram runs over.
// Downsampling first keeps the statistic cheap and independent of input size.
const sampleSize = 64

// SelectVariant computes the dominant color of the image, derives its
// luminance and picks the contrasting watermark: white on dark backgrounds,
// black on light ones. Deterministic for identical pixel data.
func SelectVariant(src []byte) (Variant, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	r, g, b := dominantColor(img)
	luminance := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255
	if luminance < 0.5 {
		return VariantWhite, nil
	}
	return VariantBlack, nil
}

// dominantColor reports the mean RGB of the most populated 5-bit-per-channel
// histogram bucket over a fixed downsampled grid. Ties resolve to the lowest
// bucket index so the result never depends on iteration order.
func dominantColor(img image.Image) (uint8, uint8, uint8) {
	grid := image.NewRGBA(image.Rect(0, 0, sampleSize, sampleSize))
	xdraw.ApproxBiLinear.Scale(grid, grid.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	const buckets = 32 * 32 * 32
	counts := make([]int, buckets)
	sumR := make([]uint64, buckets)
	sumG := make([]uint64, buckets)
	sumB := make([]uint64, buckets)

	for y := 0; y < sampleSize; y++ {
		for x := 0; x < sampleSize; x++ {
			offset := grid.PixOffset(x, y)
			r := grid.Pix[offset]
			g := grid.Pix[offset+1]
			b := grid.Pix[offset+2]

			bucket := int(r>>3)<<10 | int(g>>3)<<5 | int(b>>3)
			counts[bucket]++
			sumR[bucket] += uint64(r)
			sumG[bucket] += uint64(g)
			sumB[bucket] += uint64(b)
		}
	}

	best := 0
	for i := 1; i < buckets; i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	if counts[best] == 0 {
		return 0, 0, 0
	}

	n := uint64(counts[best])
	return uint8(sumR[best] / n), uint8(sumG[best] / n), uint8(sumB[best] / n)
}

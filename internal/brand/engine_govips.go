//go:build govips && cgo

package brand

import (
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
)

type govipsEngine struct{}

func (govipsEngine) Fit(src []byte, maxW, maxH int) ([]byte, error) {
	img, err := vips.NewImageFromBuffer(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	defer img.Close()

	scaleW := float64(maxW) / float64(img.Width())
	scaleH := float64(maxH) / float64(img.Height())
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	if scale >= 1 {
		// Already inside the box; never upscale.
		return src, nil
	}

	if err := img.Resize(scale, vips.KernelLanczos3); err != nil {
		return nil, fmt.Errorf("resize image: %w", err)
	}
	return exportLike(img, src)
}

func (govipsEngine) Dimensions(src []byte) (int, int, error) {
	img, err := vips.NewImageFromBuffer(src)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	defer img.Close()
	return img.Width(), img.Height(), nil
}

func (govipsEngine) Overlay(base, mark []byte, left, top int) ([]byte, error) {
	baseImg, err := vips.NewImageFromBuffer(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	defer baseImg.Close()

	markImg, err := vips.NewImageFromBuffer(mark)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	defer markImg.Close()

	// vips composites only inside the canvas, so trim any part of the mark
	// that would land past the top-left edge and clamp the offsets.
	cropX, cropY := 0, 0
	if left < 0 {
		cropX = -left
		left = 0
	}
	if top < 0 {
		cropY = -top
		top = 0
	}
	if cropX >= markImg.Width() || cropY >= markImg.Height() ||
		left >= baseImg.Width() || top >= baseImg.Height() {
		// Mark falls fully outside the canvas; nothing to stamp.
		return exportLike(baseImg, base)
	}
	if cropX > 0 || cropY > 0 {
		if err := markImg.ExtractArea(cropX, cropY, markImg.Width()-cropX, markImg.Height()-cropY); err != nil {
			return nil, fmt.Errorf("clip watermark: %w", err)
		}
	}

	if err := baseImg.Composite(markImg, vips.BlendModeOver, left, top); err != nil {
		return nil, fmt.Errorf("composite watermark: %w", err)
	}
	return exportLike(baseImg, base)
}

// exportLike encodes the image in the same format the source bytes carried.
func exportLike(img *vips.ImageRef, src []byte) ([]byte, error) {
	switch vips.DetermineImageType(src) {
	case vips.ImageTypeJPEG:
		data, _, err := img.ExportJpeg(vips.NewJpegExportParams())
		if err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		return data, nil
	case vips.ImageTypeGIF:
		data, _, err := img.ExportGIF(vips.NewGifExportParams())
		if err != nil {
			return nil, fmt.Errorf("encode gif: %w", err)
		}
		return data, nil
	default:
		data, _, err := img.ExportPng(vips.NewPngExportParams())
		if err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
		return data, nil
	}
}

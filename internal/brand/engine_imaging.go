package brand

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// imagingEngine is the pure-Go pixel engine. It is always compiled so tests
// and non-cgo builds share one code path; vips builds swap it out at startup.
type imagingEngine struct{}

func (imagingEngine) Fit(src []byte, maxW, maxH int) ([]byte, error) {
	img, format, err := decodeWithFormat(src)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxW && bounds.Dy() <= maxH {
		// Already inside the box; never upscale.
		return src, nil
	}

	fitted := imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	return encode(fitted, format)
}

func (imagingEngine) Dimensions(src []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return cfg.Width, cfg.Height, nil
}

func (imagingEngine) Overlay(base, mark []byte, left, top int) ([]byte, error) {
	baseImg, format, err := decodeWithFormat(base)
	if err != nil {
		return nil, err
	}
	markImg, _, err := decodeWithFormat(mark)
	if err != nil {
		return nil, err
	}

	// imaging.Overlay intersects the mark with the canvas, so offsets that
	// run past any edge are clipped rather than rejected.
	composited := imaging.Overlay(baseImg, markImg, image.Pt(left, top), 1.0)
	return encode(composited, format)
}

func decodeWithFormat(src []byte) (image.Image, imaging.Format, error) {
	img, name, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	switch name {
	case "jpeg":
		return img, imaging.JPEG, nil
	case "png":
		return img, imaging.PNG, nil
	case "gif":
		return img, imaging.GIF, nil
	default:
		return nil, 0, fmt.Errorf("%w: unsupported format %s", ErrImageDecode, name)
	}
}

func encode(img image.Image, format imaging.Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

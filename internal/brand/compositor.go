package brand

import (
	"context"
	"fmt"

	"github.com/dunamismax/brandflow/internal/config"
)

// engine performs the pixel work. The default implementation sits on
// disintegration/imaging; a libvips implementation is selected by the
// govips build tag.
type engine interface {
	// Fit scales the image down to fit inside maxW x maxH, preserving aspect
	// ratio and never upscaling. Output keeps the source encoding.
	Fit(src []byte, maxW, maxH int) ([]byte, error)
	// Dimensions reports pixel width and height without a full decode
	// where the engine allows it.
	Dimensions(src []byte) (int, int, error)
	// Overlay composites mark onto base at (left, top). Mark pixels falling
	// outside the canvas are clipped. Output keeps the base encoding.
	Overlay(base, mark []byte, left, top int) ([]byte, error)
}

// Compositor resizes an image into the branding bounding box and stamps the
// luminance-selected watermark near the bottom-right corner.
type Compositor struct {
	assets   *AssetCache
	eng      engine
	whiteKey string
	blackKey string
	boxW     int
	boxH     int
}

func NewCompositor(assets *AssetCache, cfg config.BrandConfig) (*Compositor, error) {
	eng, err := newEngine()
	if err != nil {
		return nil, fmt.Errorf("build compositor engine: %w", err)
	}

	boxW, boxH := cfg.BoxWidth, cfg.BoxHeight
	if boxW <= 0 {
		boxW = 1400
	}
	if boxH <= 0 {
		boxH = 1400
	}

	return &Compositor{
		assets:   assets,
		eng:      eng,
		whiteKey: cfg.WatermarkWhiteKey,
		blackKey: cfg.WatermarkBlackKey,
		boxW:     boxW,
		boxH:     boxH,
	}, nil
}

// Brand runs the full resize-select-composite pass for one image and returns
// the branded bytes in the source encoding.
func (c *Compositor) Brand(ctx context.Context, src []byte) ([]byte, error) {
	resized, err := c.eng.Fit(src, c.boxW, c.boxH)
	if err != nil {
		return nil, fmt.Errorf("fit image: %w", err)
	}

	// Variant selection runs on the resized pixel data, as the watermark
	// contrasts against what ends up in the output.
	variant, err := SelectVariant(resized)
	if err != nil {
		return nil, err
	}

	markKey := c.blackKey
	if variant == VariantWhite {
		markKey = c.whiteKey
	}
	mark, err := c.assets.Get(ctx, markKey)
	if err != nil {
		return nil, fmt.Errorf("fetch watermark %s: %w", markKey, err)
	}

	imageW, imageH, err := c.eng.Dimensions(resized)
	if err != nil {
		return nil, err
	}
	markW, markH, err := c.eng.Dimensions(mark)
	if err != nil {
		return nil, err
	}

	left, top := Placement(variant, imageW, imageH, markW, markH)
	branded, err := c.eng.Overlay(resized, mark, left, top)
	if err != nil {
		return nil, fmt.Errorf("composite watermark: %w", err)
	}
	return branded, nil
}

// Placement anchors the watermark near the bottom-right corner with a fixed
// outward bleed, then applies the per-variant correction the overlay assets
// were drawn for.
func Placement(variant Variant, imageW, imageH, markW, markH int) (left, top int) {
	left = imageW - markW + 25
	top = imageH - markH + 45

	switch variant {
	case VariantWhite:
		left -= 30
		top -= 40
	case VariantBlack:
		top -= 50
	}
	return left, top
}

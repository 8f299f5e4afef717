package brand

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/dunamismax/brandflow/internal/config"
)

func testBrandConfig() config.BrandConfig {
	return config.BrandConfig{
		WatermarkWhiteKey: "watermarks/white.png",
		WatermarkBlackKey: "watermarks/black.png",
		BoxWidth:          1400,
		BoxHeight:         1400,
	}
}

func markFetcher(t *testing.T, fetched *[]string) Fetcher {
	t.Helper()
	mark := fillPNG(t, 40, 20, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	return func(_ context.Context, key string) ([]byte, error) {
		if fetched != nil {
			*fetched = append(*fetched, key)
		}
		return mark, nil
	}
}

func TestFitShrinksIntoBoundingBox(t *testing.T) {
	eng := imagingEngine{}
	src := fillPNG(t, 2800, 1400, color.NRGBA{R: 30, G: 30, B: 30, A: 255})

	fitted, err := eng.Fit(src, 1400, 1400)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	w, h, err := eng.Dimensions(fitted)
	if err != nil {
		t.Fatalf("dimensions: %v", err)
	}
	if w > 1400 || h > 1400 {
		t.Fatalf("fit exceeded bounding box: %dx%d", w, h)
	}
	if w != 1400 || h != 700 {
		t.Fatalf("expected 1400x700 with aspect preserved, got %dx%d", w, h)
	}
}

func TestFitNeverUpscales(t *testing.T) {
	eng := imagingEngine{}
	src := fillPNG(t, 320, 200, color.NRGBA{R: 30, G: 30, B: 30, A: 255})

	fitted, err := eng.Fit(src, 1400, 1400)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if !bytes.Equal(fitted, src) {
		t.Fatal("expected already-fitting image to pass through unchanged")
	}
}

func TestOverlayClipsOutOfCanvasPixels(t *testing.T) {
	eng := imagingEngine{}
	base := fillPNG(t, 100, 100, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
	mark := fillPNG(t, 40, 40, color.NRGBA{R: 255, G: 0, B: 0, A: 255})

	// Offsets push the mark past the bottom-right corner.
	out, err := eng.Overlay(base, mark, 90, 90)
	if err != nil {
		t.Fatalf("overlay: %v", err)
	}

	w, h, err := eng.Dimensions(out)
	if err != nil {
		t.Fatalf("dimensions: %v", err)
	}
	if w != 100 || h != 100 {
		t.Fatalf("overlay changed canvas size to %dx%d", w, h)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode composited image: %v", err)
	}
	r, _, _, _ := img.At(95, 95).RGBA()
	if r>>8 < 200 {
		t.Fatalf("expected mark pixels inside the canvas, got r=%d", r>>8)
	}
}

func TestPlacementOffsets(t *testing.T) {
	baseLeft := 1000 - 40 + 25
	baseTop := 800 - 20 + 45

	left, top := Placement(VariantWhite, 1000, 800, 40, 20)
	if left != baseLeft-30 || top != baseTop-40 {
		t.Fatalf("white placement: got (%d,%d), want (%d,%d)", left, top, baseLeft-30, baseTop-40)
	}

	left, top = Placement(VariantBlack, 1000, 800, 40, 20)
	if left != baseLeft || top != baseTop-50 {
		t.Fatalf("black placement: got (%d,%d), want (%d,%d)", left, top, baseLeft, baseTop-50)
	}
}

func TestBrandDarkImageUsesWhiteMark(t *testing.T) {
	var fetched []string
	compositor, err := NewCompositor(NewAssetCache(markFetcher(t, &fetched)), testBrandConfig())
	if err != nil {
		t.Fatalf("new compositor: %v", err)
	}

	src := fillPNG(t, 600, 400, color.NRGBA{R: 15, G: 15, B: 25, A: 255})
	branded, err := compositor.Brand(context.Background(), src)
	if err != nil {
		t.Fatalf("brand: %v", err)
	}

	if len(fetched) != 1 || fetched[0] != "watermarks/white.png" {
		t.Fatalf("expected white watermark fetch, got %v", fetched)
	}
	if bytes.Equal(branded, src) {
		t.Fatal("expected branded output to differ from source")
	}

	w, h, err := imagingEngine{}.Dimensions(branded)
	if err != nil {
		t.Fatalf("dimensions: %v", err)
	}
	if w != 600 || h != 400 {
		t.Fatalf("branding resized an already-fitting image to %dx%d", w, h)
	}
}

func TestBrandLightImageUsesBlackMark(t *testing.T) {
	var fetched []string
	compositor, err := NewCompositor(NewAssetCache(markFetcher(t, &fetched)), testBrandConfig())
	if err != nil {
		t.Fatalf("new compositor: %v", err)
	}

	src := fillPNG(t, 600, 400, color.NRGBA{R: 245, G: 245, B: 240, A: 255})
	if _, err := compositor.Brand(context.Background(), src); err != nil {
		t.Fatalf("brand: %v", err)
	}
	if len(fetched) != 1 || fetched[0] != "watermarks/black.png" {
		t.Fatalf("expected black watermark fetch, got %v", fetched)
	}
}

func TestBrandRejectsUndecodableInput(t *testing.T) {
	compositor, err := NewCompositor(NewAssetCache(markFetcher(t, nil)), testBrandConfig())
	if err != nil {
		t.Fatalf("new compositor: %v", err)
	}

	_, err = compositor.Brand(context.Background(), []byte("garbage"))
	if !errors.Is(err, ErrImageDecode) {
		t.Fatalf("expected ErrImageDecode, got %v", err)
	}
}

func TestAssetCacheFetchesOnce(t *testing.T) {
	calls := 0
	cache := NewAssetCache(func(_ context.Context, key string) ([]byte, error) {
		calls++
		return []byte("mark:" + key), nil
	})

	for i := 0; i < 5; i++ {
		data, err := cache.Get(context.Background(), "watermarks/white.png")
		if err != nil {
			t.Fatalf("cache get: %v", err)
		}
		if string(data) != "mark:watermarks/white.png" {
			t.Fatalf("unexpected cached bytes: %q", data)
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single fetch, got %d", calls)
	}
}

func TestAssetCacheDoesNotCacheFailures(t *testing.T) {
	calls := 0
	cache := NewAssetCache(func(_ context.Context, _ string) ([]byte, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("store unavailable")
		}
		return []byte("recovered"), nil
	})

	if _, err := cache.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected first fetch to fail")
	}
	data, err := cache.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if string(data) != "recovered" {
		t.Fatalf("unexpected bytes after retry: %q", data)
	}
}

package imaging

import (
	"image"
	"image/color"
	"testing"
)

// gradientImage builds a horizontal color gradient for transform tests.
func gradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: uint8((x + y) * 255 / (width + height)),
				A: 255,
			})
		}
	}
	return img
}

func TestGrayscaleIsMonochrome(t *testing.T) {
	out, err := Grayscale(gradientImage(64, 64), DefaultContrastBoost)
	if err != nil {
		t.Fatalf("Grayscale failed: %v", err)
	}

	bounds := out.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := rgba8(out.At(x, y))
			if r != g || g != b {
				t.Fatalf("pixel (%d,%d) not monochrome: %d %d %d", x, y, r, g, b)
			}
			if a != 255 {
				t.Fatalf("alpha changed at (%d,%d): %d", x, y, a)
			}
		}
	}
}

func TestGrayscaleContrastPivotsAtMidpoint(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 50, G: 50, B: 50, A: 255})

	out, err := Grayscale(img, 1.2)
	if err != nil {
		t.Fatalf("Grayscale failed: %v", err)
	}

	bright, _, _, _ := rgba8(out.At(0, 0))
	dark, _, _, _ := rgba8(out.At(1, 0))
	if bright <= 200 {
		t.Errorf("bright pixel should move away from midpoint: %d", bright)
	}
	if dark >= 50 {
		t.Errorf("dark pixel should move away from midpoint: %d", dark)
	}
}

func TestGrayscaleRejectsNegativeContrast(t *testing.T) {
	if _, err := Grayscale(gradientImage(4, 4), -1); err == nil {
		t.Fatal("expected error for negative contrast")
	}
}

func TestSepiaZeroIntensityIsGrayscale(t *testing.T) {
	out, err := Sepia(gradientImage(32, 32), 0)
	if err != nil {
		t.Fatalf("Sepia failed: %v", err)
	}
	bounds := out.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := rgba8(out.At(x, y))
			if r != g || g != b {
				t.Fatalf("intensity 0 should be untinted at (%d,%d): %d %d %d", x, y, r, g, b)
			}
		}
	}
}

func TestSepiaFullIntensityWarmOrdering(t *testing.T) {
	out, err := Sepia(gradientImage(32, 32), 1)
	if err != nil {
		t.Fatalf("Sepia failed: %v", err)
	}
	bounds := out.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := rgba8(out.At(x, y))
			if r < g || g < b {
				t.Fatalf("warm ordering violated at (%d,%d): R=%d G=%d B=%d", x, y, r, g, b)
			}
		}
	}
}

func TestSepiaRejectsOutOfRangeIntensity(t *testing.T) {
	for _, intensity := range []float64{-0.1, 1.1} {
		if _, err := Sepia(gradientImage(4, 4), intensity); err == nil {
			t.Errorf("expected error for intensity %.1f", intensity)
		}
	}
}

func TestApplyStyle(t *testing.T) {
	src := gradientImage(16, 16)

	bw, err := ApplyStyle(src, "BW")
	if err != nil {
		t.Fatalf("BW failed: %v", err)
	}
	r, g, b, _ := rgba8(bw.At(8, 8))
	if r != g || g != b {
		t.Error("BW output should be monochrome")
	}

	if passthrough, _ := ApplyStyle(src, "Color"); passthrough != image.Image(src) {
		t.Error("Color should return the source unchanged")
	}
	if passthrough, _ := ApplyStyle(src, "Painting"); passthrough != image.Image(src) {
		t.Error("Painting should return the source unchanged")
	}
}

func TestResize(t *testing.T) {
	out, err := Resize(gradientImage(100, 50), 768, 1024)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if out.Bounds().Dx() != 768 || out.Bounds().Dy() != 1024 {
		t.Errorf("size = %dx%d, want 768x1024", out.Bounds().Dx(), out.Bounds().Dy())
	}

	if _, err := Resize(gradientImage(10, 10), 0, 100); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestCropToAspect(t *testing.T) {
	// Wide source cropped to portrait keeps full height.
	out, err := CropToAspect(gradientImage(1000, 400), "3:4")
	if err != nil {
		t.Fatalf("CropToAspect failed: %v", err)
	}
	if out.Bounds().Dy() != 400 || out.Bounds().Dx() != 300 {
		t.Errorf("crop = %dx%d, want 300x400", out.Bounds().Dx(), out.Bounds().Dy())
	}

	// Tall source cropped to portrait keeps full width.
	out, err = CropToAspect(gradientImage(300, 1000), "3:4")
	if err != nil {
		t.Fatalf("CropToAspect failed: %v", err)
	}
	if out.Bounds().Dx() != 300 || out.Bounds().Dy() != 400 {
		t.Errorf("crop = %dx%d, want 300x400", out.Bounds().Dx(), out.Bounds().Dy())
	}

	if _, err := CropToAspect(gradientImage(10, 10), "wide"); err == nil {
		t.Error("expected error for malformed ratio")
	}
}

func TestVignette(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}

	out, err := Vignette(src, 0.5, 0.3)
	if err != nil {
		t.Fatalf("Vignette failed: %v", err)
	}

	center, _, _, _ := rgba8(out.At(50, 50))
	corner, _, _, _ := rgba8(out.At(0, 0))
	if center != 200 {
		t.Errorf("center = %d, want untouched 200", center)
	}
	// Corner sits at full distance, so the full intensity applies.
	if corner != 100 {
		t.Errorf("corner = %d, want 100", corner)
	}

	if _, err := Vignette(src, 1.5, 0.3); err == nil {
		t.Error("expected error for intensity above 1")
	}
	if _, err := Vignette(src, 0.5, 1.0); err == nil {
		t.Error("expected error for radius of 1")
	}
}

func TestValidateImage(t *testing.T) {
	if err := ValidateImage(gradientImage(256, 256), 256, 256); err != nil {
		t.Errorf("exact minimum rejected: %v", err)
	}
	if err := ValidateImage(gradientImage(100, 300), 256, 256); err == nil {
		t.Error("undersized image accepted")
	}
}

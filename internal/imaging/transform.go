// Package imaging holds the deterministic pixel operations of the
// pipeline: style transforms, geometry helpers, and the caption
// overlay.
package imaging

import (
	"image"
	"image/color"

	"github.com/kapu/portrait-gen-go/internal/util"
	"github.com/kapu/portrait-gen-go/pkg/errors"
)

// DefaultContrastBoost is the contrast factor applied after grayscale
// conversion.
const DefaultContrastBoost = 1.2

// DefaultSepiaIntensity applies the full sepia mapping.
const DefaultSepiaIntensity = 1.0

// luminance is the Rec. 601 luma of one 8-bit pixel.
func luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// Grayscale converts to monochrome and then boosts contrast around the
// midpoint. A factor of 1.0 leaves contrast unchanged; negative
// factors are rejected.
func Grayscale(src image.Image, contrast float64) (image.Image, error) {
	if contrast < 0 {
		return nil, errors.NewValidationError("contrast factor must not be negative", "contrast", contrast)
	}

	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := rgba8(src.At(x, y))
			gray := luminance(r, g, b)
			v := util.ClampUint8((gray-128)*contrast + 128)
			dst.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: a})
		}
	}
	return dst, nil
}

// Sepia applies the classic sepia matrix to the grayscale value of
// each pixel, blended with the untinted gray by intensity. Intensity 0
// yields pure grayscale; 1 the full warm mapping, which always
// satisfies R >= G >= B.
func Sepia(src image.Image, intensity float64) (image.Image, error) {
	if intensity < 0 || intensity > 1 {
		return nil, errors.NewValidationError("sepia intensity must be in [0, 1]", "intensity", intensity)
	}

	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := rgba8(src.At(x, y))
			gray := luminance(r, g, b)

			tr := minFloat(255, gray*(0.393+0.769+0.189))
			tg := minFloat(255, gray*(0.349+0.686+0.168))
			tb := minFloat(255, gray*(0.272+0.534+0.131))

			dst.SetNRGBA(x, y, color.NRGBA{
				R: util.ClampUint8(gray + (tr-gray)*intensity),
				G: util.ClampUint8(gray + (tg-gray)*intensity),
				B: util.ClampUint8(gray + (tb-gray)*intensity),
				A: a,
			})
		}
	}
	return dst, nil
}

// ApplyStyle runs the deterministic post-transform for a style. Color
// and Painting come back from the model as-is.
func ApplyStyle(src image.Image, style string) (image.Image, error) {
	switch style {
	case "BW":
		return Grayscale(src, DefaultContrastBoost)
	case "Sepia":
		return Sepia(src, DefaultSepiaIntensity)
	default:
		return src, nil
	}
}

func rgba8(c color.Color) (r, g, b, a uint8) {
	r16, g16, b16, a16 := c.RGBA()
	return uint8(r16 >> 8), uint8(g16 >> 8), uint8(b16 >> 8), uint8(a16 >> 8)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/kapu/portrait-gen-go/pkg/errors"
)

// Resize scales the image to the exact target size.
func Resize(src image.Image, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.NewValidationError("resize target must be positive", "size", fmt.Sprintf("%dx%d", width, height))
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst, nil
}

// CropToAspect center-crops the image to the given "W:H" ratio.
func CropToAspect(src image.Image, ratio string) (image.Image, error) {
	w, h, err := parseRatio(ratio)
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	target := float64(w) / float64(h)
	current := float64(srcW) / float64(srcH)

	cropW, cropH := srcW, srcH
	if current > target {
		cropW = int(float64(srcH) * target)
	} else {
		cropH = int(float64(srcW) / target)
	}

	x0 := bounds.Min.X + (srcW-cropW)/2
	y0 := bounds.Min.Y + (srcH-cropH)/2
	rect := image.Rect(x0, y0, x0+cropW, y0+cropH)

	dst := image.NewNRGBA(image.Rect(0, 0, cropW, cropH))
	xdraw.Copy(dst, image.Point{}, src, rect, xdraw.Src, nil)
	return dst, nil
}

// Vignette darkens pixels radially outside the protected radius.
// Intensity is the maximum darkening at the corners; radius (0..1) is
// the fraction of the half-diagonal that stays untouched.
func Vignette(src image.Image, intensity, radius float64) (image.Image, error) {
	if intensity < 0 || intensity > 1 {
		return nil, errors.NewValidationError("vignette intensity must be in [0, 1]", "intensity", intensity)
	}
	if radius < 0 || radius >= 1 {
		return nil, errors.NewValidationError("vignette radius must be in [0, 1)", "radius", radius)
	}

	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)

	cx := float64(bounds.Min.X+bounds.Max.X) / 2
	cy := float64(bounds.Min.Y+bounds.Max.Y) / 2
	maxDist := math.Hypot(float64(bounds.Dx())/2, float64(bounds.Dy())/2)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := rgba8(src.At(x, y))

			dist := math.Hypot(float64(x)-cx, float64(y)-cy) / maxDist
			factor := 1.0
			if dist > radius {
				falloff := (dist - radius) / (1 - radius)
				factor = 1 - intensity*falloff
			}

			dst.SetNRGBA(x, y, color.NRGBA{
				R: uint8(float64(r) * factor),
				G: uint8(float64(g) * factor),
				B: uint8(float64(b) * factor),
				A: a,
			})
		}
	}
	return dst, nil
}

// ValidateImage checks minimum dimensions.
func ValidateImage(img image.Image, minWidth, minHeight int) error {
	bounds := img.Bounds()
	if bounds.Dx() < minWidth || bounds.Dy() < minHeight {
		return errors.NewValidationError(
			fmt.Sprintf("image %dx%d is below minimum %dx%d", bounds.Dx(), bounds.Dy(), minWidth, minHeight),
			"size", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()))
	}
	return nil
}

// AverageBrightness computes the mean luma over a region.
func AverageBrightness(img image.Image, region image.Rectangle) float64 {
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return 0
	}

	sum := 0.0
	count := 0
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			r, g, b, _ := rgba8(img.At(x, y))
			sum += luminance(r, g, b)
			count++
		}
	}
	return sum / float64(count)
}

func parseRatio(ratio string) (int, int, error) {
	parts := strings.SplitN(ratio, ":", 2)
	if len(parts) != 2 {
		return 0, 0, errors.NewValidationError("ratio must look like W:H", "ratio", ratio)
	}
	w, err1 := strconv.Atoi(parts[0])
	h, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, errors.NewValidationError("ratio components must be positive integers", "ratio", ratio)
	}
	return w, h, nil
}

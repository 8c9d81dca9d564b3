package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/kapu/portrait-gen-go/internal/constants"
	"github.com/kapu/portrait-gen-go/internal/util"
	"github.com/kapu/portrait-gen-go/pkg/errors"
)

// OverlayOptions control the caption bar rendering.
type OverlayOptions struct {
	BarHeightRatio float64
	BarOpacity     float64
	BarColor       color.NRGBA
	NameColor      color.NRGBA
	YearsColor     color.NRGBA
}

// DefaultOverlayOptions returns the standard caption appearance.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{
		BarHeightRatio: constants.OverlayConfig.BarHeightRatio,
		BarOpacity:     constants.OverlayConfig.BarOpacity,
		BarColor:       color.NRGBA{A: 255},
		NameColor:      color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		YearsColor:     color.NRGBA{R: 200, G: 200, B: 200, A: 255},
	}
}

var systemFontCandidates = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/System/Library/Fonts/Helvetica.ttc",
	"C:\\Windows\\Fonts\\arial.ttf",
}

// Compositor renders the semi-transparent caption bar with the
// subject's name and years over the bottom of a portrait.
type Compositor struct {
	fontPath string
	logger   *zap.Logger
}

func NewCompositor(fontPath string, logger *zap.Logger) *Compositor {
	return &Compositor{fontPath: fontPath, logger: logger}
}

// Apply composites the caption bar using default options.
func (c *Compositor) Apply(src image.Image, name, years string) (image.Image, error) {
	return c.ApplyWithOptions(src, name, years, DefaultOverlayOptions())
}

// ApplyWithOptions composites the caption bar. The source image is
// never modified.
func (c *Compositor) ApplyWithOptions(src image.Image, name, years string, opts OverlayOptions) (image.Image, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewValidationError("overlay name must not be empty", "name", name)
	}
	if strings.TrimSpace(years) == "" {
		return nil, errors.NewValidationError("overlay years must not be empty", "years", years)
	}
	if opts.BarOpacity < 0 || opts.BarOpacity > 1 {
		return nil, errors.NewValidationError("bar opacity must be in [0, 1]", "bar_opacity", opts.BarOpacity)
	}
	if opts.BarHeightRatio <= 0 || opts.BarHeightRatio >= 1 {
		return nil, errors.NewValidationError("bar height ratio must be in (0, 1)", "bar_height_ratio", opts.BarHeightRatio)
	}

	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)

	width := dst.Bounds().Dx()
	height := dst.Bounds().Dy()

	barHeight := int(opts.BarHeightRatio * float64(height))
	barTop := height - barHeight

	bar := opts.BarColor
	bar.A = uint8(opts.BarOpacity * 255)
	draw.Draw(dst, image.Rect(0, barTop, width, height), image.NewUniform(bar), image.Point{}, draw.Over)

	nameSize := util.Max(constants.OverlayConfig.MinNameSize, int(constants.OverlayConfig.NameSizeRatio*float64(barHeight)))
	yearsSize := util.Max(constants.OverlayConfig.MinYearsSize, int(constants.OverlayConfig.YearsSizeRatio*float64(nameSize)))

	nameFace := c.loadFace(nameSize)
	yearsFace := c.loadFace(yearsSize)

	nameTop := barTop + int(constants.OverlayConfig.NameYRatio*float64(barHeight))
	nameBaseline := nameTop + nameFace.Metrics().Ascent.Ceil()
	drawCentered(dst, nameFace, name, opts.NameColor, width, nameBaseline)

	nameHeight := nameFace.Metrics().Height.Ceil()
	yearsTop := nameTop + nameHeight + constants.OverlayConfig.YearsGapPx
	yearsBaseline := yearsTop + yearsFace.Metrics().Ascent.Ceil()
	drawCentered(dst, yearsFace, years, opts.YearsColor, width, yearsBaseline)

	return dst, nil
}

// Validate checks whether a caption bar appears present: the bottom
// band must be dark in absolute terms and darker than the top band,
// unless the whole image is dark.
func Validate(img image.Image) bool {
	bounds := img.Bounds()
	height := bounds.Dy()
	band := int(constants.OverlayConfig.BarHeightRatio * float64(height))

	bottom := AverageBrightness(img, image.Rect(bounds.Min.X, bounds.Max.Y-band, bounds.Max.X, bounds.Max.Y))
	top := AverageBrightness(img, image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+band))

	if bottom >= 100 {
		return false
	}
	return bottom < top*0.8 || top < 100
}

// Preview renders a standalone caption bar over a neutral canvas for
// font and layout checks.
func (c *Compositor) Preview(name, years string, width, height int) (image.Image, error) {
	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.NRGBA{R: 128, G: 128, B: 128, A: 255}), image.Point{}, draw.Src)
	return c.Apply(canvas, name, years)
}

// loadFace resolves a font face at the given size: the configured
// path first, then system candidates, then the built-in bitmap face.
func (c *Compositor) loadFace(size int) font.Face {
	candidates := systemFontCandidates
	if c.fontPath != "" {
		candidates = append([]string{c.fontPath}, candidates...)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		parsed, err := opentype.Parse(data)
		if err != nil {
			continue
		}
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    float64(size),
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			continue
		}
		return face
	}

	if c.logger != nil {
		c.logger.Debug("No scalable font found, using built-in bitmap face")
	}
	return basicfont.Face7x13
}

func drawCentered(dst draw.Image, face font.Face, text string, col color.NRGBA, width, baseline int) {
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
	}
	textWidth := drawer.MeasureString(text).Ceil()
	drawer.Dot = fixed.P((width-textWidth)/2, baseline)
	drawer.DrawString(text)
}

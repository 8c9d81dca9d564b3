package evaluator

import (
	"image"
	"math"

	"github.com/kapu/portrait-gen-go/internal/domain"
)

// visualQualityScore accumulates partial credit across four criteria
// (brightness, contrast, detail, artifacts) and normalizes against a
// perfect score of 0.3 per criterion.
func visualQualityScore(img image.Image) float64 {
	bounds := img.Bounds()

	var sum, minLum, maxLum float64
	minLum = 255
	count := 0
	artifacts := 0

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := rgba8(img.At(x, y))
			lum := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
			sum += lum
			minLum = math.Min(minLum, lum)
			maxLum = math.Max(maxLum, lum)
			count++

			if r < 5 || r > 250 || g < 5 || g > 250 || b < 5 || b > 250 {
				artifacts++
			}
		}
	}
	if count == 0 {
		return 0
	}

	brightness := sum / float64(count)
	contrast := maxLum - minLum
	detail := detailRatio(img)
	artifactRatio := float64(artifacts) / float64(count)

	score := 0.0

	switch {
	case brightness >= 40 && brightness <= 200:
		score += 0.3
	case brightness >= 20 && brightness <= 220:
		score += 0.15
	}

	switch {
	case contrast > 150:
		score += 0.3
	case contrast > 100:
		score += 0.2
	case contrast > 50:
		score += 0.1
	}

	switch {
	case detail > 0.3:
		score += 0.25
	case detail > 0.15:
		score += 0.15
	}

	switch {
	case artifactRatio < 0.05:
		score += 0.15
	case artifactRatio < 0.1:
		score += 0.1
	}

	normalized := score / (4 * 0.3)
	return math.Min(1.0, normalized)
}

// detailRatio samples a coarse grid and counts how often adjacent
// pixels differ noticeably in luma.
func detailRatio(img image.Image) float64 {
	bounds := img.Bounds()

	samples := 0
	varied := 0
	for y := bounds.Min.Y + 10; y < bounds.Max.Y-10 && y < bounds.Min.Y+100; y += 10 {
		for x := bounds.Min.X + 10; x < bounds.Max.X-10 && x < bounds.Min.X+100; x += 10 {
			r1, g1, b1, _ := rgba8(img.At(x, y))
			r2, g2, b2, _ := rgba8(img.At(x+1, y))
			lum1 := 0.299*float64(r1) + 0.587*float64(g1) + 0.114*float64(b1)
			lum2 := 0.299*float64(r2) + 0.587*float64(g2) + 0.114*float64(b2)
			if math.Abs(lum1-lum2) > 10 {
				varied++
			}
			samples++
		}
	}
	if samples == 0 {
		return 0
	}
	return float64(varied) / float64(samples)
}

// StyleAdherence measures how strongly the center of the image obeys
// the color signature of a style. The sampled region avoids the
// caption bar.
func StyleAdherence(img image.Image, style domain.Style) float64 {
	samples := centerSamples(img, 100)
	if len(samples) == 0 {
		return 0
	}

	switch style {
	case domain.StyleBW:
		matched := 0
		for _, px := range samples {
			if absDiff(px[0], px[1]) < 5 && absDiff(px[1], px[2]) < 5 {
				matched++
			}
		}
		return float64(matched) / float64(len(samples))

	case domain.StyleSepia:
		matched := 0
		for _, px := range samples {
			if px[0] > px[1] && px[1] > px[2] {
				matched++
			}
		}
		return float64(matched) / float64(len(samples))

	case domain.StyleColor:
		matched := 0
		for _, px := range samples {
			spread := maxChannel(px) - minChannel(px)
			if spread > 10 {
				matched++
			}
		}
		return float64(matched) / float64(len(samples))

	case domain.StylePainting:
		// Brushwork has no reliable pixel signature; fixed score.
		return 0.85
	}

	return 0.5
}

// centerSamples collects up to limit pixels from the central region,
// clear of edges and of the bottom quarter where the caption sits.
func centerSamples(img image.Image, limit int) [][3]uint8 {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	region := image.Rect(
		bounds.Min.X+w/4,
		bounds.Min.Y+h/4,
		bounds.Min.X+3*w/4,
		bounds.Min.Y+3*h/4,
	)
	region = region.Intersect(bounds)

	var samples [][3]uint8
	for y := region.Min.Y; y < region.Max.Y && len(samples) < limit; y++ {
		for x := region.Min.X; x < region.Max.X && len(samples) < limit; x++ {
			r, g, b, _ := rgba8(img.At(x, y))
			samples = append(samples, [3]uint8{r, g, b})
		}
	}
	return samples
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func maxChannel(px [3]uint8) int {
	m := px[0]
	if px[1] > m {
		m = px[1]
	}
	if px[2] > m {
		m = px[2]
	}
	return int(m)
}

func minChannel(px [3]uint8) int {
	m := px[0]
	if px[1] < m {
		m = px[1]
	}
	if px[2] < m {
		m = px[2]
	}
	return int(m)
}

package evaluator

import (
	"image"
	"image/color"
	"testing"

	"go.uber.org/zap"

	"github.com/kapu/portrait-gen-go/internal/domain"
)

func testBio() *domain.Biography {
	death := 1852
	return &domain.Biography{Name: "Ada Lovelace", BirthYear: 1815, DeathYear: &death, Era: "Victorian England"}
}

// portraitCanvas builds a full-size monochrome portrait with a caption
// bar, passing every technical check.
func portraitCanvas() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 768, 1024))
	for y := 0; y < 1024; y++ {
		for x := 0; x < 768; x++ {
			v := uint8(40 + x*160/768)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	for y := 1024 - 154; y < 1024; y++ {
		for x := 0; x < 768; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 30, G: 30, B: 30, A: 255})
		}
	}
	return img
}

func uniformCanvas(c color.NRGBA, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestEvaluateWellFormedPortrait(t *testing.T) {
	e := New(768, 1024, zap.NewNop())

	result, err := e.Evaluate(portraitCanvas(), testBio(), domain.StyleBW)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if got := result.Scores[domain.CriterionTechnical]; got != 1.0 {
		t.Errorf("technical = %.2f, want 1.0 (feedback: %v)", got, result.Feedback)
	}
	if got := result.Scores[domain.CriterionStyleAdherence]; got != 1.0 {
		t.Errorf("BW adherence on monochrome image = %.2f, want 1.0", got)
	}
	if got := result.Scores[domain.CriterionHistoricalAccuracy]; got != 0.85 {
		t.Errorf("accuracy = %.2f, want default 0.85", got)
	}
}

func TestEvaluateBlankImageFails(t *testing.T) {
	e := New(768, 1024, zap.NewNop())
	blank := uniformCanvas(color.NRGBA{R: 128, G: 128, B: 128, A: 255}, 768, 1024)

	result, err := e.Evaluate(blank, testBio(), domain.StyleBW)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if result.Passed {
		t.Error("blank image must not pass")
	}
	if got := result.Scores[domain.CriterionTechnical]; got >= 0.95 {
		t.Errorf("technical = %.2f, want below threshold", got)
	}
	if got := result.Scores[domain.CriterionHistoricalAccuracy]; got != 0 {
		t.Errorf("blank frame accuracy = %.2f, want 0", got)
	}
	if len(result.Recommendations) == 0 {
		t.Error("failing result should carry a recommendation")
	}
}

func TestEvaluateWrongDimensions(t *testing.T) {
	e := New(768, 1024, zap.NewNop())
	small := uniformCanvas(color.NRGBA{R: 10, G: 200, B: 90, A: 255}, 100, 100)

	result, err := e.Evaluate(small, testBio(), domain.StyleColor)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.Scores[domain.CriterionTechnical] > 0.6 {
		t.Errorf("undersized image technical = %.2f", result.Scores[domain.CriterionTechnical])
	}
}

func TestStyleAdherence(t *testing.T) {
	mono := portraitCanvas()
	red := uniformCanvas(color.NRGBA{R: 220, G: 30, B: 30, A: 255}, 200, 260)

	sepia := image.NewNRGBA(image.Rect(0, 0, 200, 260))
	for y := 0; y < 260; y++ {
		for x := 0; x < 200; x++ {
			sepia.SetNRGBA(x, y, color.NRGBA{R: 180, G: 150, B: 110, A: 255})
		}
	}

	tests := []struct {
		name  string
		img   image.Image
		style domain.Style
		want  float64
	}{
		{"monochrome scores perfect for BW", mono, domain.StyleBW, 1.0},
		{"saturated image scores zero for BW", red, domain.StyleBW, 0.0},
		{"warm-ordered pixels score perfect for Sepia", sepia, domain.StyleSepia, 1.0},
		{"gray pixels score zero for Sepia", mono, domain.StyleSepia, 0.0},
		{"saturated image scores perfect for Color", red, domain.StyleColor, 1.0},
		{"gray pixels score zero for Color", mono, domain.StyleColor, 0.0},
		{"Painting has a fixed score", red, domain.StylePainting, 0.85},
		{"unknown style scores neutral", red, domain.Style("Neon"), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StyleAdherence(tt.img, tt.style); got != tt.want {
				t.Errorf("StyleAdherence = %.2f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestEvaluateBatchIsolatesFailures(t *testing.T) {
	e := New(768, 1024, zap.NewNop())

	images := map[domain.Style]image.Image{
		domain.StyleBW:    portraitCanvas(),
		domain.StyleSepia: nil,
	}

	results := e.EvaluateBatch(images, testBio())

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[domain.StyleBW].Scores[domain.CriterionTechnical] != 1.0 {
		t.Error("good image should still evaluate normally")
	}
	sepia := results[domain.StyleSepia]
	if sepia.Passed {
		t.Error("nil image must not pass")
	}
	if len(sepia.Issues) == 0 {
		t.Error("failed evaluation should record why")
	}
}

func TestOverallScore(t *testing.T) {
	r := &domain.EvaluationResult{Scores: map[string]float64{"a": 0.5, "b": 1.0}}
	if got := r.OverallScore(); got != 0.75 {
		t.Errorf("overall = %.2f, want 0.75", got)
	}
	empty := &domain.EvaluationResult{}
	if empty.OverallScore() != 0 {
		t.Error("empty result should score 0")
	}
}

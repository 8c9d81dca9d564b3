// Package evaluator scores generated portraits against technical,
// visual, style, and historical criteria.
package evaluator

import (
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/kapu/portrait-gen-go/internal/constants"
	"github.com/kapu/portrait-gen-go/internal/domain"
	"github.com/kapu/portrait-gen-go/internal/imaging"
	pkgerrors "github.com/kapu/portrait-gen-go/pkg/errors"
)

// Evaluator is the deterministic pixel-based evaluator. It needs no
// model access and is the fallback for legacy models.
type Evaluator struct {
	expectedWidth  int
	expectedHeight int
	logger         *zap.Logger
}

func New(expectedWidth, expectedHeight int, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		expectedWidth:  expectedWidth,
		expectedHeight: expectedHeight,
		logger:         logger,
	}
}

// Evaluate scores one portrait. The pass verdict requires the
// technical, visual quality, and historical accuracy thresholds all
// to be met.
func (e *Evaluator) Evaluate(img image.Image, bio *domain.Biography, style domain.Style) (*domain.EvaluationResult, error) {
	if img == nil {
		return nil, pkgerrors.NewValidationError("no image to evaluate", "image", nil)
	}

	result := &domain.EvaluationResult{
		Scores: map[string]float64{},
	}

	technical, checkFeedback := e.technicalScore(img)
	result.Scores[domain.CriterionTechnical] = technical
	result.Feedback = append(result.Feedback, checkFeedback...)

	result.Scores[domain.CriterionVisualQuality] = visualQualityScore(img)
	result.Scores[domain.CriterionStyleAdherence] = StyleAdherence(img, style)
	result.Scores[domain.CriterionHistoricalAccuracy] = historicalAccuracyScore(img)

	result.Passed = technical >= constants.EvalThresholds.MinTechnical &&
		result.Scores[domain.CriterionVisualQuality] >= constants.EvalThresholds.MinVisualQuality &&
		result.Scores[domain.CriterionHistoricalAccuracy] >= constants.EvalThresholds.MinHistoricalAccuracy

	if !result.Passed {
		result.Recommendations = append(result.Recommendations, "regenerate with a refined prompt")
	}

	e.logger.Debug("Basic evaluation complete",
		zap.String("subject", bio.Name),
		zap.String("style", style.String()),
		zap.Bool("passed", result.Passed),
		zap.Float64("technical", technical),
		zap.Float64("visual_quality", result.Scores[domain.CriterionVisualQuality]),
		zap.Float64("style_adherence", result.Scores[domain.CriterionStyleAdherence]),
	)
	return result, nil
}

// EvaluateBatch scores several styles, isolating per-style panics into
// failed results so one bad image cannot sink the batch.
func (e *Evaluator) EvaluateBatch(images map[domain.Style]image.Image, bio *domain.Biography) map[domain.Style]*domain.EvaluationResult {
	results := make(map[domain.Style]*domain.EvaluationResult, len(images))
	for style, img := range images {
		results[style] = e.evaluateIsolated(img, bio, style)
	}
	return results
}

func (e *Evaluator) evaluateIsolated(img image.Image, bio *domain.Biography, style domain.Style) (result *domain.EvaluationResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Evaluation panicked",
				zap.String("style", style.String()),
				zap.Any("panic", r),
			)
			result = domain.FailedEvaluation(fmt.Sprintf("evaluation panicked: %v", r))
		}
	}()

	if img == nil {
		return domain.FailedEvaluation("no image to evaluate")
	}

	result, err := e.Evaluate(img, bio, style)
	if err != nil {
		return domain.FailedEvaluation(err.Error())
	}
	return result
}

// technicalScore is the fraction of boolean integrity checks that
// pass, with one feedback line naming any failures.
func (e *Evaluator) technicalScore(img image.Image) (float64, []string) {
	bounds := img.Bounds()

	checks := []struct {
		name string
		pass bool
	}{
		{"correct_width", bounds.Dx() == e.expectedWidth},
		{"correct_height", bounds.Dy() == e.expectedHeight},
		{"opaque", isOpaque(img)},
		{"has_content", hasContent(img)},
		{"overlay_present", imaging.Validate(img)},
	}

	passed := 0
	var failed []string
	for _, check := range checks {
		if check.pass {
			passed++
		} else {
			failed = append(failed, check.name)
		}
	}

	feedback := []string{fmt.Sprintf("technical checks passed %d/%d", passed, len(checks))}
	for _, name := range failed {
		feedback = append(feedback, "failed technical check: "+name)
	}

	return float64(passed) / float64(len(checks)), feedback
}

// hasContent requires more than one distinct color among the first
// 100 pixels in row order.
func hasContent(img image.Image) bool {
	return distinctLeadingColors(img, 100) > 1
}

func isOpaque(img image.Image) bool {
	bounds := img.Bounds()
	step := sampleStep(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			_, _, _, a := img.At(x, y).RGBA()
			if a>>8 != 255 {
				return false
			}
		}
	}
	return true
}

func distinctLeadingColors(img image.Image, limit int) int {
	bounds := img.Bounds()
	seen := make(map[[3]uint8]struct{})
	count := 0
	for y := bounds.Min.Y; y < bounds.Max.Y && count < limit; y++ {
		for x := bounds.Min.X; x < bounds.Max.X && count < limit; x++ {
			r, g, b, _ := rgba8(img.At(x, y))
			seen[[3]uint8{r, g, b}] = struct{}{}
			count++
		}
	}
	return len(seen)
}

// historicalAccuracyScore is a coarse proxy: a blank frame scores
// zero, anything with content gets the default. Real accuracy scoring
// needs the reasoning evaluator.
func historicalAccuracyScore(img image.Image) float64 {
	if distinctLeadingColors(img, 100) <= 1 {
		return 0.0
	}
	return constants.EvalThresholds.DefaultAccuracyScore
}

func sampleStep(bounds image.Rectangle) int {
	step := bounds.Dx() / 64
	if step < 1 {
		step = 1
	}
	return step
}

func rgba8(c interface {
	RGBA() (r, g, b, a uint32)
}) (uint8, uint8, uint8, uint8) {
	r, g, b, a := c.RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)
}

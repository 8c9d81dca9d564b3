package evaluator

import (
	"context"
	"image"

	"go.uber.org/zap"

	"github.com/kapu/portrait-gen-go/internal/capability"
	"github.com/kapu/portrait-gen-go/internal/domain"
)

// Strategy is the evaluation entry point the orchestrator calls. The
// concrete strategy is chosen once at construction time and never
// changes mid-run.
type Strategy interface {
	Evaluate(ctx context.Context, img image.Image, bio *domain.Biography, style domain.Style) (*domain.EvaluationResult, error)
}

// BasicStrategy adapts the pixel evaluator to the Strategy interface.
type BasicStrategy struct {
	Inner *Evaluator
}

func (s BasicStrategy) Evaluate(_ context.Context, img image.Image, bio *domain.Biography, style domain.Style) (*domain.EvaluationResult, error) {
	return s.Inner.Evaluate(img, bio, style)
}

// SelectStrategy picks the enhanced evaluator when the model supports
// holistic reasoning and a backend is available, the basic evaluator
// otherwise.
func SelectStrategy(backend ReasoningBackend, cfg capability.EvaluationConfig, qualityThreshold float64, basic *Evaluator, logger *zap.Logger) Strategy {
	if cfg.UseHolisticReasoning && backend != nil {
		logger.Info("Using enhanced evaluation",
			zap.Int("reasoning_passes", cfg.ReasoningPasses),
			zap.Bool("fact_checking", cfg.EnableFactChecking),
		)
		return NewEnhanced(backend, cfg, qualityThreshold, basic, logger)
	}
	logger.Info("Using basic evaluation")
	return BasicStrategy{Inner: basic}
}

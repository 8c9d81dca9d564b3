// Package acquire drives the generation retry loop against the image
// backend.
package acquire

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kapu/portrait-gen-go/internal/capability"
	"github.com/kapu/portrait-gen-go/internal/constants"
	"github.com/kapu/portrait-gen-go/internal/domain"
	"github.com/kapu/portrait-gen-go/internal/service/ai"
	"github.com/kapu/portrait-gen-go/internal/util"
	"github.com/kapu/portrait-gen-go/pkg/errors"
)

// Backend is the slice of the model manager the acquirer needs.
type Backend interface {
	GenerateImage(ctx context.Context, req ai.ImageRequest) (*ai.GenerationResult, error)
}

type Acquirer struct {
	backend Backend
	cfg     capability.GenerationConfig
	logger  *zap.Logger
}

func New(backend Backend, cfg capability.GenerationConfig, logger *zap.Logger) *Acquirer {
	return &Acquirer{
		backend: backend,
		cfg:     cfg,
		logger:  logger,
	}
}

// Acquire runs up to MaxGenerationAttempts generation calls for one
// style. With smart retry enabled, each retry prepends a refinement
// block quoting the previous failure before the original prompt.
func (a *Acquirer) Acquire(ctx context.Context, prompt string, style domain.Style, refPaths []string) (*ai.GenerationResult, error) {
	attempts := util.Max(a.cfg.MaxGenerationAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		currentPrompt := prompt
		if attempt > 1 && a.cfg.EnableSmartRetry && lastErr != nil {
			currentPrompt = refinePrompt(prompt, lastErr)
			a.logger.Info("Retrying with refined prompt",
				zap.String("style", style.String()),
				zap.Int("attempt", attempt),
			)
		}

		result, err := a.backend.GenerateImage(ctx, ai.ImageRequest{
			Prompt:          currentPrompt,
			AspectRatio:     constants.OutputConfig.AspectRatio,
			ReferencePaths:  refPaths,
			EnableGrounding: a.cfg.EnableSearchGrounding,
			MaxIterations:   a.cfg.MaxInternalIterations,
		})
		if err == nil {
			a.logger.Info("Image acquired",
				zap.String("style", style.String()),
				zap.Int("attempt", attempt),
				zap.Float64("confidence", result.Confidence),
			)
			return result, nil
		}

		lastErr = err
		a.logger.Warn("Generation attempt failed",
			zap.String("style", style.String()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)
	}

	return nil, errors.NewGenerationError(
		fmt.Sprintf("generation failed after %d attempts", attempts),
		style.String(), attempts, lastErr,
	)
}

// refinePrompt prepends failure context and simplification guidance to
// the original prompt. The original text stays intact below the block
// so no requirement is lost on retry.
func refinePrompt(original string, failure error) string {
	excerpt := util.TruncateString(failure.Error(), constants.AIInputLimits.MaxErrorExcerpt)
	return fmt.Sprintf(`RETRY REFINEMENT:
Previous attempt failed with: %s
Simplify the composition if needed, but keep every subject and style requirement below.

%s`, excerpt, original)
}

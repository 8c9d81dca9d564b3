package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kapu/portrait-gen-go/internal/acquire"
	"github.com/kapu/portrait-gen-go/internal/capability"
	"github.com/kapu/portrait-gen-go/internal/config"
	"github.com/kapu/portrait-gen-go/internal/constants"
	"github.com/kapu/portrait-gen-go/internal/evaluator"
	"github.com/kapu/portrait-gen-go/internal/imaging"
	"github.com/kapu/portrait-gen-go/internal/orchestrator"
	"github.com/kapu/portrait-gen-go/internal/preflight"
	"github.com/kapu/portrait-gen-go/internal/prompt"
	"github.com/kapu/portrait-gen-go/internal/reference"
	"github.com/kapu/portrait-gen-go/internal/researcher"
	"github.com/kapu/portrait-gen-go/internal/service/ai"
)

// Container bundles the assembled pipeline for the CLI.
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Adapter      *capability.Adapter
	Models       *ai.ModelManager
	Orchestrator *orchestrator.Orchestrator

	locator *reference.Locator
}

// Close releases temporary resources, currently the downloaded
// reference images.
func (c *Container) Close() {
	if c.locator != nil {
		if err := c.locator.Cleanup(); err != nil {
			c.Logger.Warn("Reference cleanup failed", zap.Error(err))
		}
	}
}

// Build assembles the full pipeline. All capability gating happens
// here: components the model cannot use are simply not wired.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	adapter := capability.NewAdapter(cfg.Gemini.Model, logger)
	adapter.LogCapabilities()

	models, err := ai.NewModelManager(ctx, ai.ModelManagerConfig{
		GeminiAPIKey:   cfg.Gemini.APIKey,
		OpenAIAPIKey:   cfg.OpenAI.APIKey,
		ImageModel:     cfg.Gemini.Model,
		EnableFallback: cfg.OpenAI.EnableFallback,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model manager: %w", err)
	}

	genCfg := adapter.GenerationConfig()
	evalCfg := adapter.EvaluationConfig()

	var finder orchestrator.ReferenceFinder
	var locator *reference.Locator
	if adapter.SupportsReferenceImages() && cfg.Reference.EnableDownload {
		locator = reference.NewLocator(models, cfg.Reference.DownloadDir, logger)
		finder = locator
	}

	var validator *preflight.Validator
	if genCfg.EnablePreflightChecks {
		validator = preflight.NewValidator(models, adapter.SupportsSearchGrounding(), logger)
	}

	basic := evaluator.New(constants.OutputConfig.ImageWidth, constants.OutputConfig.ImageHeight, logger)
	strategy := evaluator.SelectStrategy(models, evalCfg, genCfg.QualityThreshold, basic, logger)

	orch := orchestrator.New(orchestrator.Deps{
		Researcher: researcher.New(models, logger),
		Finder:     finder,
		Composer:   prompt.NewComposer(),
		Validator:  validator,
		Acquirer:   acquire.New(models, genCfg, logger),
		Compositor: imaging.NewCompositor(cfg.Overlay.FontPath, logger),
		Strategy:   strategy,
		Adapter:    adapter,
		OutputDir:  cfg.Output.Dir,

		MaxReferenceImages: cfg.Reference.MaxImages,
	}, logger)

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Adapter:      adapter,
		Models:       models,
		Orchestrator: orch,
		locator:      locator,
	}, nil
}

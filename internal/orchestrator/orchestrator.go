// Package orchestrator runs the full portrait pipeline: research,
// reference acquisition, per-style generation in parallel, transforms,
// caption overlay, and evaluation.
package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "image/jpeg"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/portrait-gen-go/internal/capability"
	"github.com/kapu/portrait-gen-go/internal/constants"
	"github.com/kapu/portrait-gen-go/internal/domain"
	"github.com/kapu/portrait-gen-go/internal/evaluator"
	"github.com/kapu/portrait-gen-go/internal/imaging"
	"github.com/kapu/portrait-gen-go/internal/preflight"
	promptpkg "github.com/kapu/portrait-gen-go/internal/prompt"
	"github.com/kapu/portrait-gen-go/internal/service/ai"
	"github.com/kapu/portrait-gen-go/internal/util"
	"github.com/kapu/portrait-gen-go/pkg/errors"
)

// Researcher produces a biography for a subject name.
type Researcher interface {
	Research(ctx context.Context, name string) (*domain.Biography, error)
}

// ReferenceFinder locates and downloads candidate reference images.
type ReferenceFinder interface {
	Find(ctx context.Context, bio *domain.Biography, maxImages int) ([]domain.ReferenceImage, error)
	Download(ctx context.Context, refs []domain.ReferenceImage) ([]string, error)
	Cleanup() error
}

// ImageAcquirer runs the generation retry loop for one style.
type ImageAcquirer interface {
	Acquire(ctx context.Context, prompt string, style domain.Style, refPaths []string) (*ai.GenerationResult, error)
}

type Orchestrator struct {
	researcher Researcher
	finder     ReferenceFinder
	composer   *promptpkg.Composer
	validator  *preflight.Validator
	acquirer   ImageAcquirer
	compositor *imaging.Compositor
	strategy   evaluator.Strategy
	adapter    *capability.Adapter
	settings   capability.Settings
	outputDir  string
	logger     *zap.Logger
}

// Deps carries the orchestrator's collaborators. Finder and Validator
// are optional; the rest are required.
type Deps struct {
	Researcher Researcher
	Finder     ReferenceFinder
	Composer   *promptpkg.Composer
	Validator  *preflight.Validator
	Acquirer   ImageAcquirer
	Compositor *imaging.Compositor
	Strategy   evaluator.Strategy
	Adapter    *capability.Adapter
	OutputDir  string

	// MaxReferenceImages optionally lowers the model's reference
	// ceiling; zero means use the model default.
	MaxReferenceImages int
}

func New(deps Deps, logger *zap.Logger) *Orchestrator {
	adapter := deps.Adapter
	settings := adapter.DefaultSettings()
	if deps.MaxReferenceImages > 0 && deps.MaxReferenceImages < settings.MaxReferenceImages {
		settings.MaxReferenceImages = deps.MaxReferenceImages
	}
	return &Orchestrator{
		researcher: deps.Researcher,
		finder:     deps.Finder,
		composer:   deps.Composer,
		validator:  deps.Validator,
		acquirer:   deps.Acquirer,
		compositor: deps.Compositor,
		strategy:   deps.Strategy,
		adapter:    adapter,
		settings:   adapter.AdaptSettings(settings),
		outputDir:  deps.OutputDir,
		logger:     logger,
	}
}

// Generate produces portraits for one subject in every requested
// style. Research failure fails the whole subject; per-style failures
// are isolated into the result's error list. The returned error is
// non-nil only for invalid arguments.
func (o *Orchestrator) Generate(ctx context.Context, subject string, styles []domain.Style, force bool) (*domain.PortraitResult, error) {
	if subject == "" {
		return nil, errors.NewValidationError("subject must not be empty", "subject", subject)
	}
	if len(styles) == 0 {
		return nil, errors.NewValidationError("at least one style is required", "styles", styles)
	}
	for _, style := range styles {
		if !style.Valid() {
			return nil, errors.NewValidationError(fmt.Sprintf("unknown style %q", style), "styles", style)
		}
	}

	start := time.Now()
	result := domain.NewPortraitResult(subject)

	o.logger.Info("Generating portraits",
		zap.String("subject", subject),
		zap.Int("styles", len(styles)),
		zap.Bool("force", force),
	)

	bio, err := o.researcher.Research(ctx, subject)
	if err != nil {
		o.logger.Error("Research failed", zap.String("subject", subject), zap.Error(err))
		result.Biography = &domain.Biography{Name: subject, Era: "Unknown Era"}
		result.Errors = append(result.Errors, fmt.Sprintf("research: %v", err))
		result.Elapsed = time.Since(start)
		return result, nil
	}
	result.Biography = bio

	refs, refPaths := o.gatherReferences(ctx, bio)

	if err := os.MkdirAll(o.outputDir, os.FileMode(constants.OutputConfig.DirPermissions)); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("output dir: %v", err))
		result.Elapsed = time.Since(start)
		return result, nil
	}

	var mu sync.Mutex
	workers := util.Min(constants.OrchestratorConfig.MaxStyleWorkers, len(styles))
	p := pool.New().WithMaxGoroutines(workers)

	for _, style := range styles {
		style := style
		p.Go(func() {
			filePath, promptPath, eval, styleErr := o.generateStyle(ctx, bio, style, refs, refPaths, force)

			mu.Lock()
			defer mu.Unlock()
			if styleErr != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", style, styleErr))
				result.Evaluations[style] = domain.FailedEvaluation(styleErr.Error())
				return
			}
			result.Files[style] = filePath
			if promptPath != "" {
				result.Prompts[style] = promptPath
			}
			result.Evaluations[style] = eval
		})
	}
	p.Wait()

	result.Elapsed = time.Since(start)
	result.Success = len(result.Files) > 0 && len(result.Errors) == 0

	o.logger.Info("Generation finished",
		zap.String("subject", subject),
		zap.Bool("success", result.Success),
		zap.Int("files", len(result.Files)),
		zap.Int("errors", len(result.Errors)),
		zap.String("elapsed", util.FormatElapsed(result.Elapsed)),
	)
	return result, nil
}

// GenerateBatch processes subjects sequentially; one subject's failure
// never aborts the rest.
func (o *Orchestrator) GenerateBatch(ctx context.Context, subjects []string, styles []domain.Style, force bool) []*domain.PortraitResult {
	results := make([]*domain.PortraitResult, 0, len(subjects))
	for _, subject := range subjects {
		result, err := o.Generate(ctx, subject, styles, force)
		if err != nil {
			result = domain.NewPortraitResult(subject)
			result.Errors = append(result.Errors, err.Error())
		}
		results = append(results, result)
	}
	return results
}

// CheckExisting reports which style outputs already exist for a
// subject.
func (o *Orchestrator) CheckExisting(subject string, styles []domain.Style) map[domain.Style]bool {
	existing := make(map[domain.Style]bool, len(styles))
	for _, style := range styles {
		path := o.imagePath(subject, style)
		_, err := os.Stat(path)
		existing[style] = err == nil
	}
	return existing
}

// gatherReferences finds and downloads reference images when the
// model supports them. Failures degrade to generation without
// references.
func (o *Orchestrator) gatherReferences(ctx context.Context, bio *domain.Biography) ([]domain.ReferenceImage, []string) {
	if o.finder == nil || !o.settings.EnableReferenceImages || o.settings.MaxReferenceImages == 0 {
		return nil, nil
	}

	refs, err := o.finder.Find(ctx, bio, o.settings.MaxReferenceImages)
	if err != nil {
		o.logger.Warn("Reference search failed, continuing without references", zap.Error(err))
		return nil, nil
	}
	if len(refs) == 0 {
		return nil, nil
	}

	paths, err := o.finder.Download(ctx, refs)
	if err != nil {
		o.logger.Warn("Reference download failed, continuing without references", zap.Error(err))
		return refs, nil
	}
	return refs, paths
}

func (o *Orchestrator) generateStyle(ctx context.Context, bio *domain.Biography, style domain.Style, refs []domain.ReferenceImage, refPaths []string, force bool) (string, string, *domain.EvaluationResult, error) {
	imagePath := o.imagePath(bio.Name, style)
	promptPath := o.promptPath(bio.Name, style)

	// Existing output is reused untouched unless force is set; only
	// the evaluation is redone.
	if !force {
		if existing, err := loadImage(imagePath); err == nil {
			o.logger.Info("Output exists, skipping generation",
				zap.String("style", style.String()),
				zap.String("path", imagePath),
			)
			eval, evalErr := o.strategy.Evaluate(ctx, existing, bio, style)
			if evalErr != nil {
				o.logger.Warn("Evaluation of existing output failed, keeping file",
					zap.String("style", style.String()),
					zap.Error(evalErr),
				)
				eval = domain.FailedEvaluation(fmt.Sprintf("evaluation failed: %v", evalErr))
			}
			return imagePath, promptPath, eval, nil
		}
	}

	generationPrompt := o.composePrompt(bio, style, refs)

	if o.validator != nil && o.settings.EnablePreflightChecks {
		check := o.validator.Validate(ctx, bio, style, generationPrompt, refs)
		if !check.IsValid {
			o.logger.Warn("Preflight flagged generation, proceeding anyway",
				zap.String("style", style.String()),
				zap.Float64("confidence", check.Confidence),
				zap.Strings("issues", check.Issues),
			)
		}
	}

	if err := os.WriteFile(promptPath, []byte(generationPrompt), 0644); err != nil {
		o.logger.Warn("Could not write prompt sidecar", zap.Error(err))
		promptPath = ""
	}

	genResult, err := o.acquirer.Acquire(ctx, generationPrompt, style, refPaths)
	if err != nil {
		return "", "", nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(genResult.Data))
	if err != nil {
		return "", "", nil, errors.NewGenerationError("generated image is undecodable", style.String(), 0, err)
	}

	img, err = o.normalize(img)
	if err != nil {
		return "", "", nil, err
	}

	img, err = imaging.ApplyStyle(img, style.String())
	if err != nil {
		return "", "", nil, err
	}

	img, err = o.compositor.Apply(img, bio.Name, bio.YearsLabel())
	if err != nil {
		return "", "", nil, err
	}

	if err := savePNG(imagePath, img); err != nil {
		return "", "", nil, err
	}

	// A scoring failure never discards an image that is already on
	// disk; it is recorded as a failed evaluation instead.
	eval, err := o.strategy.Evaluate(ctx, img, bio, style)
	if err != nil {
		o.logger.Warn("Evaluation failed, keeping generated file",
			zap.String("style", style.String()),
			zap.Error(err),
		)
		eval = domain.FailedEvaluation(fmt.Sprintf("evaluation failed: %v", err))
	}

	return imagePath, promptPath, eval, nil
}

func (o *Orchestrator) composePrompt(bio *domain.Biography, style domain.Style, refs []domain.ReferenceImage) string {
	if o.adapter.IsLegacy() {
		return o.composer.Simple(bio, style)
	}

	p := o.composer.Build(bio, style, refs, promptpkg.Flags{
		NativeTextRendering: o.adapter.SupportsNativeTextRendering(),
		PhysicsAware:        o.adapter.Supports(capability.FeaturePhysicsAwareSynthesis),
		FactChecking:        o.settings.EnableSearchGrounding,
	})

	if o.adapter.SupportsInternalReasoning() {
		p = o.composer.EnhanceWithReasoning(p, o.settings.EnableIterativeRefinement, o.settings.MaxInternalIterations)
	}
	return p
}

// normalize crops to the output aspect ratio and scales to the exact
// output size so downstream checks see fixed dimensions.
func (o *Orchestrator) normalize(img image.Image) (image.Image, error) {
	cropped, err := imaging.CropToAspect(img, constants.OutputConfig.AspectRatio)
	if err != nil {
		return nil, err
	}
	return imaging.Resize(cropped, constants.OutputConfig.ImageWidth, constants.OutputConfig.ImageHeight)
}

func (o *Orchestrator) imagePath(subject string, style domain.Style) string {
	base := util.SanitizeFilename(subject) + "_" + style.String()
	return filepath.Join(o.outputDir, base+constants.OutputConfig.FileExtension)
}

func (o *Orchestrator) promptPath(subject string, style domain.Style) string {
	base := util.SanitizeFilename(subject) + "_" + style.String()
	return filepath.Join(o.outputDir, base+constants.OutputConfig.PromptSuffix)
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	return img, err
}

func savePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, img)
}

package capability

import "go.uber.org/zap"

// Settings are the tunable pipeline knobs that an Adapter reconciles
// against what the active model actually supports.
type Settings struct {
	EnablePreflightChecks     bool
	EnableIterativeRefinement bool
	MaxInternalIterations     int
	EnableSearchGrounding     bool
	EnableReferenceImages     bool
	MaxReferenceImages        int
	UseHolisticReasoning      bool
	EnableSmartRetry          bool
	QualityThreshold          float64
}

// Adapter gates pipeline behavior on the active model's profile.
// An unknown model yields a nil profile and every gated feature
// reports unsupported.
type Adapter struct {
	modelName string
	profile   *Profile
	logger    *zap.Logger
}

func NewAdapter(modelName string, logger *zap.Logger) *Adapter {
	profile, ok := Lookup(modelName)
	if !ok {
		logger.Warn("Unknown model, treating as legacy with all features disabled",
			zap.String("model", modelName),
		)
	}
	return &Adapter{
		modelName: modelName,
		profile:   profile,
		logger:    logger,
	}
}

// ModelName returns the configured model name, known or not.
func (a *Adapter) ModelName() string {
	return a.modelName
}

// Profile returns the underlying profile, or nil for unknown models.
func (a *Adapter) Profile() *Profile {
	return a.profile
}

// IsLegacy reports whether the model lacks every agentic feature.
func (a *Adapter) IsLegacy() bool {
	if a.profile == nil {
		return true
	}
	c := a.profile.Capabilities
	return !c.SearchGrounding && !c.MultiReference && !c.InternalReasoning &&
		!c.PhysicsAwareSynthesis && !c.IterativeRefinement
}

// Supports resolves a named feature against the model profile.
func (a *Adapter) Supports(feature string) bool {
	if a.profile == nil {
		return false
	}
	return a.profile.Capabilities.Has(feature)
}

func (a *Adapter) SupportsSearchGrounding() bool {
	return a.Supports(FeatureSearchGrounding)
}

func (a *Adapter) SupportsReferenceImages() bool {
	return a.Supports(FeatureMultiReference)
}

func (a *Adapter) SupportsInternalReasoning() bool {
	return a.Supports(FeatureInternalReasoning)
}

func (a *Adapter) SupportsNativeTextRendering() bool {
	return a.Supports(FeatureNativeTextRendering)
}

// MaxReferenceImages returns the model's reference image ceiling.
func (a *Adapter) MaxReferenceImages() int {
	if a.profile == nil {
		return 0
	}
	return a.profile.Capabilities.MaxReferenceImages
}

// GenerationConfig returns the model-tuned generation policy. Unknown
// models get a conservative legacy policy.
func (a *Adapter) GenerationConfig() GenerationConfig {
	if a.profile != nil {
		return a.profile.Generation
	}
	return GenerationConfig{
		MaxInternalIterations: 1,
		QualityThreshold:      0.80,
		ConfidenceThreshold:   0.75,
		MaxGenerationAttempts: 2,
	}
}

// EvaluationConfig returns the model-tuned evaluation policy with
// equal criterion weights as the legacy fallback.
func (a *Adapter) EvaluationConfig() EvaluationConfig {
	if a.profile != nil {
		return a.profile.Evaluation
	}
	return EvaluationConfig{
		ReasoningPasses:          1,
		TechnicalWeight:          0.25,
		VisualQualityWeight:      0.25,
		StyleAdherenceWeight:     0.25,
		HistoricalAccuracyWeight: 0.25,
	}
}

// AdaptSettings reconciles requested settings with the model profile:
// unsupported features are disabled, reference counts capped, and the
// quality threshold only ever lowered. Each change is logged.
func (a *Adapter) AdaptSettings(requested Settings) Settings {
	adapted := requested
	gen := a.GenerationConfig()

	if adapted.EnablePreflightChecks && !gen.EnablePreflightChecks {
		adapted.EnablePreflightChecks = false
		a.logAdjustment("preflight checks disabled")
	}
	if adapted.EnableIterativeRefinement && !a.Supports(FeatureIterativeRefinement) {
		adapted.EnableIterativeRefinement = false
		adapted.MaxInternalIterations = 1
		a.logAdjustment("iterative refinement disabled")
	}
	if adapted.EnableSearchGrounding && !a.Supports(FeatureSearchGrounding) {
		adapted.EnableSearchGrounding = false
		a.logAdjustment("search grounding disabled")
	}
	if adapted.EnableReferenceImages && !a.Supports(FeatureMultiReference) {
		adapted.EnableReferenceImages = false
		adapted.MaxReferenceImages = 0
		a.logAdjustment("reference images disabled")
	}
	if max := a.MaxReferenceImages(); adapted.MaxReferenceImages > max {
		adapted.MaxReferenceImages = max
	}
	if adapted.UseHolisticReasoning && !a.Supports(FeatureInternalReasoning) {
		adapted.UseHolisticReasoning = false
		a.logAdjustment("holistic reasoning disabled")
	}
	if adapted.EnableSmartRetry && !gen.EnableSmartRetry {
		adapted.EnableSmartRetry = false
		a.logAdjustment("smart retry disabled")
	}
	if adapted.QualityThreshold > gen.QualityThreshold {
		a.logger.Info("Lowering quality threshold to model capability",
			zap.String("model", a.modelName),
			zap.Float64("requested", adapted.QualityThreshold),
			zap.Float64("adjusted", gen.QualityThreshold),
		)
		adapted.QualityThreshold = gen.QualityThreshold
	}

	return adapted
}

// DefaultSettings derives the settings a fresh pipeline should start
// from for this model.
func (a *Adapter) DefaultSettings() Settings {
	gen := a.GenerationConfig()
	eval := a.EvaluationConfig()
	return Settings{
		EnablePreflightChecks:     gen.EnablePreflightChecks,
		EnableIterativeRefinement: gen.EnableIterativeRefinement,
		MaxInternalIterations:     gen.MaxInternalIterations,
		EnableSearchGrounding:     gen.EnableSearchGrounding,
		EnableReferenceImages:     gen.EnableReferenceImages,
		MaxReferenceImages:        gen.MaxReferenceImagesToUse,
		UseHolisticReasoning:      eval.UseHolisticReasoning,
		EnableSmartRetry:          gen.EnableSmartRetry,
		QualityThreshold:          gen.QualityThreshold,
	}
}

// LogCapabilities emits a one-time summary of the active model.
func (a *Adapter) LogCapabilities() {
	if a.profile == nil {
		a.logger.Info("Model capabilities",
			zap.String("model", a.modelName),
			zap.Bool("known", false),
		)
		return
	}
	c := a.profile.Capabilities
	a.logger.Info("Model capabilities",
		zap.String("model", a.modelName),
		zap.String("display_name", a.profile.DisplayName),
		zap.Bool("search_grounding", c.SearchGrounding),
		zap.Bool("multi_reference", c.MultiReference),
		zap.Int("max_reference_images", c.MaxReferenceImages),
		zap.Bool("internal_reasoning", c.InternalReasoning),
		zap.Bool("physics_aware", c.PhysicsAwareSynthesis),
		zap.Bool("native_text", c.NativeTextRendering),
		zap.Bool("iterative_refinement", c.IterativeRefinement),
		zap.String("max_resolution", c.MaxResolution),
	)
}

func (a *Adapter) logAdjustment(what string) {
	a.logger.Info("Adapting settings to model capability",
		zap.String("model", a.modelName),
		zap.String("adjustment", what),
	)
}

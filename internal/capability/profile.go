// Package capability describes what each image model can do and
// adapts requested pipeline settings to those limits.
package capability

import "time"

// Feature names for capability lookups.
const (
	FeatureSearchGrounding       = "search_grounding"
	FeatureMultiReference        = "multi_reference_images"
	FeatureInternalReasoning     = "internal_reasoning"
	FeaturePhysicsAwareSynthesis = "physics_aware_synthesis"
	FeatureNativeTextRendering   = "native_text_rendering"
	FeatureIterativeRefinement   = "iterative_refinement"
)

// Capabilities lists the hard features of one image model.
type Capabilities struct {
	SearchGrounding       bool
	MultiReference        bool
	MaxReferenceImages    int
	InternalReasoning     bool
	PhysicsAwareSynthesis bool
	NativeTextRendering   bool
	IterativeRefinement   bool
	SupportedResolutions  []string
	MaxResolution         string
	TypicalGeneration     time.Duration
	SupportsBatch         bool
}

// Has resolves a feature name against the capability set. Unknown
// names resolve to false.
func (c Capabilities) Has(feature string) bool {
	switch feature {
	case FeatureSearchGrounding:
		return c.SearchGrounding
	case FeatureMultiReference:
		return c.MultiReference
	case FeatureInternalReasoning:
		return c.InternalReasoning
	case FeaturePhysicsAwareSynthesis:
		return c.PhysicsAwareSynthesis
	case FeatureNativeTextRendering:
		return c.NativeTextRendering
	case FeatureIterativeRefinement:
		return c.IterativeRefinement
	}
	return false
}

// GenerationConfig is the model-tuned generation policy.
type GenerationConfig struct {
	EnablePreflightChecks     bool
	EnableIterativeRefinement bool
	MaxInternalIterations     int
	QualityThreshold          float64
	ConfidenceThreshold       float64
	EnableSearchGrounding     bool
	EnableReferenceImages     bool
	MaxReferenceImagesToUse   int
	MaxGenerationAttempts     int
	EnableSmartRetry          bool
}

// EvaluationConfig is the model-tuned evaluation policy, including
// criterion weights for the weighted overall score.
type EvaluationConfig struct {
	UseHolisticReasoning     bool
	ReasoningPasses          int
	AutonomousErrorDetection bool
	VisualCoherenceChecking  bool
	EnableFactChecking       bool
	TechnicalWeight          float64
	VisualQualityWeight      float64
	StyleAdherenceWeight     float64
	HistoricalAccuracyWeight float64
}

// Profile bundles everything known about one model.
type Profile struct {
	ModelName   string
	DisplayName string
	Description string
	ReleaseDate string
	Recommended bool

	Capabilities Capabilities
	Generation   GenerationConfig
	Evaluation   EvaluationConfig
}

package capability

import (
	"sort"
	"time"
)

const (
	// ModelGemini3ProImage is the current full-capability image model.
	ModelGemini3ProImage = "gemini-3-pro-image-preview"
	// ModelExp1206 is an older experimental model kept for comparison runs.
	ModelExp1206 = "gemini-exp-1206"
	// ModelFlash2 is the fast low-cost model.
	ModelFlash2 = "gemini-2.0-flash-exp"
)

var registry = map[string]*Profile{
	ModelGemini3ProImage: {
		ModelName:   ModelGemini3ProImage,
		DisplayName: "Gemini 3 Pro Image",
		Description: "Full agentic image generation with grounding, reasoning, and multi-reference conditioning",
		ReleaseDate: "2025-11",
		Recommended: true,
		Capabilities: Capabilities{
			SearchGrounding:       true,
			MultiReference:        true,
			MaxReferenceImages:    14,
			InternalReasoning:     true,
			PhysicsAwareSynthesis: true,
			NativeTextRendering:   true,
			IterativeRefinement:   true,
			SupportedResolutions:  []string{"1K", "2K", "4K"},
			MaxResolution:         "4K",
			TypicalGeneration:     45 * time.Second,
			SupportsBatch:         true,
		},
		Generation: GenerationConfig{
			EnablePreflightChecks:     true,
			EnableIterativeRefinement: true,
			MaxInternalIterations:     3,
			QualityThreshold:          0.90,
			ConfidenceThreshold:       0.85,
			EnableSearchGrounding:     true,
			EnableReferenceImages:     true,
			MaxReferenceImagesToUse:   14,
			MaxGenerationAttempts:     2,
			EnableSmartRetry:          true,
		},
		Evaluation: EvaluationConfig{
			UseHolisticReasoning:     true,
			ReasoningPasses:          2,
			AutonomousErrorDetection: true,
			VisualCoherenceChecking:  true,
			EnableFactChecking:       true,
			TechnicalWeight:          0.25,
			VisualQualityWeight:      0.25,
			StyleAdherenceWeight:     0.25,
			HistoricalAccuracyWeight: 0.25,
		},
	},
	ModelExp1206: {
		ModelName:   ModelExp1206,
		DisplayName: "Gemini Experimental 1206",
		Description: "Legacy experimental model without agentic features",
		ReleaseDate: "2024-12",
		Capabilities: Capabilities{
			MaxReferenceImages:   0,
			SupportedResolutions: []string{"1K"},
			MaxResolution:        "1K",
			TypicalGeneration:    30 * time.Second,
		},
		Generation: GenerationConfig{
			MaxInternalIterations: 1,
			QualityThreshold:      0.80,
			ConfidenceThreshold:   0.75,
			MaxGenerationAttempts: 2,
		},
		Evaluation: EvaluationConfig{
			ReasoningPasses:          1,
			TechnicalWeight:          0.25,
			VisualQualityWeight:      0.25,
			StyleAdherenceWeight:     0.25,
			HistoricalAccuracyWeight: 0.25,
		},
	},
	ModelFlash2: {
		ModelName:   ModelFlash2,
		DisplayName: "Gemini 2.0 Flash",
		Description: "Fast model with native text rendering only",
		ReleaseDate: "2024-12",
		Capabilities: Capabilities{
			NativeTextRendering:  true,
			MaxReferenceImages:   0,
			SupportedResolutions: []string{"1K"},
			MaxResolution:        "1K",
			TypicalGeneration:    15 * time.Second,
		},
		Generation: GenerationConfig{
			MaxInternalIterations: 1,
			QualityThreshold:      0.75,
			ConfidenceThreshold:   0.70,
			MaxGenerationAttempts: 2,
		},
		Evaluation: EvaluationConfig{
			ReasoningPasses:          1,
			TechnicalWeight:          0.25,
			VisualQualityWeight:      0.25,
			StyleAdherenceWeight:     0.25,
			HistoricalAccuracyWeight: 0.25,
		},
	},
}

// Lookup returns the profile for a model name, or (nil, false) for an
// unknown model. Callers treat unknown models as fully legacy.
func Lookup(modelName string) (*Profile, bool) {
	p, ok := registry[modelName]
	return p, ok
}

// RecommendedModel returns the name of the model marked recommended.
func RecommendedModel() string {
	for name, p := range registry {
		if p.Recommended {
			return name
		}
	}
	return ModelGemini3ProImage
}

// ListModels returns all registered model names sorted alphabetically.
func ListModels() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

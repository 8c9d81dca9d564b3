// Package ai wraps the Gemini and OpenAI clients behind a manager that
// handles fallback, rate limiting, and circuit breaking for the
// portrait pipeline.
package ai

import (
	"context"
	"fmt"
)

// TextProvider generates free-form text for research and evaluation
// queries.
type TextProvider interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts *GenerateOptions) (ProviderResult, error)
	Ping(ctx context.Context) bool
}

type GenerateOptions struct {
	Model           string
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
	Grounded        bool
}

type ProviderResult struct {
	Text  string
	Model string
}

// ImageRequest describes one image generation call.
type ImageRequest struct {
	Prompt          string
	Model           string
	AspectRatio     string
	ReferencePaths  []string
	EnableGrounding bool
	MaxIterations   int
}

// GenerationResult is the outcome of a successful image generation.
type GenerationResult struct {
	Data                []byte
	MIMEType            string
	Confidence          float64
	Iterations          int
	Reasoning           string
	GroundingUsed       bool
	ReferenceImagesUsed int
}

var validAspectRatios = map[string]struct{}{
	"1:1":  {},
	"3:4":  {},
	"4:3":  {},
	"9:16": {},
	"16:9": {},
}

// ValidateAspectRatio rejects unsupported ratios before any network
// call is made.
func ValidateAspectRatio(ratio string) error {
	if _, ok := validAspectRatios[ratio]; !ok {
		return fmt.Errorf("unsupported aspect ratio %q (supported: 1:1, 3:4, 4:3, 9:16, 16:9)", ratio)
	}
	return nil
}

package ai

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kapu/portrait-gen-go/internal/constants"
	"github.com/kapu/portrait-gen-go/internal/util"
)

// GeminiProvider wraps the Gemini client for both text queries and
// image generation.
type GeminiProvider struct {
	client     *genai.Client
	textModel  string
	imageModel string
	logger     *zap.Logger
}

func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

func NewGeminiProvider(client *genai.Client, textModel, imageModel string, logger *zap.Logger) *GeminiProvider {
	if textModel == "" {
		textModel = "gemini-2.5-flash"
	}
	return &GeminiProvider{
		client:     client,
		textModel:  textModel,
		imageModel: imageModel,
		logger:     logger,
	}
}

func (g *GeminiProvider) Name() string {
	return "Gemini"
}

func (g *GeminiProvider) Client() *genai.Client {
	return g.client
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, opts *GenerateOptions) (ProviderResult, error) {
	if g.client == nil {
		return ProviderResult{}, fmt.Errorf("gemini client not initialized")
	}

	modelName := g.getModel(opts)

	temp := float32(0.7)
	topP := float32(0.95)
	maxTokens := int32(constants.AIInputLimits.MaxOutputTokens)
	grounded := false

	if opts != nil {
		if opts.Temperature > 0 {
			temp = opts.Temperature
		}
		if opts.TopP > 0 {
			topP = opts.TopP
		}
		if opts.MaxOutputTokens > 0 {
			maxTokens = opts.MaxOutputTokens
		}
		grounded = opts.Grounded
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: maxTokens,
	}

	if grounded {
		genConfig.Tools = []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		}
	}

	g.logger.Debug("Generating with Gemini",
		zap.String("model", modelName),
		zap.Bool("grounded", grounded),
	)

	resp, err := g.client.Models.GenerateContent(ctx, modelName, []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}, genConfig)

	if err != nil {
		g.logger.Error("Gemini generation failed", zap.Error(err))
		return ProviderResult{}, err
	}

	text := extractText(resp)
	if text == "" {
		return ProviderResult{}, fmt.Errorf("empty response from Gemini")
	}

	g.logger.Debug("Gemini response received", zap.Int("length", len(text)))
	return ProviderResult{Text: text, Model: modelName}, nil
}

// GenerateImage runs one image generation call. The aspect ratio is
// validated before any network traffic. Reference images are attached
// as inline blobs read from disk; unreadable files are skipped with a
// warning rather than failing the call.
func (g *GeminiProvider) GenerateImage(ctx context.Context, req ImageRequest) (*GenerationResult, error) {
	if g.client == nil {
		return nil, fmt.Errorf("gemini client not initialized")
	}
	if err := ValidateAspectRatio(req.AspectRatio); err != nil {
		return nil, err
	}

	modelName := req.Model
	if modelName == "" {
		modelName = g.imageModel
	}
	if modelName == "" {
		return nil, fmt.Errorf("no image model configured")
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}

	attached := 0
	for _, path := range req.ReferencePaths {
		data, err := os.ReadFile(path)
		if err != nil {
			g.logger.Warn("Skipping unreadable reference image",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: mimeTypeForPath(path),
				Data:     data,
			},
		})
		attached++
	}

	genConfig := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: req.AspectRatio,
		},
	}

	if req.EnableGrounding {
		genConfig.Tools = []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		}
	}

	g.logger.Info("Generating image with Gemini",
		zap.String("model", modelName),
		zap.String("aspect_ratio", req.AspectRatio),
		zap.Int("reference_images", attached),
		zap.Bool("grounding", req.EnableGrounding),
	)

	resp, err := g.client.Models.GenerateContent(ctx, modelName, []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}, genConfig)

	if err != nil {
		g.logger.Error("Gemini image generation failed", zap.Error(err))
		return nil, err
	}

	result := &GenerationResult{
		Confidence:          0.90,
		Iterations:          util.Max(req.MaxIterations, 1),
		GroundingUsed:       req.EnableGrounding,
		ReferenceImagesUsed: attached,
	}

	var reasoning []string
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 && result.Data == nil {
				result.Data = part.InlineData.Data
				result.MIMEType = part.InlineData.MIMEType
			}
			if part.Text != "" {
				reasoning = append(reasoning, part.Text)
			}
		}
	}
	result.Reasoning = strings.Join(reasoning, "\n")

	if result.Data == nil {
		return nil, fmt.Errorf("no image data in Gemini response")
	}

	g.logger.Info("Image generated",
		zap.Int("bytes", len(result.Data)),
		zap.String("mime_type", result.MIMEType),
	)
	return result, nil
}

// GenerateVision answers a text prompt about an attached image.
func (g *GeminiProvider) GenerateVision(ctx context.Context, prompt string, imageData []byte, mimeType string) (ProviderResult, error) {
	if g.client == nil {
		return ProviderResult{}, fmt.Errorf("gemini client not initialized")
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	maxTokens := int32(constants.AIInputLimits.EvaluationTokens)
	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: maxTokens,
	}

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: imageData}},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}, genConfig)

	if err != nil {
		g.logger.Error("Gemini vision query failed", zap.Error(err))
		return ProviderResult{}, err
	}

	text := extractText(resp)
	if text == "" {
		return ProviderResult{}, fmt.Errorf("empty response from Gemini")
	}
	return ProviderResult{Text: text, Model: g.textModel}, nil
}

func (g *GeminiProvider) Ping(ctx context.Context) bool {
	if g.client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	g.logger.Debug("Pinging Gemini API...")

	temp := float32(0)
	topP := float32(1)
	topK := float32(1)

	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		TopK:            &topK,
		MaxOutputTokens: 10,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, []*genai.Content{
		{Parts: []*genai.Part{{Text: "ping"}}},
	}, config)

	if err != nil {
		g.logger.Debug("Gemini ping failed", zap.Error(err))
		return false
	}

	return extractText(resp) != ""
}

func (g *GeminiProvider) getModel(opts *GenerateOptions) string {
	if opts != nil && opts.Model != "" {
		return opts.Model
	}
	return g.textModel
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}

	return strings.Join(texts, "")
}

func mimeTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

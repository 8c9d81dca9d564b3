package ai

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kapu/portrait-gen-go/internal/constants"
	"github.com/kapu/portrait-gen-go/internal/util"
	"github.com/kapu/portrait-gen-go/pkg/errors"
)

// ModelManager fronts all model traffic for the pipeline: Gemini as
// primary for text, grounded queries, and image generation, with an
// optional OpenAI fallback for plain text. All calls share one rate
// limiter and one circuit breaker.
type ModelManager struct {
	gemini         *GeminiProvider
	openai         *OpenAIProvider
	logger         *zap.Logger
	enableFallback bool
	circuitBreaker *util.CircuitBreaker
	limiter        *rate.Limiter
}

type ModelManagerConfig struct {
	GeminiAPIKey   string
	OpenAIAPIKey   string
	TextModel      string
	ImageModel     string
	OpenAIModel    string
	EnableFallback bool
}

func NewModelManager(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	client, err := NewGeminiClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	mm := &ModelManager{
		gemini:         NewGeminiProvider(client, cfg.TextModel, cfg.ImageModel, logger),
		logger:         logger,
		enableFallback: cfg.EnableFallback && cfg.OpenAIAPIKey != "",
	}

	if cfg.OpenAIAPIKey != "" {
		mm.openai = NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
		logger.Info("OpenAI fallback enabled", zap.String("model", cfg.OpenAIModel))
	} else {
		logger.Info("OpenAI fallback disabled (no API key)")
	}

	mm.circuitBreaker = util.NewCircuitBreaker(
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		constants.CircuitBreakerConfig.HealthCheckInterval,
		mm.healthCheckPing,
		logger,
	)

	perMinute := constants.RateLimitConfig.RequestsPerMinute
	mm.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), constants.RateLimitConfig.Burst)

	return mm, nil
}

// GenerateText answers a plain text prompt, falling back to OpenAI
// when the primary fails and fallback is enabled.
func (mm *ModelManager) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := mm.acquire(ctx); err != nil {
		return "", err
	}

	result, geminiErr := mm.gemini.Generate(ctx, prompt, nil)
	if geminiErr == nil {
		mm.circuitBreaker.RecordSuccess()
		return result.Text, nil
	}

	if mm.enableFallback && mm.openai != nil {
		fallbackResult, openaiErr := mm.openai.Generate(ctx, prompt, nil)
		if openaiErr == nil {
			mm.circuitBreaker.RecordSuccess()
			return fallbackResult.Text, nil
		}
		mm.recordFailure(geminiErr, openaiErr)
		return "", errors.NewServiceError("all text providers failed", "ai", "generate_text", geminiErr)
	}

	mm.recordFailure(geminiErr, nil)
	return "", geminiErr
}

// GenerateGrounded answers a query with Google Search grounding.
// Grounding is Gemini-only; when it fails and fallback is enabled the
// query is retried ungrounded against OpenAI so research can degrade
// instead of aborting.
func (mm *ModelManager) GenerateGrounded(ctx context.Context, query string) (string, error) {
	if err := mm.acquire(ctx); err != nil {
		return "", err
	}

	result, geminiErr := mm.gemini.Generate(ctx, query, &GenerateOptions{Grounded: true})
	if geminiErr == nil {
		mm.circuitBreaker.RecordSuccess()
		return result.Text, nil
	}

	if mm.enableFallback && mm.openai != nil {
		mm.logger.Warn("Grounded query failed, degrading to ungrounded fallback",
			zap.Error(geminiErr),
		)
		fallbackResult, openaiErr := mm.openai.Generate(ctx, query, nil)
		if openaiErr == nil {
			mm.circuitBreaker.RecordSuccess()
			return fallbackResult.Text, nil
		}
		mm.recordFailure(geminiErr, openaiErr)
		return "", errors.NewServiceError("all providers failed for grounded query", "ai", "generate_grounded", geminiErr)
	}

	mm.recordFailure(geminiErr, nil)
	return "", geminiErr
}

// GenerateVision answers a text prompt about an image. Vision queries
// are Gemini-only.
func (mm *ModelManager) GenerateVision(ctx context.Context, prompt string, imageData []byte) (string, error) {
	if err := mm.acquire(ctx); err != nil {
		return "", err
	}

	result, err := mm.gemini.GenerateVision(ctx, prompt, imageData, "image/png")
	if err != nil {
		mm.recordFailure(err, nil)
		return "", err
	}

	mm.circuitBreaker.RecordSuccess()
	return result.Text, nil
}

// GenerateImage runs one image generation call against Gemini. There
// is no image fallback provider.
func (mm *ModelManager) GenerateImage(ctx context.Context, req ImageRequest) (*GenerationResult, error) {
	if err := mm.acquire(ctx); err != nil {
		return nil, err
	}

	result, err := mm.gemini.GenerateImage(ctx, req)
	if err != nil {
		mm.recordFailure(err, nil)
		return nil, err
	}

	mm.circuitBreaker.RecordSuccess()
	return result, nil
}

// acquire gates a call on the circuit breaker and the shared rate
// limiter, in that order.
func (mm *ModelManager) acquire(ctx context.Context) error {
	if !mm.circuitBreaker.CanExecute() {
		status := mm.circuitBreaker.GetStatus()
		nextRetry := "unknown"
		if status.NextRetryTime != nil {
			nextRetry = status.NextRetryTime.Format(time.RFC3339)
		}

		mm.logger.Error("AI service unavailable (circuit OPEN)",
			zap.String("state", status.State.String()),
			zap.Int("failure_count", status.FailureCount),
			zap.String("next_retry", nextRetry),
		)

		return errors.NewServiceError(
			fmt.Sprintf("AI service unavailable, retrying at %s", nextRetry),
			"ai", "circuit_breaker", nil,
		)
	}

	if err := mm.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

func (mm *ModelManager) recordFailure(primaryErr, fallbackErr error) {
	if !mm.isServiceFailure(primaryErr) && !mm.isServiceFailure(fallbackErr) {
		return
	}
	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if mm.isRateLimitError(primaryErr) || mm.isRateLimitError(fallbackErr) {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}
	mm.circuitBreaker.RecordFailure(timeout)
}

func (mm *ModelManager) healthCheckPing() bool {
	mm.logger.Info("Health check: testing AI services...")

	ctx, cancel := context.WithTimeout(context.Background(), constants.CircuitBreakerConfig.HealthCheckTimeout)
	defer cancel()

	geminiOK := mm.gemini.Ping(ctx)
	openaiOK := false

	if mm.enableFallback && mm.openai != nil {
		openaiOK = mm.openai.Ping(ctx)
	}

	isHealthy := geminiOK || openaiOK

	mm.logger.Info("Health check: result",
		zap.Bool("gemini", geminiOK),
		zap.Bool("openai", openaiOK),
		zap.Bool("healthy", isHealthy),
	)

	return isHealthy
}

func (mm *ModelManager) isServiceFailure(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	if strings.Contains(msg, "timeout") || strings.Contains(msg, "ETIMEDOUT") {
		return true
	}

	if mm.isRateLimitError(err) {
		return true
	}

	statusRegex := regexp.MustCompile(`\b(5\d{2})\b`)
	if statusRegex.MatchString(msg) {
		return true
	}

	geminiCodeRegex := regexp.MustCompile(`"code":(\d{3})`)
	if matches := geminiCodeRegex.FindStringSubmatch(msg); len(matches) > 1 {
		if code, err := strconv.Atoi(matches[1]); err == nil {
			return code >= 500 && code < 600
		}
	}

	openaiCodeRegex := regexp.MustCompile(`^(\d{3})\s`)
	if matches := openaiCodeRegex.FindStringSubmatch(msg); len(matches) > 1 {
		if code, err := strconv.Atoi(matches[1]); err == nil {
			return code >= 500 && code < 600
		}
	}

	return false
}

func (mm *ModelManager) isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	if strings.Contains(msg, "429") || strings.Contains(msg, "Rate limit") || strings.Contains(msg, "quota") {
		return true
	}

	geminiCodeRegex := regexp.MustCompile(`"code":(\d{3})`)
	if matches := geminiCodeRegex.FindStringSubmatch(msg); len(matches) > 1 {
		if code, err := strconv.Atoi(matches[1]); err == nil {
			return code == 429
		}
	}

	return false
}

func (mm *ModelManager) GetCircuitStatus() util.CircuitBreakerStatus {
	return mm.circuitBreaker.GetStatus()
}

func (mm *ModelManager) ResetCircuit() {
	mm.circuitBreaker.Reset()
}

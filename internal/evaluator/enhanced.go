package evaluator

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/portrait-gen-go/internal/capability"
	"github.com/kapu/portrait-gen-go/internal/constants"
	"github.com/kapu/portrait-gen-go/internal/domain"
	"github.com/kapu/portrait-gen-go/internal/util"
	pkgerrors "github.com/kapu/portrait-gen-go/pkg/errors"
)

// ReasoningBackend is the slice of the model manager the enhanced
// evaluator needs.
type ReasoningBackend interface {
	GenerateVision(ctx context.Context, prompt string, imageData []byte) (string, error)
	GenerateGrounded(ctx context.Context, query string) (string, error)
}

var (
	qualityScoreRe   = regexp.MustCompile(`QUALITY_SCORE:\s*([0-9.]+)`)
	coherenceScoreRe = regexp.MustCompile(`COHERENCE_SCORE:\s*([0-9.]+)`)
	accuracyScoreRe  = regexp.MustCompile(`ACCURACY_SCORE:\s*([0-9.]+)`)
	issuesRe         = regexp.MustCompile(`ISSUES:\s*\[(.*?)\]`)
	feedbackRe       = regexp.MustCompile(`FEEDBACK:\s*\[(.*?)\]`)
)

// Enhanced runs model-assisted reasoning passes on top of the basic
// pixel evaluation and combines everything into a weighted verdict.
// Any model failure degrades to documented default scores rather than
// failing the evaluation.
type Enhanced struct {
	backend          ReasoningBackend
	cfg              capability.EvaluationConfig
	qualityThreshold float64
	basic            *Evaluator
	logger           *zap.Logger
}

func NewEnhanced(backend ReasoningBackend, cfg capability.EvaluationConfig, qualityThreshold float64, basic *Evaluator, logger *zap.Logger) *Enhanced {
	return &Enhanced{
		backend:          backend,
		cfg:              cfg,
		qualityThreshold: qualityThreshold,
		basic:            basic,
		logger:           logger,
	}
}

// Evaluate scores one portrait with reasoning passes, coherence
// checking, and grounded fact verification as the model config allows.
func (e *Enhanced) Evaluate(ctx context.Context, img image.Image, bio *domain.Biography, style domain.Style) (*domain.EvaluationResult, error) {
	result, err := e.basic.Evaluate(img, bio, style)
	if err != nil {
		return nil, pkgerrors.NewEvaluationError("pixel analysis failed", style.String(), err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		e.logger.Warn("Could not encode image for reasoning passes, keeping basic scores", zap.Error(err))
		return result, nil
	}
	imageData := buf.Bytes()

	if e.cfg.UseHolisticReasoning {
		holistic, issues, feedback := e.holisticPasses(ctx, imageData, bio, style)
		result.Scores[domain.CriterionHolisticQuality] = holistic
		result.Issues = unionStrings(result.Issues, issues)
		result.Feedback = unionStrings(result.Feedback, feedback)
	}

	if e.cfg.VisualCoherenceChecking {
		result.Scores[domain.CriterionVisualCoherence] = e.coherenceScore(ctx, imageData)
	}

	if e.cfg.EnableFactChecking {
		result.Scores[domain.CriterionHistoricalAccuracy] = e.groundedAccuracy(ctx, bio, style)
	}

	overall := e.weightedOverall(result.Scores)
	result.Passed = overall >= e.qualityThreshold && len(result.Issues) == 0

	e.logger.Info("Enhanced evaluation complete",
		zap.String("subject", bio.Name),
		zap.String("style", style.String()),
		zap.Float64("overall", overall),
		zap.Float64("threshold", e.qualityThreshold),
		zap.Bool("passed", result.Passed),
		zap.Int("issues", len(result.Issues)),
	)
	return result, nil
}

// holisticPasses runs the configured number of rubric critiques and
// averages them. Scores default when no pass parses; issue and
// feedback lists are deduplicated across passes.
func (e *Enhanced) holisticPasses(ctx context.Context, imageData []byte, bio *domain.Biography, style domain.Style) (float64, []string, []string) {
	passes := util.Max(e.cfg.ReasoningPasses, 1)

	var scores []float64
	var issues, feedback []string

	for i := 0; i < passes; i++ {
		response, err := e.backend.GenerateVision(ctx, holisticPrompt(bio, style), imageData)
		if err != nil {
			e.logger.Warn("Reasoning pass failed",
				zap.Int("pass", i+1),
				zap.Error(err),
			)
			continue
		}

		if score, ok := parseScore(qualityScoreRe, response); ok {
			scores = append(scores, score)
		}
		issues = append(issues, parseBracketList(issuesRe, response)...)
		feedback = append(feedback, parseBracketList(feedbackRe, response)...)
	}

	avg := util.MeanFloat(scores, constants.EvalThresholds.DefaultHolisticScore)
	return avg, util.UniqueStrings(issues), util.UniqueStrings(feedback)
}

func (e *Enhanced) coherenceScore(ctx context.Context, imageData []byte) float64 {
	prompt := `Inspect this portrait for visual coherence: consistent lighting, correct anatomy, no duplicated or distorted features.
Respond with exactly one line: COHERENCE_SCORE: <0.0-1.0>`

	response, err := e.backend.GenerateVision(ctx, prompt, imageData)
	if err != nil {
		e.logger.Warn("Coherence check failed, using default", zap.Error(err))
		return constants.EvalThresholds.DefaultCoherenceScore
	}

	if score, ok := parseScore(coherenceScoreRe, response); ok {
		return score
	}
	return constants.EvalThresholds.DefaultCoherenceScore
}

func (e *Enhanced) groundedAccuracy(ctx context.Context, bio *domain.Biography, style domain.Style) float64 {
	query := fmt.Sprintf(`A %s portrait of %s (%s, %s) was generated. Using search, verify whether such a depiction is historically plausible for that era's portrait conventions.
Respond with exactly one line: ACCURACY_SCORE: <0.0-1.0>`,
		style, bio.Name, bio.YearsLabel(), bio.Era)

	response, err := e.backend.GenerateGrounded(ctx, query)
	if err != nil {
		e.logger.Warn("Grounded accuracy check failed, using default", zap.Error(err))
		return constants.EvalThresholds.DefaultAccuracyScore
	}

	if score, ok := parseScore(accuracyScoreRe, response); ok {
		return score
	}
	return constants.EvalThresholds.DefaultAccuracyScore
}

// weightedOverall combines scores with the profile weights. Holistic
// quality shares the visual weight; coherence carries its own small
// fixed weight. Only criteria that were actually scored contribute.
func (e *Enhanced) weightedOverall(scores map[string]float64) float64 {
	weights := map[string]float64{
		domain.CriterionTechnical:          e.cfg.TechnicalWeight,
		domain.CriterionVisualQuality:      e.cfg.VisualQualityWeight,
		domain.CriterionStyleAdherence:     e.cfg.StyleAdherenceWeight,
		domain.CriterionHistoricalAccuracy: e.cfg.HistoricalAccuracyWeight,
		domain.CriterionHolisticQuality:    e.cfg.VisualQualityWeight,
		domain.CriterionVisualCoherence:    constants.EvalThresholds.CoherenceWeight,
	}

	weightedSum := 0.0
	totalWeight := 0.0
	for criterion, score := range scores {
		w, ok := weights[criterion]
		if !ok || w == 0 {
			continue
		}
		weightedSum += w * score
		totalWeight += w
	}

	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

func holisticPrompt(bio *domain.Biography, style domain.Style) string {
	return fmt.Sprintf(`You are reviewing a generated %s portrait of %s (%s), a figure of the %s.
Critique it holistically: likeness plausibility, era fidelity, composition, and craft.
Respond with exactly these lines:
QUALITY_SCORE: <0.0-1.0>
ISSUES: [comma-separated concrete defects, or none]
FEEDBACK: [comma-separated improvement suggestions, or none]`,
		style, bio.Name, bio.YearsLabel(), bio.Era)
}

func parseScore(re *regexp.Regexp, response string) (float64, bool) {
	m := re.FindStringSubmatch(response)
	if m == nil {
		return 0, false
	}
	score, err := strconv.ParseFloat(strings.TrimRight(m[1], "."), 64)
	if err != nil || score < 0 || score > 1 {
		return 0, false
	}
	return score, true
}

// parseBracketList splits a bracketed comma list, dropping empties and
// the literal "none".
func parseBracketList(re *regexp.Regexp, response string) []string {
	m := re.FindStringSubmatch(response)
	if m == nil {
		return nil
	}

	var items []string
	for _, part := range strings.Split(m[1], ",") {
		item := strings.TrimSpace(part)
		if item == "" || strings.EqualFold(item, "none") {
			continue
		}
		items = append(items, item)
	}
	return items
}

func unionStrings(a, b []string) []string {
	return util.UniqueStrings(append(append([]string{}, a...), b...))
}

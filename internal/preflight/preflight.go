// Package preflight validates subject data, prompts, and references
// before any generation cost is incurred. Results are advisory:
// callers log them and proceed.
package preflight

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/portrait-gen-go/internal/constants"
	"github.com/kapu/portrait-gen-go/internal/domain"
	"github.com/kapu/portrait-gen-go/internal/util"
)

// GroundedBackend runs the grounded fact-check queries.
type GroundedBackend interface {
	GenerateGrounded(ctx context.Context, query string) (string, error)
}

// Result is the advisory outcome of a preflight pass.
type Result struct {
	IsValid         bool
	Confidence      float64
	Issues          []string
	Warnings        []string
	Recommendations []string
	FactChecks      map[string]bool
	References      ReferenceValidation
}

// ReferenceValidation summarizes the reference set quality.
type ReferenceValidation struct {
	TotalImages    int
	AuthenticCount int
	AverageQuality float64
	Issues         []string
	Warnings       []string
}

// Words that pull generation toward non-photographic output.
var problematicWords = []string{"cartoon", "anime", "sketch", "drawing"}

var negativeKeywords = []string{"incorrect", "inaccurate", "false", "no", "wrong"}
var positiveKeywords = []string{"correct", "accurate", "verified", "yes", "confirmed"}

type Validator struct {
	backend            GroundedBackend
	enableFactChecking bool
	logger             *zap.Logger
}

func NewValidator(backend GroundedBackend, enableFactChecking bool, logger *zap.Logger) *Validator {
	return &Validator{
		backend:            backend,
		enableFactChecking: enableFactChecking && backend != nil,
		logger:             logger,
	}
}

// Validate runs every check and folds the findings into a confidence
// score. The result never blocks generation by itself.
func (v *Validator) Validate(ctx context.Context, bio *domain.Biography, style domain.Style, prompt string, refs []domain.ReferenceImage) *Result {
	result := &Result{FactChecks: map[string]bool{}}

	result.Issues = append(result.Issues, subjectIssues(bio)...)

	failedChecks := 0
	if v.enableFactChecking {
		failedChecks = v.runFactChecks(ctx, bio, result)
	}

	if !style.Valid() {
		result.Issues = append(result.Issues, fmt.Sprintf("unknown style %q", style))
	}

	result.Warnings = append(result.Warnings, promptWarnings(prompt, bio)...)

	result.References = validateReferences(refs)
	result.Warnings = append(result.Warnings, result.References.Warnings...)
	result.Issues = append(result.Issues, result.References.Issues...)

	result.Warnings = append(result.Warnings, pitfallWarnings(bio, style)...)
	result.Recommendations = recommendations(bio, style, result.Warnings)

	result.Confidence = util.Clamp01(1.0 -
		constants.PreflightConfig.IssuePenalty*float64(len(result.Issues)) -
		constants.PreflightConfig.WarningPenalty*float64(len(result.Warnings)) -
		constants.PreflightConfig.FactCheckPenalty*float64(failedChecks))

	result.IsValid = len(result.Issues) == 0 && result.Confidence > constants.PreflightConfig.MinConfidence

	v.logger.Info("Preflight complete",
		zap.String("subject", bio.Name),
		zap.String("style", style.String()),
		zap.Bool("valid", result.IsValid),
		zap.Float64("confidence", result.Confidence),
		zap.Int("issues", len(result.Issues)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Int("failed_fact_checks", failedChecks),
	)
	return result
}

// QuickCheck runs only the zero-cost data and style checks.
func (v *Validator) QuickCheck(bio *domain.Biography, style domain.Style) bool {
	if len(subjectIssues(bio)) > 0 {
		return false
	}
	return style.Valid()
}

func subjectIssues(bio *domain.Biography) []string {
	var issues []string

	if len(strings.TrimSpace(bio.Name)) < constants.PreflightConfig.MinNameLength {
		issues = append(issues, "subject name is too short to research reliably")
	}
	if strings.TrimSpace(bio.Era) == "" {
		issues = append(issues, "subject has no recorded era")
	}
	if bio.BirthYear == 0 {
		issues = append(issues, "subject has no recorded birth year")
	} else if bio.BirthYear < constants.PreflightConfig.MinPlausibleBirth {
		issues = append(issues, fmt.Sprintf("birth year %d predates photographic records", bio.BirthYear))
	}
	if bio.DeathYear != nil && *bio.DeathYear < bio.BirthYear {
		issues = append(issues, "death year precedes birth year")
	}
	if bio.BirthYear > 0 && bio.Lifespan(util.CurrentYear()) > constants.PreflightConfig.MaxLifespan {
		issues = append(issues, fmt.Sprintf("lifespan exceeds %d years", constants.PreflightConfig.MaxLifespan))
	}

	return issues
}

// runFactChecks verifies birth year, death year, and era via grounded
// queries. It returns the number of failed checks.
func (v *Validator) runFactChecks(ctx context.Context, bio *domain.Biography, result *Result) int {
	checks := map[string]string{
		"birth_year": fmt.Sprintf("Is %d the correct birth year of %s? Answer briefly.", bio.BirthYear, bio.Name),
		"era":        fmt.Sprintf("Did %s live during the %s? Answer briefly.", bio.Name, bio.Era),
	}
	if bio.DeathYear != nil {
		checks["death_year"] = fmt.Sprintf("Is %d the correct death year of %s? Answer briefly.", *bio.DeathYear, bio.Name)
	}

	failed := 0
	for name, query := range checks {
		response, err := v.backend.GenerateGrounded(ctx, query)
		if err != nil {
			// Fail open: an unreachable checker is not evidence of bad data.
			v.logger.Warn("Fact check query failed, assuming pass",
				zap.String("check", name),
				zap.Error(err),
			)
			result.FactChecks[name] = true
			continue
		}

		passed := ParseVerification(response)
		result.FactChecks[name] = passed
		if !passed {
			failed++
			result.Issues = append(result.Issues, fmt.Sprintf("fact check %q came back negative", name))
		}
	}
	return failed
}

// ParseVerification reads a yes/no verdict out of a fact-check
// response. Negative keywords win over positive ones; an unparseable
// or empty response passes.
func ParseVerification(response string) bool {
	lower := strings.ToLower(response)
	for _, word := range negativeKeywords {
		if containsWord(lower, word) {
			return false
		}
	}
	for _, word := range positiveKeywords {
		if containsWord(lower, word) {
			return true
		}
	}
	return true
}

// containsWord matches whole words only, so "no" does not fire inside
// "known" or "notable".
func containsWord(text, word string) bool {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	for _, f := range fields {
		if f == word {
			return true
		}
	}
	return false
}

func promptWarnings(prompt string, bio *domain.Biography) []string {
	var warnings []string

	if len(prompt) < constants.PreflightConfig.MinPromptLength {
		warnings = append(warnings, "prompt is unusually short")
	}
	if !strings.Contains(prompt, bio.Name) {
		warnings = append(warnings, "prompt does not mention the subject by name")
	}
	if bio.Era != "" && !strings.Contains(prompt, bio.Era) {
		warnings = append(warnings, "prompt does not mention the subject's era")
	}

	lower := strings.ToLower(prompt)
	for _, word := range problematicWords {
		if strings.Contains(lower, word) {
			warnings = append(warnings, fmt.Sprintf("prompt contains style-conflicting word %q", word))
		}
	}

	return warnings
}

func validateReferences(refs []domain.ReferenceImage) ReferenceValidation {
	rv := ReferenceValidation{TotalImages: len(refs)}
	if len(refs) == 0 {
		return rv
	}

	qualitySum := 0.0
	for _, ref := range refs {
		qualitySum += ref.QualityScore
		if ref.AuthenticityScore >= constants.ReferenceScores.MinAuthenticity {
			rv.AuthenticCount++
		} else {
			rv.Warnings = append(rv.Warnings, fmt.Sprintf("reference %s has low authenticity", ref.Source))
		}
		if ref.QualityScore < constants.ReferenceScores.MinQuality {
			rv.Warnings = append(rv.Warnings, fmt.Sprintf("reference %s has low quality", ref.Source))
		}
		if !ref.EraMatch {
			rv.Warnings = append(rv.Warnings, fmt.Sprintf("reference %s may be from the wrong era", ref.Source))
		}
	}

	rv.AverageQuality = qualitySum / float64(len(refs))
	if rv.AverageQuality < constants.ReferenceScores.MinAvgQuality {
		rv.Warnings = append(rv.Warnings, "average reference quality is low")
	}
	if rv.AuthenticCount < constants.ReferenceScores.MinAuthentic {
		rv.Warnings = append(rv.Warnings, "fewer than two authentic references available")
	}

	return rv
}

func pitfallWarnings(bio *domain.Biography, style domain.Style) []string {
	var warnings []string

	if bio.BirthYear > 0 && bio.BirthYear < 1800 {
		warnings = append(warnings, "pre-1800 subjects have scarce visual records")
	}
	if bio.BirthYear > 1950 {
		warnings = append(warnings, "recent subjects may raise likeness and privacy concerns")
	}
	if style == domain.StyleBW && bio.BirthYear > 1950 {
		warnings = append(warnings, "black and white treatment is atypical for a post-1950 subject")
	}
	if style == domain.StyleSepia && bio.BirthYear > 1930 {
		warnings = append(warnings, "sepia treatment is anachronistic for a post-1930 subject")
	}

	return warnings
}

func recommendations(bio *domain.Biography, style domain.Style, warnings []string) []string {
	var recs []string

	if bio.BirthYear > 0 && bio.BirthYear < 1850 && style != domain.StylePainting {
		recs = append(recs, "consider the Painting style; photography barely existed in the subject's lifetime")
	}
	if len(warnings) > constants.PreflightConfig.MaxWarningsAdvised {
		recs = append(recs, "review warnings before batch generation; consider a simpler configuration")
	}

	return recs
}

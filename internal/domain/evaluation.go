package domain

// Evaluation criterion keys. Scores maps use these names.
const (
	CriterionTechnical          = "technical"
	CriterionVisualQuality      = "visual_quality"
	CriterionStyleAdherence     = "style_adherence"
	CriterionHistoricalAccuracy = "historical_accuracy"
	CriterionHolisticQuality    = "holistic_quality"
	CriterionVisualCoherence    = "visual_coherence"
)

// EvaluationResult captures the outcome of scoring one generated
// portrait against the quality criteria.
type EvaluationResult struct {
	Passed          bool
	Scores          map[string]float64
	Feedback        []string
	Issues          []string
	Recommendations []string
}

// OverallScore is the unweighted mean of all recorded scores, or 0
// when nothing was scored.
func (r *EvaluationResult) OverallScore() float64 {
	if len(r.Scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range r.Scores {
		sum += v
	}
	return sum / float64(len(r.Scores))
}

// FailedEvaluation builds a non-passing result recording why the
// evaluation itself could not run.
func FailedEvaluation(reason string) *EvaluationResult {
	return &EvaluationResult{
		Passed: false,
		Scores: map[string]float64{},
		Issues: []string{reason},
	}
}

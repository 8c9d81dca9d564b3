package domain

// ReferenceImage describes one candidate historical reference located
// for a subject. Scores are in [0, 1].
type ReferenceImage struct {
	URL               string
	Source            string
	AuthenticityScore float64
	QualityScore      float64
	RelevanceScore    float64
	EraMatch          bool
	Description       string
	LocalPath         string
}

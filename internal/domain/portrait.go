package domain

import "time"

// PortraitResult aggregates everything produced for one subject:
// output files and prompt sidecars per style, the researched
// biography, per-style evaluations, and any per-style errors.
type PortraitResult struct {
	Subject     string
	Biography   *Biography
	Files       map[Style]string
	Prompts     map[Style]string
	Evaluations map[Style]*EvaluationResult
	Errors      []string
	Elapsed     time.Duration
	Success     bool
}

// NewPortraitResult initializes an empty result for a subject.
func NewPortraitResult(subject string) *PortraitResult {
	return &PortraitResult{
		Subject:     subject,
		Files:       make(map[Style]string),
		Prompts:     make(map[Style]string),
		Evaluations: make(map[Style]*EvaluationResult),
	}
}

package domain

import "fmt"

// Biography holds researched facts about a historical subject.
// DeathYear is nil while the subject is still living.
type Biography struct {
	Name              string
	BirthYear         int
	DeathYear         *int
	Era               string
	AppearanceNotes   []string
	HistoricalContext string
	ReferenceSources  []string
}

// Lifespan returns the subject's age span in years. Living subjects
// are measured against the given current year.
func (b *Biography) Lifespan(currentYear int) int {
	if b.DeathYear != nil {
		return *b.DeathYear - b.BirthYear
	}
	return currentYear - b.BirthYear
}

// IsLiving reports whether no death year has been recorded.
func (b *Biography) IsLiving() bool {
	return b.DeathYear == nil
}

// YearsLabel renders the lifespan for display, e.g. "1815-1852" or
// "1928-Present". It never fails; callers that need range validation
// use FormatYears.
func (b *Biography) YearsLabel() string {
	if b.DeathYear == nil {
		return fmt.Sprintf("%d-Present", b.BirthYear)
	}
	return fmt.Sprintf("%d-%d", b.BirthYear, *b.DeathYear)
}

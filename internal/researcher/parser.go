package researcher

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kapu/portrait-gen-go/internal/domain"
	"github.com/kapu/portrait-gen-go/pkg/errors"
)

var (
	birthYearRe = regexp.MustCompile(`(?i)BIRTH YEAR[:\s]+(\d+)`)
	deathYearRe = regexp.MustCompile(`(?i)DEATH YEAR[:\s]+(\d+|Present|living|alive)`)
	eraRe       = regexp.MustCompile(`(?i)ERA[:\s]+([^\n]+)`)
	contextRe   = regexp.MustCompile(`(?i)HISTORICAL CONTEXT[:\s]+([^\n]+)`)
	bulletRe    = regexp.MustCompile(`^[-*\x{2022}\d.)\s]+`)
	sectionRe   = regexp.MustCompile(`(?i)^[A-Z][A-Z ]+:`)
)

const (
	maxAppearanceNotes  = 5
	maxReferenceSources = 3
)

// ParseBiography extracts labeled fields from a free-form research
// response. A parseable birth year is the only hard requirement;
// every other field has a default.
func ParseBiography(name, response string) (*domain.Biography, error) {
	bio := &domain.Biography{Name: name}

	m := birthYearRe.FindStringSubmatch(response)
	if m == nil {
		return nil, errors.NewResearchError("response contains no birth year", name, nil)
	}
	birth, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, errors.NewResearchError("unparseable birth year", name, err)
	}
	bio.BirthYear = birth

	if m := deathYearRe.FindStringSubmatch(response); m != nil {
		if death, err := strconv.Atoi(m[1]); err == nil {
			bio.DeathYear = &death
		}
		// Non-numeric matches (Present, living, alive) leave DeathYear nil.
	}

	bio.Era = "Unknown Era"
	if m := eraRe.FindStringSubmatch(response); m != nil {
		if era := strings.TrimSpace(m[1]); era != "" {
			bio.Era = era
		}
	}

	bio.AppearanceNotes = parseSection(response, "APPEARANCE NOTES", maxAppearanceNotes)

	bio.HistoricalContext = "Historical figure from " + bio.Era
	if m := contextRe.FindStringSubmatch(response); m != nil {
		if hc := strings.TrimSpace(m[1]); hc != "" {
			bio.HistoricalContext = hc
		}
	}

	bio.ReferenceSources = parseSection(response, "REFERENCE SOURCES", maxReferenceSources)

	return bio, nil
}

// parseSection collects up to limit non-empty lines following a
// section header, stripping any list markers. Collection stops at the
// next section header.
func parseSection(response, header string, limit int) []string {
	lines := strings.Split(response, "\n")
	var items []string
	inSection := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(strings.ToUpper(trimmed), header) {
			inSection = true
			continue
		}
		if !inSection {
			continue
		}
		if trimmed == "" {
			continue
		}
		if sectionRe.MatchString(trimmed) {
			break
		}

		item := strings.TrimSpace(bulletRe.ReplaceAllString(trimmed, ""))
		if item == "" {
			continue
		}
		items = append(items, item)
		if len(items) >= limit {
			break
		}
	}

	return items
}

// Package researcher turns a subject name into a validated biography
// using a text model, with caching to absorb repeat runs.
package researcher

import (
	"context"
	"fmt"
	"strings"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/kapu/portrait-gen-go/internal/constants"
	"github.com/kapu/portrait-gen-go/internal/domain"
	"github.com/kapu/portrait-gen-go/pkg/errors"
)

// TextBackend is the slice of the model manager the researcher needs.
type TextBackend interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Researcher struct {
	backend TextBackend
	cache   *gocache.Cache
	logger  *zap.Logger
}

func New(backend TextBackend, logger *zap.Logger) *Researcher {
	return &Researcher{
		backend: backend,
		cache:   gocache.New(constants.CacheTTL.Biography, constants.CacheTTL.CleanupInterval),
		logger:  logger,
	}
}

// Research queries the model for biographical facts about the subject
// and parses the labeled response into a Biography. Results are cached
// by normalized name.
func (r *Researcher) Research(ctx context.Context, name string) (*domain.Biography, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError("subject name must not be empty", "name", name)
	}

	cacheKey := strings.ToLower(name)
	if cached, found := r.cache.Get(cacheKey); found {
		r.logger.Debug("Biography cache hit", zap.String("subject", name))
		return cached.(*domain.Biography), nil
	}

	r.logger.Info("Researching subject", zap.String("subject", name))

	response, err := r.backend.GenerateText(ctx, buildResearchPrompt(name))
	if err != nil {
		return nil, errors.NewResearchError("research query failed", name, err)
	}

	bio, err := ParseBiography(name, response)
	if err != nil {
		return nil, err
	}

	if err := Validate(bio); err != nil {
		return nil, err
	}

	r.cache.Set(cacheKey, bio, gocache.DefaultExpiration)

	r.logger.Info("Research complete",
		zap.String("subject", bio.Name),
		zap.String("years", bio.YearsLabel()),
		zap.String("era", bio.Era),
		zap.Int("appearance_notes", len(bio.AppearanceNotes)),
	)
	return bio, nil
}

// Validate checks a biography for internally consistent, plausible
// values.
func Validate(bio *domain.Biography) error {
	if strings.TrimSpace(bio.Name) == "" {
		return errors.NewValidationError("biography has no name", "name", bio.Name)
	}
	if bio.BirthYear <= 0 || bio.BirthYear > constants.PreflightConfig.MaxPlausibleYear {
		return errors.NewValidationError(
			fmt.Sprintf("implausible birth year %d", bio.BirthYear), "birth_year", bio.BirthYear)
	}
	if bio.DeathYear != nil {
		if *bio.DeathYear < bio.BirthYear {
			return errors.NewValidationError(
				fmt.Sprintf("death year %d precedes birth year %d", *bio.DeathYear, bio.BirthYear),
				"death_year", *bio.DeathYear)
		}
		if *bio.DeathYear > constants.PreflightConfig.MaxPlausibleYear {
			return errors.NewValidationError(
				fmt.Sprintf("implausible death year %d", *bio.DeathYear), "death_year", *bio.DeathYear)
		}
	}
	if strings.TrimSpace(bio.Era) == "" {
		return errors.NewValidationError("biography has no era", "era", bio.Era)
	}
	return nil
}

// FormatYears renders a lifespan label, rejecting impossible ranges.
func FormatYears(birth int, death *int) (string, error) {
	if birth < 0 {
		return "", errors.NewValidationError("birth year must not be negative", "birth_year", birth)
	}
	if death == nil {
		return fmt.Sprintf("%d-Present", birth), nil
	}
	if *death < birth {
		return "", errors.NewValidationError(
			fmt.Sprintf("death year %d precedes birth year %d", *death, birth), "death_year", *death)
	}
	return fmt.Sprintf("%d-%d", birth, *death), nil
}

func buildResearchPrompt(name string) string {
	return fmt.Sprintf(`Research the historical figure "%s" and respond with the following labeled sections, one per line where noted:

BIRTH YEAR: <four digit year>
DEATH YEAR: <four digit year, or "Present" if still living>
ERA: <historical era or period>
APPEARANCE NOTES:
<up to five bullet points describing documented physical appearance>
HISTORICAL CONTEXT: <one or two sentences on their significance>
REFERENCE SOURCES:
<up to three archives or collections holding authentic images>

Only include facts that are historically documented. Do not invent details.`, name)
}

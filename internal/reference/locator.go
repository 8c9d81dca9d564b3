// Package reference locates and downloads candidate historical
// reference images for a subject via grounded search.
package reference

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/portrait-gen-go/internal/constants"
	"github.com/kapu/portrait-gen-go/internal/domain"
)

// GroundedBackend is the slice of the model manager the locator needs.
type GroundedBackend interface {
	GenerateGrounded(ctx context.Context, query string) (string, error)
}

var imageURLRe = regexp.MustCompile(`(?i)https?://[^\s<>"]+\.(?:jpg|jpeg|png|gif)`)

type Locator struct {
	backend     GroundedBackend
	httpClient  *http.Client
	downloadDir string
	logger      *zap.Logger
}

func NewLocator(backend GroundedBackend, downloadDir string, logger *zap.Logger) *Locator {
	return &Locator{
		backend: backend,
		httpClient: &http.Client{
			Timeout: constants.DownloadConfig.Timeout,
		},
		downloadDir: downloadDir,
		logger:      logger,
	}
}

// Find runs grounded searches for the subject and returns ranked
// candidate references, at most maxImages of them. Individual query
// failures are logged and skipped.
func (l *Locator) Find(ctx context.Context, bio *domain.Biography, maxImages int) ([]domain.ReferenceImage, error) {
	if maxImages <= 0 {
		return nil, nil
	}

	queries := searchQueries(bio)
	if len(queries) > constants.DownloadConfig.MaxQueries {
		queries = queries[:constants.DownloadConfig.MaxQueries]
	}

	var candidates []domain.ReferenceImage
	for _, query := range queries {
		found, err := l.searchOnce(ctx, query, bio)
		if err != nil {
			l.logger.Warn("Reference search query failed",
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		candidates = append(candidates, found...)
	}

	ranked := RankReferences(candidates, maxImages)

	l.logger.Info("Reference search complete",
		zap.String("subject", bio.Name),
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(ranked)),
	)
	return ranked, nil
}

func (l *Locator) searchOnce(ctx context.Context, query string, bio *domain.Biography) ([]domain.ReferenceImage, error) {
	prompt := fmt.Sprintf(
		"Find authentic historical images for this search: %s\nList any direct image URLs you find, one per line.",
		query,
	)

	response, err := l.backend.GenerateGrounded(ctx, prompt)
	if err != nil {
		return nil, err
	}

	urls := imageURLRe.FindAllString(response, -1)
	if len(urls) > constants.DownloadConfig.MaxPerQuery {
		urls = urls[:constants.DownloadConfig.MaxPerQuery]
	}

	// Scores are heuristic placeholders until a vision scoring pass
	// exists; ranking still orders candidates deterministically.
	refs := make([]domain.ReferenceImage, 0, len(urls))
	for _, url := range urls {
		refs = append(refs, domain.ReferenceImage{
			URL:               url,
			Source:            sourceFromURL(url),
			AuthenticityScore: constants.ReferenceScores.Authenticity,
			QualityScore:      constants.ReferenceScores.Quality,
			RelevanceScore:    constants.ReferenceScores.Relevance,
			EraMatch:          true,
			Description:       fmt.Sprintf("Candidate for %q via query %q", bio.Name, query),
		})
	}
	return refs, nil
}

// searchQueries builds the query variants for a subject, most
// specific first.
func searchQueries(bio *domain.Biography) []string {
	return []string{
		fmt.Sprintf("%s historical photograph", bio.Name),
		fmt.Sprintf("%s portrait %s", bio.Name, bio.Era),
		fmt.Sprintf("%s photo %d", bio.Name, bio.BirthYear),
		fmt.Sprintf("%s authentic image archive", bio.Name),
		fmt.Sprintf("%s contemporary photograph", bio.Name),
	}
}

// RankReferences scores, filters, and truncates candidates. Combined
// score is the weighted sum of the three criteria with a bonus for an
// era match; candidates under the floor are dropped.
func RankReferences(refs []domain.ReferenceImage, maxImages int) []domain.ReferenceImage {
	type scored struct {
		ref   domain.ReferenceImage
		score float64
	}

	kept := make([]scored, 0, len(refs))
	for _, ref := range refs {
		score := CombinedScore(ref)
		if score < constants.ReferenceScores.MinCombined {
			continue
		}
		kept = append(kept, scored{ref: ref, score: score})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	if len(kept) > maxImages {
		kept = kept[:maxImages]
	}

	result := make([]domain.ReferenceImage, len(kept))
	for i, s := range kept {
		result[i] = s.ref
	}
	return result
}

// CombinedScore computes the ranking score for one candidate.
func CombinedScore(ref domain.ReferenceImage) float64 {
	score := constants.ReferenceScores.AuthenticityW*ref.AuthenticityScore +
		constants.ReferenceScores.QualityW*ref.QualityScore +
		constants.ReferenceScores.RelevanceW*ref.RelevanceScore
	if ref.EraMatch {
		score *= constants.ReferenceScores.EraMatchBonus
	}
	return score
}

func sourceFromURL(url string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
	if idx := strings.Index(trimmed, "/"); idx > 0 {
		return trimmed[:idx]
	}
	return trimmed
}

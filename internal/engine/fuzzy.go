package engine

import (
	"context"
	"unicode/utf8"

	"github.com/agext/levenshtein"

	"github.com/rxscan/rx-scanner/constants"
	"github.com/rxscan/rx-scanner/internal/entity"
	"github.com/rxscan/rx-scanner/internal/jptext"
)

// searchBySimilarity retrieves fuzzy candidates for a long token: the index
// is queried with the token's first three characters as a prefix, and each
// candidate is ranked by edit-distance ratio against a length-truncated
// comparison of its ingredient and product names. Candidates at or above
// the similarity floor come back flagged as similarity matches.
//
// Only tokens of FuzzyMinTokenLen runes or more are considered: OCR errors
// accumulate on long names, while short names need exact matching to avoid
// false positives.
func (e *Engine) searchBySimilarity(ctx context.Context, keyword string) []entity.MedicineRecord {
	if e.index == nil {
		return nil
	}
	klen := utf8.RuneCountInString(keyword)
	if klen < constants.FuzzyMinTokenLen {
		return nil
	}

	prefix := jptext.TruncateRunes(keyword, 3)
	candidates, err := e.index.Search(ctx, prefix, constants.FuzzySearchLimit)
	if err != nil {
		e.logger.Warn("similarity search failed", "keyword", keyword, "error", err)
		return nil
	}

	var results []entity.MedicineRecord
	for _, c := range candidates {
		// Compare at the keyword's own length so a long master name is not
		// penalized for the part the OCR never saw.
		ingredientSim := similarity(keyword, jptext.TruncateRunes(c.IngredientName, klen))
		productSim := similarity(keyword, jptext.TruncateRunes(c.ProductName, klen))

		sim := ingredientSim
		if productSim > sim {
			sim = productSim
		}
		if sim >= constants.SimilarityFloor {
			results = append(results, c)
		}
	}

	e.logger.Debug("similarity search", "keyword", keyword, "candidates", len(candidates), "kept", len(results))
	return results
}

// similarity is a normalized edit-distance ratio: 1.0 for identical
// strings, 0.0 for completely different or empty input.
func similarity(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0.0
	}
	return levenshtein.Similarity(s1, s2, levenshtein.NewParams())
}

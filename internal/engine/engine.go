package engine

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/rxscan/rx-scanner/constants"
	"github.com/rxscan/rx-scanner/internal/entity"
	"github.com/rxscan/rx-scanner/internal/jptext"
	"github.com/rxscan/rx-scanner/internal/repository"
)

// Engine reconciles OCR tokens against the medicine master: per line it
// extracts name tokens and dosage hints, scores index candidates, collapses
// them per ingredient and enriches the winners with alternatives.
//
// The engine never mutates the index and keeps no state between lines; one
// instance is safe for concurrent Process calls as long as the index
// supports concurrent reads.
type Engine struct {
	index  repository.MedicineIndex
	logger *slog.Logger
}

// NewEngine builds an engine around the given index. A nil index is
// allowed: the engine then runs in degraded mode, completing every scan
// with an empty medicine list instead of failing.
func NewEngine(index repository.MedicineIndex, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if index == nil {
		logger.Error("medicine index unavailable, engine running in degraded mode")
	}
	return &Engine{index: index, logger: logger}
}

// Process groups OCR tokens into lines, reconciles each line independently
// and aggregates the winners. RawText is the concatenation of every token
// text in input order, kept for audit display. A line that fails to match
// contributes nothing; it never aborts the remaining lines.
func (e *Engine) Process(ctx context.Context, tokens []entity.OCRToken) entity.ScanResult {
	var raw strings.Builder
	lineOrder := make([]int, 0, 8)
	lines := make(map[int][]string)
	for _, t := range tokens {
		raw.WriteString(t.Text)
		if _, seen := lines[t.LineNum]; !seen {
			lineOrder = append(lineOrder, t.LineNum)
		}
		lines[t.LineNum] = append(lines[t.LineNum], t.Text)
	}

	var medicines []entity.SelectedMedicine
	for _, n := range lineOrder {
		lineText := jptext.NormalizeKatakana(strings.Join(lines[n], ""))
		found := e.extractMedicines(ctx, lineText)
		medicines = append(medicines, found...)
	}

	e.logger.Info("prescription parsed",
		"lines", len(lineOrder),
		"tokens", len(tokens),
		"medicines", len(medicines),
	)
	return entity.ScanResult{Medicines: medicines, RawText: raw.String()}
}

// extractMedicines runs the per-line pipeline: index matching, selection,
// enrichment.
func (e *Engine) extractMedicines(ctx context.Context, line string) []entity.SelectedMedicine {
	matches := e.matchWithIndex(ctx, line)
	selected := selectBestPerIngredient(matches)
	enriched := e.enrich(ctx, selected)
	if len(enriched) > 0 {
		e.logger.Debug("line matched", "medicines", len(enriched))
	}
	return enriched
}

// matchWithIndex scores every (token, candidate) pair for one normalized
// line. A token whose lookup fails contributes no candidates; the engine
// carries on with the remaining tokens.
func (e *Engine) matchWithIndex(ctx context.Context, line string) []entity.CandidateMatch {
	if e.index == nil {
		return nil
	}

	dosage := ExtractDosageSpecs(line)
	e.logger.Debug("dosage extracted", "forms", dosage.Forms, "specs", dosage.Specs)

	var matches []entity.CandidateMatch
	for _, word := range jptext.ExtractNameTokens(line, constants.StopWords) {
		results, err := e.index.Search(ctx, word, constants.ExactSearchLimit)
		if err != nil {
			e.logger.Warn("index lookup failed, skipping token", "token", word, "error", err)
			continue
		}
		exactCount := len(results)
		if utf8.RuneCountInString(word) >= constants.FuzzyMinTokenLen {
			results = append(results, e.searchBySimilarity(ctx, word)...)
		}

		for i, rec := range results {
			fromFuzzy := i >= exactCount
			confidence, ok := scoreCandidate(word, rec, dosage, fromFuzzy)
			if !ok || confidence < constants.ConfidencePartial {
				continue
			}
			matches = append(matches, entity.CandidateMatch{
				MedicineName:      rec.ProductName,
				IngredientName:    rec.IngredientName,
				Specification:     rec.Specification,
				Manufacturer:      rec.Manufacturer,
				MedicineType:      rec.MedicineType,
				Price:             rec.Price,
				Confidence:        confidence,
				MatchedWord:       word,
				IsSimilarityMatch: fromFuzzy,
			})
		}
	}

	e.logger.Debug("index matching done", "candidates", len(matches))
	return matches
}

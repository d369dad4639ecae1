package engine

import (
	"context"

	"github.com/rxscan/rx-scanner/constants"
	"github.com/rxscan/rx-scanner/internal/entity"
)

// enrich attaches same-ingredient alternatives to each selected medicine
// and derives the human-facing display name:
//
//   - confidence >= 0.90: the exact product is trustworthy, show it;
//   - below 0.90 with substitutes on file: show the ingredient name rather
//     than assert a specific brand;
//   - below 0.90 with nothing to disambiguate against: show the product.
//
// Alternatives arrive from the index ordered by medicine type then price.
// A failed alternatives lookup degrades to "no alternatives" for that
// entry; enrichment itself never fails.
func (e *Engine) enrich(ctx context.Context, selected []entity.CandidateMatch) []entity.SelectedMedicine {
	result := make([]entity.SelectedMedicine, 0, len(selected))
	for _, m := range selected {
		var alternatives []entity.MedicineRecord
		if e.index != nil {
			alts, err := e.index.Alternatives(ctx, m.IngredientName, m.MedicineName)
			if err != nil {
				e.logger.Warn("alternatives lookup failed", "ingredient", m.IngredientName, "error", err)
			} else {
				alternatives = alts
			}
		}

		sm := entity.SelectedMedicine{
			CandidateMatch:       m,
			HasAlternatives:      len(alternatives) > 0,
			AlternativeMedicines: alternatives,
		}
		if m.Confidence >= constants.ConfidenceFormSpec || !sm.HasAlternatives {
			sm.DisplayName = m.MedicineName
		} else {
			sm.DisplayName = m.IngredientName
		}
		result = append(result, sm)
	}
	return result
}

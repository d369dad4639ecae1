package engine

import (
	"strings"

	"github.com/rxscan/rx-scanner/constants"
	"github.com/rxscan/rx-scanner/internal/entity"
	"github.com/rxscan/rx-scanner/internal/jptext"
)

// scoreCandidate assigns one of the four confidence tiers to a
// (token, record) pair, or reports that the pair is no match at all.
//
//	1.00  token equals the product name
//	0.80  token equals the ingredient name
//	0.70  token is a substring of either name
//	0.70  record only surfaced through similarity search
//
// Below 1.00, confidence is raised to 0.90 when the dosage form AND the
// strength extracted from the line both corroborate the product name. An
// exact product match is already maximal and never adjusted.
func scoreCandidate(token string, rec entity.MedicineRecord, dosage entity.DosageSpecInfo, fromFuzzy bool) (float64, bool) {
	var confidence float64
	switch {
	case token == rec.ProductName:
		confidence = constants.ConfidenceExactProduct
	case token == rec.IngredientName:
		confidence = constants.ConfidenceExactIngredient
	case strings.Contains(rec.ProductName, token) || strings.Contains(rec.IngredientName, token):
		confidence = constants.ConfidencePartial
	case fromFuzzy:
		confidence = constants.ConfidencePartial
	default:
		return 0, false
	}

	if confidence < constants.ConfidenceExactProduct {
		formMatch := len(dosage.Forms) > 0 && strings.Contains(rec.ProductName, dosage.Forms[0])
		specMatch := len(dosage.Specs) > 0 && strengthMatches(rec.ProductName, dosage.Specs[0])
		if formMatch && specMatch {
			confidence = constants.ConfidenceFormSpec
		}
	}
	return confidence, true
}

// strengthMatches reports whether the half-width-normalized product name
// contains spec as a whole strength, i.e. not as the tail of a larger
// number ("100mg" must not match inside "2100mg" or "1.100mg").
func strengthMatches(productName, spec string) bool {
	name := jptext.NarrowWidth(productName)
	for from := 0; ; {
		i := strings.Index(name[from:], spec)
		if i < 0 {
			return false
		}
		at := from + i
		if !precededByNumeric(name, at) {
			return true
		}
		from = at + 1
	}
}

func precededByNumeric(s string, idx int) bool {
	if idx == 0 {
		return false
	}
	c := s[idx-1]
	return (c >= '0' && c <= '9') || c == '.'
}

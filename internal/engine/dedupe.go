package engine

import (
	"math"
	"regexp"
	"strconv"

	"github.com/rxscan/rx-scanner/internal/entity"
	"github.com/rxscan/rx-scanner/internal/jptext"
)

var reSpecValue = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// selectBestPerIngredient collapses the scored candidates of one line down
// to a single record per ingredient, in two stages.
//
// Stage A groups by (ingredient, specification) and keeps the entry with
// the higher confidence; ties keep the first seen. Stage B groups the
// survivors by ingredient alone: higher confidence wins, and at equal
// confidence the lower strength value wins — the conservative default when
// the line does not say which formulation was meant.
//
// Reduction order is candidate order, so identical input always yields
// identical output.
func selectBestPerIngredient(matches []entity.CandidateMatch) []entity.CandidateMatch {
	if len(matches) == 0 {
		return nil
	}

	type specKey struct {
		ingredient string
		spec       string
	}
	bySpec := make(map[specKey]int)
	var stageA []entity.CandidateMatch
	for _, m := range matches {
		key := specKey{m.IngredientName, m.Specification}
		if i, seen := bySpec[key]; seen {
			if m.Confidence > stageA[i].Confidence {
				stageA[i] = m
			}
			continue
		}
		bySpec[key] = len(stageA)
		stageA = append(stageA, m)
	}

	byIngredient := make(map[string]int)
	var selected []entity.CandidateMatch
	for _, m := range stageA {
		i, seen := byIngredient[m.IngredientName]
		if !seen {
			byIngredient[m.IngredientName] = len(selected)
			selected = append(selected, m)
			continue
		}
		existing := selected[i]
		replace := m.Confidence > existing.Confidence
		if !replace && m.Confidence == existing.Confidence {
			replace = specValue(m.Specification) < specValue(existing.Specification)
		}
		if replace {
			selected[i] = m
		}
	}
	return selected
}

// specValue extracts the leading numeric strength from a specification
// ("５ｍｇ１錠" -> 5.0). Specifications without a number sort last.
func specValue(specification string) float64 {
	m := reSpecValue.FindString(jptext.NarrowWidth(specification))
	if m == "" {
		return math.Inf(1)
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return math.Inf(1)
	}
	return v
}

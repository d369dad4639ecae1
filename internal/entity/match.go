package entity

import "github.com/rxscan/rx-scanner/constants"

// CandidateMatch is a scored (token, master record) pair. Candidates live
// only between scoring and per-ingredient selection.
type CandidateMatch struct {
	MedicineName   string                 `json:"medicine_name"`
	IngredientName string                 `json:"ingredient_name"`
	Specification  string                 `json:"specification"`
	Manufacturer   string                 `json:"manufacturer"`
	MedicineType   constants.MedicineType `json:"medicine_type"`
	Price          float64                `json:"price"`

	Confidence        float64 `json:"confidence"`
	MatchedWord       string  `json:"matched_word"`
	IsSimilarityMatch bool    `json:"is_similarity_match,omitempty"`
}

// SelectedMedicine is the per-ingredient winner after deduplication,
// enriched with alternatives and a display name.
type SelectedMedicine struct {
	CandidateMatch

	HasAlternatives      bool             `json:"has_alternatives"`
	AlternativeMedicines []MedicineRecord `json:"alternative_medicines"`
	DisplayName          string           `json:"display_name"`
}

// DosageSpecInfo holds the dosage form and strength extracted from one
// prescription line. Both slices hold at most one element: forms after
// longest-match reduction, specs after first-found reduction.
type DosageSpecInfo struct {
	Forms []string
	Specs []string
}

// ScanResult is the engine output for one prescription.
type ScanResult struct {
	Medicines []SelectedMedicine `json:"medicines"`
	RawText   string             `json:"raw_text"`
}

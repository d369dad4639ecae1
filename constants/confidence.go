package constants

// Confidence tiers for a (token, record) match. Exactly four values exist;
// anything below ConfidencePartial is discarded.
//
//	1.00  product name matched the token exactly
//	0.90  dosage form and strength both corroborate the record
//	0.80  ingredient name matched the token exactly
//	0.70  partial or similarity match
const (
	ConfidenceExactProduct    = 1.00
	ConfidenceFormSpec        = 0.90
	ConfidenceExactIngredient = 0.80
	ConfidencePartial         = 0.70
)

// MinTokenConfidence is the OCR word-confidence floor (0-100); tokens below
// it never reach the engine.
const MinTokenConfidence = 30

// SimilarityFloor is the minimum edit-distance ratio for a fuzzy candidate.
const SimilarityFloor = 0.70

// FuzzyMinTokenLen is the token length at which fuzzy search kicks in: OCR
// errors accumulate on long names, while short names need exact matching to
// avoid false positives.
const FuzzyMinTokenLen = 7

// Search limits against the medicine index.
const (
	ExactSearchLimit = 5
	FuzzySearchLimit = 100
)

// MedicineType is the brand/generic classification carried by master data.
type MedicineType string

// Stable values (store these exact strings in the DB).
const (
	MedicineTypeBrand   MedicineType = "先発品"
	MedicineTypeGeneric MedicineType = "後発品"
	MedicineTypeOther   MedicineType = "その他"
)

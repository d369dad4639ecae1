package entity

// OCRToken is one recognized word from the OCR layer. Confidence is the
// recognizer's word confidence in 0-100; tokens below the configured floor
// are dropped before they reach the engine.
type OCRToken struct {
	Text       string `json:"text"`
	LineNum    int    `json:"line_num"`
	Confidence int    `json:"confidence"`
}

package tokendump

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rxscan/rx-scanner/constants"
	"github.com/rxscan/rx-scanner/internal/common"
	"github.com/rxscan/rx-scanner/internal/entity"
)

// ReadFile loads OCR tokens from a pre-produced dump, either tesseract TSV
// output or a JSON token dump, applying the word-confidence floor.
func ReadFile(path string, minConfidence int) ([]entity.OCRToken, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewAppError("TOKENDUMP_READ", "failed to read token dump", err)
	}

	switch constants.MapExtToFormat(filepath.Ext(path)) {
	case constants.FormatTSV:
		return ParseTSV(data, minConfidence), nil
	case constants.FormatJSON:
		return ParseJSON(data, minConfidence)
	default:
		return nil, common.NewAppError("TOKENDUMP_FORMAT", "unsupported token dump extension: "+filepath.Ext(path), common.ErrInvalidInput)
	}
}

// tesseract TSV columns; conf and text are the last two of twelve.
const (
	tsvColumns = 12
	colPage    = 1
	colBlock   = 2
	colPar     = 3
	colLine    = 4
	colConf    = 10
	colText    = 11
)

// ParseTSV converts tesseract TSV output into OCR tokens. Tesseract restarts
// line_num per paragraph, so tokens get a synthetic line number that
// increments whenever the (page, block, paragraph, line) tuple changes
// between surviving rows; engine line grouping only needs distinct lines to
// stay distinct.
//
// Rows with conf -1 (layout rows), empty text or confidence below the floor
// are dropped. Malformed rows are skipped rather than failing the dump.
func ParseTSV(data []byte, minConfidence int) []entity.OCRToken {
	var tokens []entity.OCRToken

	line := 0
	lastKey := ""
	for i, row := range strings.Split(string(data), "\n") {
		if i == 0 || row == "" {
			continue // header
		}
		cols := strings.Split(row, "\t")
		if len(cols) < tsvColumns {
			continue
		}

		// some builds emit fractional confidences, parse as float
		f, err := strconv.ParseFloat(cols[colConf], 64)
		if err != nil {
			continue
		}
		conf := int(f)
		text := strings.TrimSpace(cols[colText])
		if conf < 0 || conf < minConfidence || text == "" {
			continue
		}

		key := cols[colPage] + "/" + cols[colBlock] + "/" + cols[colPar] + "/" + cols[colLine]
		if key != lastKey {
			line++
			lastKey = key
		}
		tokens = append(tokens, entity.OCRToken{Text: text, LineNum: line, Confidence: conf})
	}
	return tokens
}

type jsonDump struct {
	Tokens []entity.OCRToken `json:"tokens"`
}

// ParseJSON converts a JSON token dump into OCR tokens after validating it
// against the dump schema.
func ParseJSON(data []byte, minConfidence int) ([]entity.OCRToken, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, common.NewAppError("TOKENDUMP_JSON", "token dump is not valid JSON", err)
	}
	if err := dumpSchema.Validate(raw); err != nil {
		return nil, common.NewAppError("TOKENDUMP_SCHEMA", "token dump failed schema validation", err)
	}

	var dump jsonDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, common.NewAppError("TOKENDUMP_JSON", "token dump decode failed", err)
	}

	tokens := make([]entity.OCRToken, 0, len(dump.Tokens))
	for _, t := range dump.Tokens {
		if t.Confidence < minConfidence || strings.TrimSpace(t.Text) == "" {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

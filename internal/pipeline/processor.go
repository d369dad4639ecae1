package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rxscan/rx-scanner/constants"
	"github.com/rxscan/rx-scanner/internal/common"
	"github.com/rxscan/rx-scanner/internal/engine"
	"github.com/rxscan/rx-scanner/internal/entity"
	"github.com/rxscan/rx-scanner/internal/export"
	"github.com/rxscan/rx-scanner/internal/ocr"
	"github.com/rxscan/rx-scanner/internal/tokendump"
)

// Processor runs one prescription file through the whole pipeline: token
// acquisition (OCR for images, dump parsing for tsv/json), reconciliation,
// and result persistence.
type Processor struct {
	recognizer ocr.Recognizer
	engine     *engine.Engine
	exporter   *export.Service
	floor      int
	logger     *slog.Logger
}

// NewProcessor wires the pipeline. The recognizer may be nil when only token
// dumps are processed; the exporter may be nil to skip XLSX output.
func NewProcessor(recognizer ocr.Recognizer, eng *engine.Engine, exporter *export.Service, minConfidence int, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		recognizer: recognizer,
		engine:     eng,
		exporter:   exporter,
		floor:      minConfidence,
		logger:     logger,
	}
}

// ProcessFile reads OCR tokens from the file and reconciles them against the
// medicine master.
func (p *Processor) ProcessFile(ctx context.Context, path string) (entity.ScanResult, error) {
	var tokens []entity.OCRToken
	var err error

	switch constants.MapExtToFormat(filepath.Ext(path)) {
	case constants.FormatImage:
		if p.recognizer == nil {
			return entity.ScanResult{}, common.NewAppError("NO_RECOGNIZER", "image input but OCR is not configured", common.ErrInvalidInput)
		}
		tokens, err = p.recognizer.Recognize(ctx, path)
	case constants.FormatTSV, constants.FormatJSON:
		tokens, err = tokendump.ReadFile(path, p.floor)
	default:
		return entity.ScanResult{}, common.NewAppError("UNSUPPORTED_FILE", "unsupported input file: "+path, common.ErrInvalidInput)
	}
	if err != nil {
		return entity.ScanResult{}, err
	}

	return p.engine.Process(ctx, tokens), nil
}

// ProcessAndSave runs ProcessFile and writes the result next to the input:
// <name>.scan.json always, <name>.scan.xlsx when an exporter is wired.
func (p *Processor) ProcessAndSave(ctx context.Context, path string) error {
	start := time.Now()
	scanID := uuid.New()

	result, err := p.ProcessFile(ctx, path)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return common.WrapError(err, "marshal scan result")
	}
	if err := os.WriteFile(base+".scan.json", data, 0o644); err != nil {
		return common.WrapError(err, "write scan result")
	}

	if p.exporter != nil {
		xlsx, err := p.exporter.ExportScanXLSX(scanID, result)
		if err != nil {
			return err
		}
		if err := os.WriteFile(base+".scan.xlsx", xlsx, 0o644); err != nil {
			return common.WrapError(err, "write scan workbook")
		}
	}

	p.logger.Info("scan.ok",
		"scan_id", scanID.String(),
		"path", path,
		"medicines", len(result.Medicines),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rxscan/rx-scanner/internal/common"
	"github.com/rxscan/rx-scanner/internal/entity"
	"github.com/rxscan/rx-scanner/internal/tokendump"
)

// Recognizer turns a prescription image into positioned OCR tokens.
type Recognizer interface {
	Recognize(ctx context.Context, path string) ([]entity.OCRToken, error)
}

// TesseractRecognizer shells out to the tesseract binary in TSV mode and
// parses its word table into tokens.
type TesseractRecognizer struct {
	cfg    common.OCRConfig
	floor  int
	runner Runner
	logger *slog.Logger
}

// NewTesseractRecognizer builds a recognizer from OCR config. A nil runner
// gets the default exec-backed one; tests inject a stub.
func NewTesseractRecognizer(cfg common.OCRConfig, minConfidence int, runner Runner, logger *slog.Logger) *TesseractRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	return &TesseractRecognizer{cfg: cfg, floor: minConfidence, runner: runner, logger: logger}
}

// Recognize runs `tesseract <image> stdout ... tsv` and converts the TSV
// word table into confidence-filtered tokens.
func (t *TesseractRecognizer) Recognize(ctx context.Context, path string) ([]entity.OCRToken, error) {
	start := time.Now()

	args := []string{path, "stdout", "-l", t.cfg.TesseractLang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprintf("%d", t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, args...)
	if err != nil {
		return nil, common.NewAppError("OCR_FAILED", "tesseract failed: "+truncate(string(errb), 512), err)
	}

	tokens := tokendump.ParseTSV(out, t.floor)
	t.logger.Info("ocr.recognize.ok",
		"path", path,
		"tokens", len(tokens),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return tokens, nil
}

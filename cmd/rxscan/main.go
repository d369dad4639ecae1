package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/rxscan/rx-scanner/internal/common"
	"github.com/rxscan/rx-scanner/internal/engine"
	"github.com/rxscan/rx-scanner/internal/export"
	"github.com/rxscan/rx-scanner/internal/ocr"
	"github.com/rxscan/rx-scanner/internal/pipeline"
	"github.com/rxscan/rx-scanner/internal/repository"
)

// rxscan processes a single prescription scan (image or OCR token dump) and
// prints the reconciled medicines as JSON.
func main() {
	var (
		file = flag.String("file", "", "prescription scan to process: jpg/jpeg/png image or tsv/json token dump (required)")
		xlsx = flag.Bool("xlsx", false, "also write an XLSX workbook next to the input file")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *file == "" {
		logger.Error("usage", "cmd", "rxscan -file <scan> [-xlsx]")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// A missing or broken master is not fatal: the scan degrades to raw text
	// with no matches.
	var index repository.MedicineIndex
	db, err := repository.Open(ctx, repository.Config{
		Path:        cfg.Database.Path,
		BusyTimeout: cfg.Database.BusyTimeout,
	}, logger)
	if err != nil {
		logger.Warn("medicine master unavailable, continuing degraded", "error", err)
	} else {
		defer repository.Close(db, logger)
		index = repository.NewMedicineRepository(db, logger)
	}

	eng := engine.NewEngine(index, logger)
	recognizer := ocr.NewTesseractRecognizer(cfg.OCR, cfg.Scan.MinTokenConfidence, nil, logger)
	proc := pipeline.NewProcessor(recognizer, eng, nil, cfg.Scan.MinTokenConfidence, logger)

	result, err := proc.ProcessFile(ctx, *file)
	if err != nil {
		logger.Error("scan failed", "path", *file, "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Error("marshal result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if *xlsx {
		exporter := export.NewService(logger)
		wb, err := exporter.ExportScanXLSX(uuid.New(), result)
		if err != nil {
			logger.Error("xlsx export failed", "error", err)
			os.Exit(1)
		}
		target := strings.TrimSuffix(*file, filepath.Ext(*file)) + ".scan.xlsx"
		if err := os.WriteFile(target, wb, 0o644); err != nil {
			logger.Error("write workbook", "path", target, "error", err)
			os.Exit(1)
		}
		logger.Info("workbook written", "path", target)
	}
}

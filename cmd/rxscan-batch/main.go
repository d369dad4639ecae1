package main

import (
	"context"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rxscan/rx-scanner/internal/async"
	"github.com/rxscan/rx-scanner/internal/common"
	"github.com/rxscan/rx-scanner/internal/engine"
	"github.com/rxscan/rx-scanner/internal/export"
	"github.com/rxscan/rx-scanner/internal/ingest"
	"github.com/rxscan/rx-scanner/internal/ocr"
	"github.com/rxscan/rx-scanner/internal/pipeline"
	"github.com/rxscan/rx-scanner/internal/repository"
)

// rxscan-batch processes every prescription scan in a directory, optionally
// staying resident and watching for new files. Results are written next to
// each input as <name>.scan.json and <name>.scan.xlsx.
func main() {
	var (
		dir   = flag.String("dir", "", "directory of prescription scans (required)")
		watch = flag.Bool("watch", false, "keep running and process files as they appear")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *dir == "" {
		logger.Error("usage", "cmd", "rxscan-batch -dir <scans> [-watch]")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
	proc := pipeline.NewProcessor(recognizer, eng, export.NewService(logger), cfg.Scan.MinTokenConfidence, logger)

	queue := async.NewScanQueue(proc.ProcessAndSave, logger,
		async.WithWorkers(cfg.Scan.Workers),
		async.WithQueueSize(cfg.Scan.QueueSize),
		async.WithProcessTimeout(cfg.Scan.ProcessTimeout),
	)

	if *watch {
		runWatch(ctx, *dir, cfg.Scan.WatchDebounce, queue, logger)
	} else {
		runOnce(ctx, *dir, queue, logger)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
}

func runOnce(ctx context.Context, dir string, queue *async.ScanQueue, logger *slog.Logger) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if ingest.IsHidden(path) && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if ingest.IsHidden(path) || isScanOutput(path) || !ingest.AllowedExt(filepath.Ext(path)) {
			return nil
		}
		count++
		return queue.Enqueue(ctx, async.Job{Path: path})
	})
	if err != nil {
		logger.Error("directory walk failed", "dir", dir, "error", err)
		os.Exit(1)
	}
	logger.Info("batch enqueued", "dir", dir, "files", count)
}

func runWatch(ctx context.Context, dir string, debounce time.Duration, queue *async.ScanQueue, logger *slog.Logger) {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    debounce,
	})
	if err != nil {
		logger.Error("watcher failed", "dir", dir, "error", err)
		os.Exit(1)
	}
	logger.Info("watching for prescription scans", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down watcher")
			return
		case path, ok := <-events:
			if !ok {
				return
			}
			if isScanOutput(path) {
				continue
			}
			_ = queue.Enqueue(ctx, async.Job{Path: path})
		case werr, ok := <-errs:
			if ok && werr != nil {
				logger.Warn("watch error", "error", werr)
			}
		}
	}
}

// isScanOutput filters this tool's own result files out of the input stream;
// without it every written .scan.json would be re-scanned forever.
func isScanOutput(path string) bool {
	return strings.HasSuffix(path, ".scan.json") || strings.HasSuffix(path, ".scan.xlsx")
}

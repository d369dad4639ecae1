package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/rxscan/rx-scanner/internal/common"
	"github.com/rxscan/rx-scanner/internal/masterdata"
	"github.com/rxscan/rx-scanner/internal/repository"
)

// medimport loads a product-list CSV into the medicine master.
func main() {
	var (
		csvPath  = flag.String("csv", "product_list.csv", "product list CSV to import")
		preview  = flag.Bool("preview", false, "parse and print the first rows without importing")
		appendTo = flag.Bool("append", false, "append to existing data instead of replacing it")
		noBackup = flag.Bool("no-backup", false, "skip the pre-replace database backup")
		verbose  = flag.Bool("verbose", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := repository.Open(ctx, repository.Config{
		Path:        cfg.Database.Path,
		BusyTimeout: cfg.Database.BusyTimeout,
	}, logger)
	if err != nil {
		logger.Error("open medicine master", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	master := repository.NewMasterRepository(db, cfg.Database.Path, logger)
	index := repository.NewMedicineRepository(db, logger)
	importer := masterdata.NewImporter(master, index, logger)

	if *preview {
		medicines, err := importer.Preview(*csvPath, 10)
		if err != nil {
			logger.Error("preview failed", "path", *csvPath, "error", err)
			os.Exit(1)
		}
		fmt.Println("=== データプレビュー ===")
		for i, m := range medicines {
			fmt.Printf("%2d. %s\n", i+1, m.ProductName)
			fmt.Printf("     成分: %s\n", m.IngredientName)
			fmt.Printf("     規格: %s\n", m.Specification)
			fmt.Printf("     区分: %s\n", m.Classification)
			fmt.Printf("     価格: ¥%g\n", m.Price)
			fmt.Printf("     メーカー: %s\n\n", m.Manufacturer)
		}
		return
	}

	count, err := importer.Import(ctx, *csvPath, !*appendTo, !*noBackup)
	if err != nil {
		logger.Error("import failed", "path", *csvPath, "error", err)
		os.Exit(1)
	}

	stats, hits, err := importer.Validate(ctx)
	if err != nil {
		logger.Warn("post-import validation failed", "error", err)
	}

	fmt.Println("=== インポート結果 ===")
	fmt.Printf("インポート件数: %d件\n", count)
	fmt.Printf("総薬品数: %d件\n", stats.TotalMedicines)
	fmt.Printf("メーカー数: %d社\n", stats.TotalManufacturers)
	fmt.Printf("成分数: %d種類\n", stats.TotalIngredients)
	fmt.Printf("検索テスト: %d件ヒット\n", hits)
}

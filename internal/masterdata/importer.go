package masterdata

import (
	"context"
	"log/slog"

	"github.com/rxscan/rx-scanner/internal/entity"
	"github.com/rxscan/rx-scanner/internal/repository"
)

// Importer loads product-list CSVs into the medicine master.
type Importer struct {
	master repository.MasterRepository
	index  repository.MedicineIndex
	logger *slog.Logger
}

func NewImporter(master repository.MasterRepository, index repository.MedicineIndex, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{master: master, index: index, logger: logger}
}

// Import reads the CSV and loads it into the master. Replace swaps the whole
// data set (with an optional backup of the previous contents); otherwise the
// rows are appended.
func (i *Importer) Import(ctx context.Context, csvPath string, replace, backup bool) (int, error) {
	medicines, err := ReadCSVFile(csvPath, i.logger)
	if err != nil {
		return 0, err
	}
	if len(medicines) == 0 {
		i.logger.Warn("nothing to import", "path", csvPath)
		return 0, nil
	}

	var count int
	if replace {
		count, err = i.master.BulkReplace(ctx, medicines, backup)
	} else {
		count, err = i.master.BulkInsert(ctx, medicines)
	}
	if err != nil {
		return 0, err
	}
	i.logger.Info("import complete", "path", csvPath, "count", count, "replace", replace)
	return count, nil
}

// Preview parses the CSV and returns the first limit records without
// touching the database.
func (i *Importer) Preview(csvPath string, limit int) ([]entity.MedicineRecord, error) {
	medicines, err := ReadCSVFile(csvPath, i.logger)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(medicines) > limit {
		medicines = medicines[:limit]
	}
	return medicines, nil
}

// Validate reports post-import statistics and runs a canary search so a
// broken FTS index is caught right after importing, not at scan time.
func (i *Importer) Validate(ctx context.Context) (entity.MasterStats, int, error) {
	stats, err := i.master.Stats(ctx)
	if err != nil {
		return entity.MasterStats{}, 0, err
	}
	hits, err := i.index.Search(ctx, "アスピリン", 5)
	if err != nil {
		return stats, 0, err
	}
	i.logger.Info("import validated", "total_medicines", stats.TotalMedicines, "search_hits", len(hits))
	return stats, len(hits), nil
}

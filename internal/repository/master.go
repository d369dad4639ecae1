package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/rxscan/rx-scanner/internal/common"
	"github.com/rxscan/rx-scanner/internal/entity"
)

// MasterRepository maintains the medicine master: bulk loads from the
// price-list import, backups, and statistics.
type MasterRepository interface {
	Insert(ctx context.Context, m entity.MedicineRecord) (int64, error)
	BulkInsert(ctx context.Context, medicines []entity.MedicineRecord) (int, error)
	// BulkReplace swaps the whole master for a new data set, rebuilding the
	// FTS index. With backup enabled the previous contents are saved next to
	// the database file first.
	BulkReplace(ctx context.Context, medicines []entity.MedicineRecord, backup bool) (int, error)
	Stats(ctx context.Context) (entity.MasterStats, error)
}

type masterRepository struct {
	db     *sql.DB
	path   string // database file path, "" for in-memory (no backups)
	logger *slog.Logger
}

func NewMasterRepository(db *sql.DB, path string, logger *slog.Logger) MasterRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &masterRepository{db: db, path: path, logger: logger}
}

const insertSQL = `
	INSERT INTO medicines (product_name, ingredient_name, specification,
	                       classification, medicine_type, price, manufacturer)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

func (r *masterRepository) Insert(ctx context.Context, m entity.MedicineRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertSQL,
		m.ProductName, m.IngredientName, m.Specification,
		m.Classification, string(m.MedicineType), m.Price, m.Manufacturer)
	if err != nil {
		return 0, common.WrapError(err, "insert medicine")
	}
	return res.LastInsertId()
}

func (r *masterRepository) BulkInsert(ctx context.Context, medicines []entity.MedicineRecord) (int, error) {
	if len(medicines) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, common.WrapError(err, "begin bulk insert")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, common.WrapError(err, "prepare bulk insert")
	}
	defer stmt.Close()

	for _, m := range medicines {
		if _, err := stmt.ExecContext(ctx,
			m.ProductName, m.IngredientName, m.Specification,
			m.Classification, string(m.MedicineType), m.Price, m.Manufacturer); err != nil {
			return 0, common.WrapError(err, "bulk insert row")
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, common.WrapError(err, "commit bulk insert")
	}
	r.logger.Info("medicines inserted", "count", len(medicines))
	return len(medicines), nil
}

func (r *masterRepository) BulkReplace(ctx context.Context, medicines []entity.MedicineRecord, backup bool) (int, error) {
	if len(medicines) == 0 {
		return 0, common.NewAppError("MASTER_EMPTY", "no medicines to import", common.ErrInvalidInput)
	}

	if backup {
		if n, err := r.createBackup(ctx); err != nil {
			r.logger.Warn("backup failed, continuing with replace", "error", err)
		} else if n > 0 {
			r.logger.Info("backup created", "rows", n)
		}
	}

	r.logger.Info("replacing medicine master", "count", len(medicines))
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, common.WrapError(err, "begin replace")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM medicines`); err != nil {
		return 0, common.WrapError(err, "clear medicines")
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, common.WrapError(err, "prepare replace insert")
	}
	defer stmt.Close()
	for _, m := range medicines {
		if _, err := stmt.ExecContext(ctx,
			m.ProductName, m.IngredientName, m.Specification,
			m.Classification, string(m.MedicineType), m.Price, m.Manufacturer); err != nil {
			return 0, common.WrapError(err, "replace insert row")
		}
	}

	// The delete trigger keeps the FTS table consistent row by row; a full
	// rebuild afterwards compacts it.
	if _, err := tx.ExecContext(ctx, `INSERT INTO medicines_fts(medicines_fts) VALUES('rebuild')`); err != nil {
		return 0, common.WrapError(err, "rebuild fts index")
	}

	if err := tx.Commit(); err != nil {
		return 0, common.WrapError(err, "commit replace")
	}
	r.logger.Info("medicine master replaced", "count", len(medicines))
	return len(medicines), nil
}

// createBackup snapshots the database file next to itself with a timestamped
// name, using VACUUM INTO so readers are never blocked.
func (r *masterRepository) createBackup(ctx context.Context) (int, error) {
	if r.path == "" || r.path == ":memory:" {
		return 0, nil
	}

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM medicines`).Scan(&count); err != nil {
		return 0, err
	}
	if count == 0 {
		r.logger.Info("nothing to back up")
		return 0, nil
	}

	stamp := time.Now().Format("20060102_150405")
	backupPath := filepath.Join(filepath.Dir(r.path), fmt.Sprintf("medicines_backup_%s.db", stamp))
	if _, err := r.db.ExecContext(ctx, `VACUUM INTO ?`, backupPath); err != nil {
		return 0, err
	}
	r.logger.Info("backup written", "path", backupPath, "rows", count)
	return count, nil
}

func (r *masterRepository) Stats(ctx context.Context) (entity.MasterStats, error) {
	var s entity.MasterStats
	queries := []struct {
		sql string
		dst *int
	}{
		{`SELECT COUNT(*) FROM medicines`, &s.TotalMedicines},
		{`SELECT COUNT(DISTINCT manufacturer) FROM medicines`, &s.TotalManufacturers},
		{`SELECT COUNT(DISTINCT ingredient_name) FROM medicines`, &s.TotalIngredients},
		{`SELECT COUNT(DISTINCT classification) FROM medicines`, &s.TotalClasses},
	}
	for _, q := range queries {
		if err := r.db.QueryRowContext(ctx, q.sql).Scan(q.dst); err != nil {
			return entity.MasterStats{}, common.WrapError(err, "master stats")
		}
	}
	return s, nil
}

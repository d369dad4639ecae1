package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

type Config struct {
	Path        string // database file path; ":memory:" for an in-memory DB
	BusyTimeout time.Duration
}

// Open opens (creating if necessary) the medicine-master SQLite database and
// ensures the schema, including the FTS index, is in place.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening medicine database", "path", cfg.Path)

	dsn := cfg.Path
	if cfg.BusyTimeout > 0 {
		dsn = fmt.Sprintf("%s?_pragma=busy_timeout(%d)", cfg.Path, cfg.BusyTimeout.Milliseconds())
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Path, "error", err)
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping database", "path", cfg.Path, "error", err)
		_ = db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		_ = db.Close()
		return nil, err
	}

	logger.Info("medicine database ready")
	return db, nil
}

// Close closes the database connection gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
		return
	}
	logger.Info("database closed")
}

// HealthCheck pings the database to catch path/permission issues early.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}

// schemaStatements create the master table, its indexes, the FTS5 shadow
// table and the triggers keeping both in sync. Statement order matters.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS medicines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_name TEXT NOT NULL,
		ingredient_name TEXT NOT NULL,
		specification TEXT,
		classification TEXT NOT NULL,
		medicine_type TEXT NOT NULL DEFAULT 'その他',
		price REAL NOT NULL,
		manufacturer TEXT DEFAULT '不明',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_product_name ON medicines(product_name)`,
	`CREATE INDEX IF NOT EXISTS idx_ingredient_name ON medicines(ingredient_name)`,
	`CREATE INDEX IF NOT EXISTS idx_classification ON medicines(classification)`,
	`CREATE INDEX IF NOT EXISTS idx_specification ON medicines(specification)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS medicines_fts USING fts5(
		product_name,
		ingredient_name,
		specification,
		manufacturer,
		content="medicines",
		content_rowid="id"
	)`,
	`CREATE TRIGGER IF NOT EXISTS medicines_ai AFTER INSERT ON medicines
	BEGIN
		INSERT INTO medicines_fts(rowid, product_name, ingredient_name, specification, manufacturer)
		VALUES (new.id, new.product_name, new.ingredient_name, new.specification, new.manufacturer);
	END`,
	`CREATE TRIGGER IF NOT EXISTS medicines_ad AFTER DELETE ON medicines
	BEGIN
		INSERT INTO medicines_fts(medicines_fts, rowid, product_name, ingredient_name, specification, manufacturer)
		VALUES ('delete', old.id, old.product_name, old.ingredient_name, old.specification, old.manufacturer);
	END`,
	`CREATE TRIGGER IF NOT EXISTS medicines_au AFTER UPDATE ON medicines
	BEGIN
		INSERT INTO medicines_fts(medicines_fts, rowid, product_name, ingredient_name, specification, manufacturer)
		VALUES ('delete', old.id, old.product_name, old.ingredient_name, old.specification, old.manufacturer);
		INSERT INTO medicines_fts(rowid, product_name, ingredient_name, specification, manufacturer)
		VALUES (new.id, new.product_name, new.ingredient_name, new.specification, new.manufacturer);
	END`,
}

func initSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema init: %w", err)
		}
	}
	return nil
}

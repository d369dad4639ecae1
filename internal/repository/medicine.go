package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/rxscan/rx-scanner/constants"
	"github.com/rxscan/rx-scanner/internal/entity"
)

// MedicineIndex is the read contract the matching engine depends on.
type MedicineIndex interface {
	// Search runs a full-text prefix search over product and ingredient
	// names, ranked by relevance, returning at most limit records.
	Search(ctx context.Context, query string, limit int) ([]entity.MedicineRecord, error)
	// Alternatives returns every record sharing the exact ingredient name,
	// except the named product, ordered by medicine type then price.
	Alternatives(ctx context.Context, ingredientName, excludeName string) ([]entity.MedicineRecord, error)
}

type medicineRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewMedicineRepository returns a MedicineIndex backed by the SQLite master.
func NewMedicineRepository(db *sql.DB, logger *slog.Logger) MedicineIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &medicineRepository{db: db, logger: logger}
}

const searchSQL = `
	SELECT m.id, m.product_name, m.ingredient_name, m.specification,
	       m.classification, m.medicine_type, m.manufacturer, m.price
	FROM medicines m
	JOIN medicines_fts fts ON m.id = fts.rowid
	WHERE medicines_fts MATCH ?
	ORDER BY rank
	LIMIT ?`

func (r *medicineRepository) Search(ctx context.Context, query string, limit int) ([]entity.MedicineRecord, error) {
	query = strings.TrimSpace(query)
	// Single characters match too broadly to be useful.
	if len([]rune(query)) < 2 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, searchSQL, ftsPrefixQuery(query), limit)
	if err != nil {
		r.logger.Warn("medicine search failed", "query", query, "error", err)
		return nil, err
	}
	defer rows.Close()

	results, err := scanMedicines(rows)
	if err != nil {
		r.logger.Warn("medicine search scan failed", "query", query, "error", err)
		return nil, err
	}
	r.logger.Debug("medicine search", "query", query, "results", len(results))
	return results, nil
}

const alternativesSQL = `
	SELECT id, product_name, ingredient_name, specification,
	       classification, medicine_type, manufacturer, price
	FROM medicines
	WHERE ingredient_name = ? AND product_name != ?
	ORDER BY medicine_type, price`

func (r *medicineRepository) Alternatives(ctx context.Context, ingredientName, excludeName string) ([]entity.MedicineRecord, error) {
	if ingredientName == "" {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, alternativesSQL, ingredientName, excludeName)
	if err != nil {
		r.logger.Warn("alternatives lookup failed", "ingredient", ingredientName, "error", err)
		return nil, err
	}
	defer rows.Close()
	return scanMedicines(rows)
}

// ftsPrefixQuery wraps the query as a quoted phrase with a prefix star so a
// 3-character fragment behaves as prefix search rather than token search.
// Embedded double quotes are doubled per FTS5 string rules.
func ftsPrefixQuery(query string) string {
	return `"` + strings.ReplaceAll(query, `"`, `""`) + `"*`
}

func scanMedicines(rows *sql.Rows) ([]entity.MedicineRecord, error) {
	var out []entity.MedicineRecord
	for rows.Next() {
		var m entity.MedicineRecord
		var spec, manufacturer sql.NullString
		var mtype string
		if err := rows.Scan(&m.ID, &m.ProductName, &m.IngredientName, &spec,
			&m.Classification, &mtype, &manufacturer, &m.Price); err != nil {
			return nil, err
		}
		m.Specification = spec.String
		m.Manufacturer = manufacturer.String
		m.MedicineType = constants.MedicineType(mtype)
		out = append(out, m)
	}
	return out, rows.Err()
}

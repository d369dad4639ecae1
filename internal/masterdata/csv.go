package masterdata

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/rxscan/rx-scanner/constants"
	"github.com/rxscan/rx-scanner/internal/common"
	"github.com/rxscan/rx-scanner/internal/entity"
)

// Required product-list columns, matched by header name so column order in
// the source file does not matter.
var requiredColumns = []string{
	"classification",
	"ingredient_name",
	"specification",
	"product_name",
	"manufacturer",
	"price",
}

// medicine_type is optional; absent, the type is inferred from the product
// name.
const typeColumn = "medicine_type"

// ReadCSVFile loads a product-list CSV from disk.
func ReadCSVFile(path string, logger *slog.Logger) ([]entity.MedicineRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewAppError("CSV_OPEN", "failed to open product list", err)
	}
	defer f.Close()
	return ParseCSV(f, logger)
}

// ParseCSV parses product-list rows into medicine records. Rows with an
// empty product name are skipped; classification and manufacturer fall back
// to 未分類 and 不明; unparseable prices become 0.0 rather than failing the
// import.
func ParseCSV(r io.Reader, logger *slog.Logger) ([]entity.MedicineRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // validated per row below

	header, err := cr.Read()
	if err != nil {
		return nil, common.NewAppError("CSV_HEADER", "failed to read CSV header", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := col[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, common.NewAppError("CSV_COLUMNS", "missing required columns: "+strings.Join(missing, ", "), common.ErrValidation)
	}
	typeIdx, hasType := col[typeColumn]

	field := func(row []string, name string) string {
		i := col[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var medicines []entity.MedicineRecord
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logger.Warn("skipping malformed CSV row", "line", line, "error", err)
			continue
		}

		product := field(row, "product_name")
		if product == "" {
			logger.Warn("skipping row with empty product name", "line", line)
			continue
		}

		classification := field(row, "classification")
		if classification == "" {
			classification = "未分類"
		}
		manufacturer := field(row, "manufacturer")
		if manufacturer == "" {
			manufacturer = "不明"
		}

		mtype := ""
		if hasType && typeIdx < len(row) {
			mtype = strings.TrimSpace(row[typeIdx])
		}

		medicines = append(medicines, entity.MedicineRecord{
			ProductName:    product,
			IngredientName: field(row, "ingredient_name"),
			Specification:  field(row, "specification"),
			Classification: classification,
			MedicineType:   classifyMedicineType(mtype, product),
			Manufacturer:   manufacturer,
			Price:          parsePrice(field(row, "price"), logger),
		})
	}

	logger.Info("product list parsed", "rows", line-1, "medicines", len(medicines))
	return medicines, nil
}

// parsePrice converts a price cell to a float, tolerating thousands commas
// and stray spaces. Bad values become 0.0 so one row cannot sink an import.
func parsePrice(s string, logger *slog.Logger) float64 {
	if s == "" {
		return 0.0
	}
	clean := strings.ReplaceAll(strings.ReplaceAll(s, ",", ""), " ", "")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		logger.Warn("price parse failed, defaulting to 0.0", "value", s)
		return 0.0
	}
	return v
}

// classifyMedicineType normalizes an explicit type cell, falling back to a
// naming convention: generic products carry the maker name in 「」 brackets
// ("アムロジピン錠5mg「サワイ」").
func classifyMedicineType(cell, productName string) constants.MedicineType {
	switch constants.MedicineType(cell) {
	case constants.MedicineTypeBrand, constants.MedicineTypeGeneric, constants.MedicineTypeOther:
		return constants.MedicineType(cell)
	}
	if strings.Contains(productName, "「") && strings.Contains(productName, "」") {
		return constants.MedicineTypeGeneric
	}
	return constants.MedicineTypeOther
}

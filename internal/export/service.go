package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/rxscan/rx-scanner/internal/entity"
)

// Service produces XLSX bytes for scan results.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportScanXLSX renders one scan result as an XLSX workbook: a row per
// reconciled medicine plus the raw OCR text on a second sheet for auditing.
func (s *Service) ExportScanXLSX(scanID uuid.UUID, result entity.ScanResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Medicines"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"表示名",
		"医薬品名",
		"成分名",
		"規格",
		"区分",
		"メーカー",
		"薬価",
		"信頼度",
		"一致語",
		"代替薬",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, m := range result.Medicines {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		var alts []string
		for _, a := range m.AlternativeMedicines {
			alts = append(alts, a.ProductName)
		}

		write(1, m.DisplayName)
		write(2, m.MedicineName)
		write(3, m.IngredientName)
		write(4, m.Specification)
		write(5, string(m.MedicineType))
		write(6, m.Manufacturer)
		write(7, m.Price)
		write(8, fmt.Sprintf("%.2f", m.Confidence))
		write(9, m.MatchedWord)
		write(10, strings.Join(alts, " / "))

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "C", 28)
	_ = f.SetColWidth(sheet, "D", "D", 16)
	_ = f.SetColWidth(sheet, "E", "F", 14)
	_ = f.SetColWidth(sheet, "G", "I", 10)
	_ = f.SetColWidth(sheet, "J", "J", 60)

	const rawSheet = "RawText"
	if _, err := f.NewSheet(rawSheet); err == nil {
		_ = f.SetCellValue(rawSheet, "A1", result.RawText)
		_ = f.SetColWidth(rawSheet, "A", "A", 120)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"scan_id", scanID.String(),
		"rows", len(result.Medicines),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

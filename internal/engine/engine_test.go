package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/rxscan/rx-scanner/constants"
	"github.com/rxscan/rx-scanner/internal/entity"
)

// fakeIndex serves canned master records with substring search, mimicking
// the FTS prefix behavior closely enough for engine tests.
type fakeIndex struct {
	records []entity.MedicineRecord
	failOn  map[string]bool
}

func (f *fakeIndex) Search(ctx context.Context, query string, limit int) ([]entity.MedicineRecord, error) {
	if f.failOn[query] {
		return nil, errors.New("index offline")
	}
	var out []entity.MedicineRecord
	for _, r := range f.records {
		if strings.Contains(r.ProductName, query) || strings.Contains(r.IngredientName, query) {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeIndex) Alternatives(ctx context.Context, ingredientName, excludeName string) ([]entity.MedicineRecord, error) {
	if f.failOn["alt:"+ingredientName] {
		return nil, errors.New("index offline")
	}
	var out []entity.MedicineRecord
	for _, r := range f.records {
		if r.IngredientName == ingredientName && r.ProductName != excludeName {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MedicineType != out[j].MedicineType {
			return out[i].MedicineType < out[j].MedicineType
		}
		return out[i].Price < out[j].Price
	})
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMaster() []entity.MedicineRecord {
	return []entity.MedicineRecord{
		{
			ID:             1,
			ProductName:    "アスピリン錠100mg",
			IngredientName: "アスピリン",
			Specification:  "100mg1錠",
			Classification: "解熱鎮痛消炎剤",
			MedicineType:   constants.MedicineTypeBrand,
			Manufacturer:   "サンプル製薬",
			Price:          10.1,
		},
		{
			ID:             2,
			ProductName:    "バファリン配合錠A81",
			IngredientName: "アスピリン",
			Specification:  "81mg1錠",
			Classification: "解熱鎮痛消炎剤",
			MedicineType:   constants.MedicineTypeGeneric,
			Manufacturer:   "サンプル製薬",
			Price:          5.7,
		},
		{
			ID:             3,
			ProductName:    "ムコダイン錠250mg",
			IngredientName: "カルボシステイン",
			Specification:  "250mg1錠",
			Classification: "去たん剤",
			MedicineType:   constants.MedicineTypeBrand,
			Manufacturer:   "サンプル製薬",
			Price:          8.3,
		},
	}
}

func TestProcessCorroboratedMatch(t *testing.T) {
	e := NewEngine(&fakeIndex{records: testMaster()}, testLogger())

	tokens := []entity.OCRToken{
		{Text: "アスピリン錠", LineNum: 1, Confidence: 92},
		{Text: "100mg", LineNum: 1, Confidence: 88},
	}
	got := e.Process(context.Background(), tokens)

	if got.RawText != "アスピリン錠100mg" {
		t.Errorf("RawText = %q", got.RawText)
	}
	if len(got.Medicines) != 1 {
		t.Fatalf("got %d medicines, want 1", len(got.Medicines))
	}
	m := got.Medicines[0]
	if m.Confidence != constants.ConfidenceFormSpec {
		t.Errorf("Confidence = %.2f, want 0.90", m.Confidence)
	}
	if m.MatchedWord != "アスピリン錠" {
		t.Errorf("MatchedWord = %q", m.MatchedWord)
	}
	if m.DisplayName != "アスピリン錠100mg" {
		t.Errorf("DisplayName = %q, want the product name at 0.90", m.DisplayName)
	}
	if !m.HasAlternatives || len(m.AlternativeMedicines) != 1 {
		t.Errorf("alternatives = %v, want exactly the other aspirin product", m.AlternativeMedicines)
	}
}

func TestProcessHiraganaLine(t *testing.T) {
	e := NewEngine(&fakeIndex{records: testMaster()}, testLogger())

	// OCR frequently reads katakana drug names as hiragana.
	tokens := []entity.OCRToken{{Text: "あすぴりん錠100mg", LineNum: 1, Confidence: 75}}
	got := e.Process(context.Background(), tokens)

	if len(got.Medicines) != 1 {
		t.Fatalf("got %d medicines, want 1", len(got.Medicines))
	}
	if got.Medicines[0].MedicineName != "アスピリン錠100mg" {
		t.Errorf("MedicineName = %q", got.Medicines[0].MedicineName)
	}
	if got.RawText != "あすぴりん錠100mg" {
		t.Errorf("RawText = %q, want the original text untouched", got.RawText)
	}
}

func TestProcessIngredientTierPicksLowerStrength(t *testing.T) {
	e := NewEngine(&fakeIndex{records: testMaster()}, testLogger())

	// Bare ingredient name, no form or strength on the line: both aspirin
	// records score 0.80 and the lower strength must win.
	tokens := []entity.OCRToken{{Text: "アスピリン", LineNum: 1, Confidence: 90}}
	got := e.Process(context.Background(), tokens)

	if len(got.Medicines) != 1 {
		t.Fatalf("got %d medicines, want 1", len(got.Medicines))
	}
	m := got.Medicines[0]
	if m.MedicineName != "バファリン配合錠A81" {
		t.Errorf("MedicineName = %q, want the 81mg record", m.MedicineName)
	}
	if m.Confidence != constants.ConfidenceExactIngredient {
		t.Errorf("Confidence = %.2f, want 0.80", m.Confidence)
	}
	if m.DisplayName != "アスピリン" {
		t.Errorf("DisplayName = %q, want the ingredient below 0.90 with alternatives", m.DisplayName)
	}
}

func TestProcessNoAlternativesShowsProduct(t *testing.T) {
	e := NewEngine(&fakeIndex{records: testMaster()}, testLogger())

	tokens := []entity.OCRToken{{Text: "カルボシステイン", LineNum: 1, Confidence: 90}}
	got := e.Process(context.Background(), tokens)

	if len(got.Medicines) != 1 {
		t.Fatalf("got %d medicines, want 1", len(got.Medicines))
	}
	m := got.Medicines[0]
	if m.HasAlternatives {
		t.Error("HasAlternatives = true, want false")
	}
	if m.DisplayName != "ムコダイン錠250mg" {
		t.Errorf("DisplayName = %q, want the product when nothing disambiguates", m.DisplayName)
	}
}

func TestProcessLineIsolation(t *testing.T) {
	idx := &fakeIndex{
		records: testMaster(),
		failOn:  map[string]bool{"ダミートークン": true},
	}
	e := NewEngine(idx, testLogger())

	tokens := []entity.OCRToken{
		{Text: "ダミートークン", LineNum: 1, Confidence: 80},
		{Text: "ムコダイン錠250mg", LineNum: 2, Confidence: 91},
	}
	got := e.Process(context.Background(), tokens)

	if len(got.Medicines) != 1 {
		t.Fatalf("got %d medicines, want 1 despite the failing token", len(got.Medicines))
	}
	if got.Medicines[0].Confidence != constants.ConfidenceFormSpec {
		t.Errorf("Confidence = %.2f, want 0.90", got.Medicines[0].Confidence)
	}
}

func TestProcessDegradedMode(t *testing.T) {
	e := NewEngine(nil, testLogger())

	tokens := []entity.OCRToken{{Text: "アスピリン錠100mg", LineNum: 1, Confidence: 95}}
	got := e.Process(context.Background(), tokens)

	if len(got.Medicines) != 0 {
		t.Errorf("got %d medicines, want 0 without an index", len(got.Medicines))
	}
	if got.RawText != "アスピリン錠100mg" {
		t.Errorf("RawText = %q, want it preserved in degraded mode", got.RawText)
	}
}

func TestProcessDeterministic(t *testing.T) {
	e := NewEngine(&fakeIndex{records: testMaster()}, testLogger())

	tokens := []entity.OCRToken{
		{Text: "アスピリン錠", LineNum: 1, Confidence: 92},
		{Text: "100mg", LineNum: 1, Confidence: 88},
		{Text: "ムコダイン錠250mg", LineNum: 2, Confidence: 91},
		{Text: "アスピリン", LineNum: 3, Confidence: 85},
	}
	first := e.Process(context.Background(), tokens)
	second := e.Process(context.Background(), tokens)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated runs differ:\n%+v\n%+v", first, second)
	}
}

package tokendump

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rxscan/rx-scanner/internal/entity"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t600\t800\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t10\t10\t80\t20\t96\tアスピリン錠\n" +
	"5\t1\t1\t1\t1\t2\t95\t10\t40\t20\t88.50\t100mg\n" +
	"5\t1\t1\t1\t2\t1\t10\t40\t80\t20\t12\tノイズ\n" +
	"5\t1\t1\t2\t1\t1\t10\t70\t80\t20\t91\tムコダイン錠\n"

func TestParseTSV(t *testing.T) {
	got := ParseTSV([]byte(sampleTSV), 30)
	want := []entity.OCRToken{
		{Text: "アスピリン錠", LineNum: 1, Confidence: 96},
		{Text: "100mg", LineNum: 1, Confidence: 88},
		{Text: "ムコダイン錠", LineNum: 2, Confidence: 91},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseTSV() = %+v, want %+v", got, want)
	}
}

func TestParseTSVEmptyAndMalformed(t *testing.T) {
	if got := ParseTSV(nil, 30); got != nil {
		t.Errorf("ParseTSV(nil) = %+v, want nil", got)
	}
	// truncated rows are skipped, not fatal
	if got := ParseTSV([]byte("header\n5\t1\t1\n"), 30); got != nil {
		t.Errorf("ParseTSV(truncated) = %+v, want nil", got)
	}
}

func TestParseJSON(t *testing.T) {
	data := []byte(`{"tokens": [
		{"text": "アスピリン錠", "line_num": 1, "confidence": 92},
		{"text": "100mg", "line_num": 1, "confidence": 85},
		{"text": "ゴミ", "line_num": 2, "confidence": 10}
	]}`)

	got, err := ParseJSON(data, 30)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	want := []entity.OCRToken{
		{Text: "アスピリン錠", LineNum: 1, Confidence: 92},
		{Text: "100mg", LineNum: 1, Confidence: 85},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseJSON() = %+v, want %+v", got, want)
	}
}

func TestParseJSONRejectsMalformedDumps(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"tokens": [`},
		{"missing tokens", `{"words": []}`},
		{"token without line_num", `{"tokens": [{"text": "アスピリン"}]}`},
		{"empty text", `{"tokens": [{"text": "", "line_num": 1}]}`},
		{"confidence out of range", `{"tokens": [{"text": "アスピリン", "line_num": 1, "confidence": 150}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseJSON([]byte(tt.data), 30); err == nil {
				t.Error("ParseJSON() error = nil, want schema or decode error")
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	tsvPath := filepath.Join(dir, "scan.tsv")
	if err := os.WriteFile(tsvPath, []byte(sampleTSV), 0o644); err != nil {
		t.Fatal(err)
	}
	tokens, err := ReadFile(tsvPath, 30)
	if err != nil {
		t.Fatalf("ReadFile(tsv) error = %v", err)
	}
	if len(tokens) != 3 {
		t.Errorf("got %d tokens, want 3", len(tokens))
	}

	if _, err := ReadFile(filepath.Join(dir, "scan.txt"), 30); err == nil {
		t.Error("ReadFile(txt) error = nil, want unsupported extension")
	}
	if _, err := ReadFile(filepath.Join(dir, "missing.tsv"), 30); err == nil {
		t.Error("ReadFile(missing) error = nil, want read error")
	}
}

package ocr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/rxscan/rx-scanner/internal/common"
)

type stubRunner struct {
	stdout []byte
	stderr []byte
	err    error

	gotName string
	gotArgs []string
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.gotName = name
	s.gotArgs = args
	return s.stdout, s.stderr, s.err
}

func testConfig() common.OCRConfig {
	return common.OCRConfig{
		Tesseract:     "tesseract",
		TesseractLang: "jpn+eng",
		TessdataDir:   "/usr/share/tessdata",
		PSM:           6,
		OEM:           1,
	}
}

const stubTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"5\t1\t1\t1\t1\t1\t10\t10\t80\t20\t95\tアスピリン錠\n" +
	"5\t1\t1\t1\t1\t2\t95\t10\t40\t20\t20\tかすれ\n"

func TestRecognize(t *testing.T) {
	stub := &stubRunner{stdout: []byte(stubTSV)}
	rec := NewTesseractRecognizer(testConfig(), 30, stub, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tokens, err := rec.Recognize(context.Background(), "scan.png")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if len(tokens) != 1 || tokens[0].Text != "アスピリン錠" {
		t.Errorf("tokens = %+v, want only the high-confidence word", tokens)
	}

	if stub.gotName != "tesseract" {
		t.Errorf("command = %q", stub.gotName)
	}
	want := []string{"scan.png", "stdout", "-l", "jpn+eng", "--psm", "6", "--oem", "1", "--tessdata-dir", "/usr/share/tessdata", "tsv"}
	if strings.Join(stub.gotArgs, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v, want %v", stub.gotArgs, want)
	}
}

func TestRecognizeOmitsUnsetFlags(t *testing.T) {
	stub := &stubRunner{stdout: []byte(stubTSV)}
	cfg := common.OCRConfig{Tesseract: "tesseract", TesseractLang: "jpn"}
	rec := NewTesseractRecognizer(cfg, 30, stub, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if _, err := rec.Recognize(context.Background(), "scan.jpg"); err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	joined := strings.Join(stub.gotArgs, " ")
	for _, flag := range []string{"--psm", "--oem", "--tessdata-dir"} {
		if strings.Contains(joined, flag) {
			t.Errorf("args %q contain %s despite zero config", joined, flag)
		}
	}
}

func TestRecognizeCommandFailure(t *testing.T) {
	stub := &stubRunner{stderr: []byte("Error opening data file"), err: errors.New("exit status 1")}
	rec := NewTesseractRecognizer(testConfig(), 30, stub, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := rec.Recognize(context.Background(), "scan.png")
	if err == nil {
		t.Fatal("Recognize() error = nil, want failure")
	}
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "OCR_FAILED" {
		t.Errorf("error = %v, want AppError OCR_FAILED", err)
	}
}

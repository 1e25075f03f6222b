// Package pdfcheck inspects PDF files produced by wkhtmltopdf.
//
// It reads page count, document title and plain text so callers can check
// a conversion produced the expected content.
package pdfcheck

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// MaxFileSize bounds the files Inspect will open (64MB).
const MaxFileSize = 64 << 20

// Sentinel errors for PDF inspection.
var (
	ErrNotPDF       = errors.New("not a PDF file")
	ErrFileTooLarge = errors.New("PDF exceeds maximum size")
	ErrMalformed    = errors.New("malformed PDF")
	ErrTextNotFound = errors.New("text not found in PDF")
)

// Report describes an inspected PDF.
type Report struct {
	Path  string
	Size  int64
	Pages int
	Title string // Info dictionary title, may be empty
	Text  string // Plain text of all pages
}

// Inspect opens the PDF at path and extracts its metadata and text.
func Inspect(path string) (report *Report, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrFileTooLarge, path, info.Size(), MaxFileSize)
	}
	if err := checkHeader(path); err != nil {
		return nil, err
	}

	// The parser panics on some corrupt inputs.
	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = fmt.Errorf("%w: %s: %v", ErrMalformed, path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	defer func() { _ = f.Close() }()

	text, err := plainText(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: extracting text: %v", ErrMalformed, path, err)
	}

	return &Report{
		Path:  path,
		Size:  info.Size(),
		Pages: r.NumPage(),
		Title: r.Trailer().Key("Info").Key("Title").Text(),
		Text:  text,
	}, nil
}

// Contains reports whether the PDF at path contains text.
// Whitespace is ignored on both sides, since extraction does not
// reliably preserve word spacing.
func Contains(path, text string) (bool, error) {
	report, err := Inspect(path)
	if err != nil {
		return false, err
	}
	return report.Contains(text), nil
}

// Contains reports whether the extracted text contains s, ignoring whitespace.
func (r *Report) Contains(s string) bool {
	return strings.Contains(squash(r.Text), squash(s))
}

// Require returns ErrTextNotFound for the first of wants missing from r.
func (r *Report) Require(wants ...string) error {
	for _, w := range wants {
		if !r.Contains(w) {
			return fmt.Errorf("%w: %q in %s", ErrTextNotFound, w, r.Path)
		}
	}
	return nil
}

func plainText(r *pdf.Reader) (string, error) {
	rd, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rd); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func checkHeader(path string) error {
	f, err := os.Open(path) // #nosec G304 -- path is user-provided
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, 5)
	if _, err := io.ReadFull(f, header); err != nil || string(header) != "%PDF-" {
		return fmt.Errorf("%w: %s", ErrNotPDF, path)
	}
	return nil
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

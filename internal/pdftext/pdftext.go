// Package pdftext extracts plain text from PDF documents. It exists so the
// quote parser operates purely on strings and the PDF library can be
// swapped without touching parsing logic.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadable is returned when the bytes cannot be decoded as a PDF at
// all (corrupt, encrypted, or not a PDF). Distinct from a readable
// document whose content is simply not recognized.
var ErrUnreadable = errors.New("could not read file")

// Extractor produces page-ordered text from PDF bytes. Pages with no
// extractable text contribute nothing.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// LedongthucExtractor extracts text with github.com/ledongthuc/pdf.
type LedongthucExtractor struct{}

// Extract concatenates per-page text in document order, inserting a
// newline between pages.
func (LedongthucExtractor) Extract(data []byte) (text string, err error) {
	// The library panics on some malformed inputs; fold those into
	// ErrUnreadable rather than crashing the caller.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(word.S)
			}
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

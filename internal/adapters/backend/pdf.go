package backend

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned by InspectPDF when the payload is not a PDF document.
var ErrNotPDF = errors.New("payload is not a PDF document")

// InspectPDF returns the page count of an exported document. It does not
// extract text; it only checks that the bytes parse as a PDF.
func InspectPDF(data []byte) (pages int, err error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return 0, ErrNotPDF
	}
	// The reader panics on some malformed cross reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("%w: %v", ErrNotPDF, r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNotPDF, err)
	}
	return r.NumPage(), nil
}

//go:build !ocr

package ocr

import "errors"

// ErrOCRNotEnabled is returned when OCR support was not compiled in.
// Rebuild with -tags ocr to enable it.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Tesseract is a stub recognizer that always reports OCR as unavailable.
type Tesseract struct {
	language string
}

// NewTesseract creates a stub Recognizer; the language is ignored.
func NewTesseract(language string) *Tesseract {
	return &Tesseract{language: language}
}

// Recognize always returns ErrOCRNotEnabled; the pipeline degrades to
// empty-text extraction.
func (t *Tesseract) Recognize(pagePNG []byte) (string, error) {
	return "", ErrOCRNotEnabled
}

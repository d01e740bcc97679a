//go:build ocr

package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes text using the Tesseract OCR engine via gosseract.
// Requires the Tesseract libraries at build time (apt-get install
// tesseract-ocr libtesseract-dev, or brew install tesseract); build with
// -tags ocr to enable.
type Tesseract struct {
	language string
}

// NewTesseract creates a Recognizer for the given language(s). Multiple
// languages join with "+" (e.g. "eng+fra"). Empty defaults to "eng".
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{language: language}
}

// Recognize runs OCR on a PNG page. A fresh gosseract client is used per
// call; the pipeline recognizes pages concurrently and gosseract clients are
// not safe for concurrent use.
func (t *Tesseract) Recognize(pagePNG []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("setting language: %w", err)
	}
	if err := client.SetImageFromBytes(pagePNG); err != nil {
		return "", fmt.Errorf("setting image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}

	return strings.TrimSpace(text), nil
}

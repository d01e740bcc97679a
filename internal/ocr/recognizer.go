// Package ocr provides best-effort text recognition for bill page images.
//
// Recognition is an input signal for the structured extractor, never a hard
// dependency: any failure here is treated as "no usable text" by the
// pipeline, which then falls back to image-only extraction.
package ocr

// Recognizer extracts raw text from a PNG page image.
type Recognizer interface {
	// Recognize returns the recognized text, possibly empty. Errors are
	// recoverable; callers degrade to empty text.
	Recognize(pagePNG []byte) (string, error)
}

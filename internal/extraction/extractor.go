package extraction

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrExtraction marks a failed structured extraction (provider error or
// unparsable output). The pipeline converts it into a zero-item page rather
// than propagating it.
var ErrExtraction = errors.New("structured extraction failed")

// ItemFields is one line item as reported by the extractor.
type ItemFields struct {
	Name     string
	Amount   decimal.Decimal
	Rate     *decimal.Decimal
	Quantity *decimal.Decimal
}

// PageFields is the validated per-page payload from the extractor.
type PageFields struct {
	Items []ItemFields

	// Subtotal is the page's printed running sum, if the page shows one.
	Subtotal *decimal.Decimal

	// GrandTotal is the bill's printed final total, if this page shows it.
	GrandTotal *decimal.Decimal

	// Notes carries the model's remarks about ambiguities, for debugging.
	Notes string
}

// Extractor produces candidate line items for a single page.
type Extractor interface {
	// ExtractPage analyzes a page image, with recognized text as added
	// context. The text may be empty; the image alone must suffice.
	ExtractPage(ctx context.Context, pagePNG []byte, ocrText string) (*PageFields, error)

	// ExtractFromText is the degraded path used when the vision call
	// fails but recognized text is available.
	ExtractFromText(ctx context.Context, ocrText string) (*PageFields, error)

	// Close releases provider resources.
	Close() error
}

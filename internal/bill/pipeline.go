package bill

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/billworks/bill-extractor/internal/extraction"
	"github.com/billworks/bill-extractor/internal/ocr"
	"github.com/billworks/bill-extractor/internal/pagesource"
)

// Pipeline drives each page through recognition and structured extraction
// and fans the per-page candidates back in as a DocumentExtraction.
type Pipeline struct {
	recognizer  ocr.Recognizer
	extractor   extraction.Extractor
	concurrency int
	logger      *slog.Logger
}

// NewPipeline creates a Pipeline. Concurrency below 1 means sequential.
func NewPipeline(recognizer ocr.Recognizer, extractor extraction.Extractor, concurrency int, logger *slog.Logger) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		recognizer:  recognizer,
		extractor:   extractor,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run processes every page and returns the document's candidate extractions
// in page order, regardless of completion order. A page's failure never
// aborts the others; failed pages come back with zero items and Failed set.
// Run only returns an error when ctx is cancelled before the fan-in
// completes.
func (p *Pipeline) Run(ctx context.Context, pages []pagesource.Page) (DocumentExtraction, error) {
	results := make([]PageExtraction, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, page := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.processPage(gctx, page)
			return nil
		})
	}

	// Join barrier: every page attempt finishes (or the context dies)
	// before any aggregation happens.
	if err := g.Wait(); err != nil {
		return DocumentExtraction{}, err
	}

	return DocumentExtraction{Pages: results}, nil
}

// processPage runs one page through OCR and extraction. Recognition failure
// degrades to empty text; extraction failure degrades to the text-only
// fallback when recognized text exists, and finally to a failed zero-item
// page.
func (p *Pipeline) processPage(ctx context.Context, page pagesource.Page) PageExtraction {
	text, err := p.recognizer.Recognize(page.PNG)
	if err != nil {
		p.logger.Warn("recognition failed, proceeding without text", "page", page.Number, "error", err)
		text = ""
	}

	fields, err := p.extractor.ExtractPage(ctx, page.PNG, text)
	if err != nil && text != "" {
		p.logger.Warn("vision extraction failed, trying text-only fallback", "page", page.Number, "error", err)
		fields, err = p.extractor.ExtractFromText(ctx, text)
	}
	if err != nil {
		p.logger.Error("page extraction failed", "page", page.Number, "error", err)
		return PageExtraction{
			PageNumber:    page.Number,
			Items:         []LineItem{},
			Failed:        true,
			FailureReason: err.Error(),
		}
	}

	items := make([]LineItem, 0, len(fields.Items))
	for _, f := range fields.Items {
		items = append(items, LineItem{
			Name:     f.Name,
			Amount:   f.Amount,
			Rate:     f.Rate,
			Quantity: f.Quantity,
		})
	}

	p.logger.Info("page extracted", "page", page.Number, "items", len(items), "has_subtotal", fields.Subtotal != nil, "has_grand_total", fields.GrandTotal != nil)

	return PageExtraction{
		PageNumber: page.Number,
		Items:      items,
		Subtotal:   fields.Subtotal,
		GrandTotal: fields.GrandTotal,
	}
}

package bill

import "github.com/shopspring/decimal"

// LineItem is one priced entry on a bill. Amount is authoritative; Rate and
// Quantity are descriptive only and are never validated against Amount.
type LineItem struct {
	Name     string
	Amount   decimal.Decimal
	Rate     *decimal.Decimal
	Quantity *decimal.Decimal
}

// PageExtraction holds the candidate extraction for a single page.
// Subtotal is display metadata and is never added into any total.
// GrandTotal is set only when the page shows the bill's printed grand total.
type PageExtraction struct {
	PageNumber int // 1-based
	Items      []LineItem
	Subtotal   *decimal.Decimal
	GrandTotal *decimal.Decimal

	// Failed marks a page whose extraction could not be completed. The page
	// is kept in the document with zero items so page numbering stays intact.
	Failed        bool
	FailureReason string
}

// DocumentExtraction is the fan-in of all page attempts, ordered by page
// number. Pages are processed independently, so it may contain failed pages.
type DocumentExtraction struct {
	Pages []PageExtraction
}

// ReconciliationResult is the verified cross-page summary of a document.
type ReconciliationResult struct {
	// ReconciledAmount is the sum of every line item amount across all
	// pages. Page subtotals are excluded so nothing is counted twice.
	ReconciledAmount decimal.Decimal

	// ActualBillTotal is the grand total printed on the bill, when a page
	// reported one. Nil means the document never showed its own total.
	ActualBillTotal *decimal.Decimal

	TotalItemCount int

	// AccuracyPercentage is in [0, 100]. Nil when ActualBillTotal is
	// unknown; accuracy is a quality signal, not a correctness gate.
	AccuracyPercentage *decimal.Decimal

	IsSuccess bool
}

package bill

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Reconcile turns a document's page extractions into a verified summary.
//
// The reconciled amount is the exact decimal sum of every line item amount.
// Page subtotals are never added: a subtotal equals the sum of items already
// counted on that page, so including it would double count. Items are never
// merged by name either; a repeated name across pages is a repeated purchase.
func Reconcile(doc DocumentExtraction) ReconciliationResult {
	var (
		reconciled = decimal.Zero
		itemCount  int
		actual     *decimal.Decimal
	)

	for _, page := range doc.Pages {
		for _, item := range page.Items {
			// Negative amounts (discounts, credits) are summed as-is.
			reconciled = reconciled.Add(item.Amount)
			itemCount++
		}
		if page.GrandTotal != nil {
			// The printed grand total is typically on the last page; when
			// several pages claim one, the last page wins.
			t := *page.GrandTotal
			actual = &t
		}
	}

	return ReconciliationResult{
		ReconciledAmount:   reconciled,
		ActualBillTotal:    actual,
		TotalItemCount:     itemCount,
		AccuracyPercentage: accuracy(reconciled, actual),
		IsSuccess:          itemCount > 0,
	}
}

// accuracy computes 100 * (1 - |reconciled - actual| / |actual|), clamped to
// [0, 100]. A nil actual total makes accuracy indeterminate (nil). A zero
// actual total is degenerate: accuracy is 100 when the reconciled amount is
// also zero, otherwise 0.
func accuracy(reconciled decimal.Decimal, actual *decimal.Decimal) *decimal.Decimal {
	if actual == nil {
		return nil
	}

	if actual.IsZero() {
		v := decimal.Zero
		if reconciled.IsZero() {
			v = hundred
		}
		return &v
	}

	diff := reconciled.Sub(*actual).Abs()
	acc := hundred.Mul(decimal.NewFromInt(1).Sub(diff.Div(actual.Abs())))
	if acc.IsNegative() {
		acc = decimal.Zero
	}
	if acc.GreaterThan(hundred) {
		acc = hundred
	}
	return &acc
}

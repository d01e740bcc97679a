package bill

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Response is the public response shape.
type Response struct {
	IsSuccess bool           `json:"is_success"`
	Data      *ExtractedData `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// ExtractedData is the reconciled document payload.
type ExtractedData struct {
	PagewiseLineItems  []PageItems `json:"pagewise_line_items"`
	TotalItemCount     int         `json:"total_item_count"`
	ReconciledAmount   float64     `json:"reconciled_amount"`
	ActualBillTotal    *float64    `json:"actual_bill_total"`
	AccuracyPercentage *float64    `json:"accuracy_percentage"`
}

// PageItems groups line items by page.
type PageItems struct {
	PageNo    string     `json:"page_no"`
	BillItems []BillItem `json:"bill_items"`
	SubTotal  *float64   `json:"sub_total"`
}

// BillItem is one line item in the public shape.
type BillItem struct {
	ItemName     string   `json:"item_name"`
	ItemAmount   float64  `json:"item_amount"`
	ItemRate     *float64 `json:"item_rate"`
	ItemQuantity *float64 `json:"item_quantity"`
}

// Assemble maps the reconciliation output into the public response shape.
// Pure structural transformation: decimals become JSON numbers rounded to
// two places, absent optionals become nulls.
func Assemble(doc DocumentExtraction, res ReconciliationResult) *Response {
	pages := make([]PageItems, 0, len(doc.Pages))
	for _, page := range doc.Pages {
		items := make([]BillItem, 0, len(page.Items))
		for _, item := range page.Items {
			items = append(items, BillItem{
				ItemName:     item.Name,
				ItemAmount:   toNumber(item.Amount),
				ItemRate:     toOptionalNumber(item.Rate),
				ItemQuantity: toOptionalNumber(item.Quantity),
			})
		}
		pages = append(pages, PageItems{
			PageNo:    strconv.Itoa(page.PageNumber),
			BillItems: items,
			SubTotal:  toOptionalNumber(page.Subtotal),
		})
	}

	return &Response{
		IsSuccess: res.IsSuccess,
		Data: &ExtractedData{
			PagewiseLineItems:  pages,
			TotalItemCount:     res.TotalItemCount,
			ReconciledAmount:   toNumber(res.ReconciledAmount),
			ActualBillTotal:    toOptionalNumber(res.ActualBillTotal),
			AccuracyPercentage: toOptionalNumber(res.AccuracyPercentage),
		},
	}
}

func toNumber(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func toOptionalNumber(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := toNumber(*d)
	return &f
}

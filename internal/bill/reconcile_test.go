package bill

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

var _ = Describe("Reconcile", func() {
	var (
		doc    DocumentExtraction
		result ReconciliationResult
	)

	BeforeEach(func() {
		doc = DocumentExtraction{}
	})

	JustBeforeEach(func() {
		result = Reconcile(doc)
	})

	When("items match the printed total exactly", func() {
		BeforeEach(func() {
			doc.Pages = []PageExtraction{
				{
					PageNumber: 1,
					Items: []LineItem{
						{Name: "Consultation", Amount: dec("448.0")},
						{Name: "Lab work", Amount: dec("124.03")},
					},
					GrandTotal: decPtr("572.03"),
				},
			}
		})

		It("reconciles to the sum of line items", func() {
			Expect(result.ReconciledAmount.Equal(dec("572.03"))).To(BeTrue())
		})

		It("reports perfect accuracy", func() {
			Expect(result.AccuracyPercentage).NotTo(BeNil())
			Expect(result.AccuracyPercentage.Equal(dec("100"))).To(BeTrue())
		})

		It("counts both items", func() {
			Expect(result.TotalItemCount).To(Equal(2))
		})

		It("is successful", func() {
			Expect(result.IsSuccess).To(BeTrue())
		})
	})

	When("a page reports a subtotal alongside its items", func() {
		BeforeEach(func() {
			doc.Pages = []PageExtraction{
				{
					PageNumber: 1,
					Items: []LineItem{
						{Name: "Item A", Amount: dec("100")},
						{Name: "Item B", Amount: dec("50")},
					},
					Subtotal:   decPtr("150"),
					GrandTotal: decPtr("150"),
				},
			}
		})

		It("excludes the subtotal from the reconciled amount", func() {
			Expect(result.ReconciledAmount.Equal(dec("150"))).To(BeTrue())
		})

		It("reports perfect accuracy", func() {
			Expect(result.AccuracyPercentage.Equal(dec("100"))).To(BeTrue())
		})
	})

	When("subtotals vary but items do not", func() {
		var base decimal.Decimal

		BeforeEach(func() {
			doc.Pages = []PageExtraction{
				{PageNumber: 1, Items: []LineItem{{Name: "X", Amount: dec("10")}}},
			}
			base = Reconcile(doc).ReconciledAmount
			doc.Pages[0].Subtotal = decPtr("9999")
		})

		It("produces the same reconciled amount", func() {
			Expect(result.ReconciledAmount.Equal(base)).To(BeTrue())
		})
	})

	When("items span multiple pages", func() {
		BeforeEach(func() {
			doc.Pages = []PageExtraction{
				{PageNumber: 1, Items: []LineItem{{Name: "A", Amount: dec("10")}, {Name: "B", Amount: dec("20")}}},
				{PageNumber: 2, Items: []LineItem{{Name: "C", Amount: dec("30")}}},
				{PageNumber: 3, Items: []LineItem{{Name: "D", Amount: dec("40")}}, GrandTotal: decPtr("100")},
			}
		})

		It("counts items across all pages", func() {
			Expect(result.TotalItemCount).To(Equal(4))
		})

		It("sums amounts across all pages", func() {
			Expect(result.ReconciledAmount.Equal(dec("100"))).To(BeTrue())
		})
	})

	When("duplicate item names appear on different pages", func() {
		BeforeEach(func() {
			doc.Pages = []PageExtraction{
				{PageNumber: 1, Items: []LineItem{{Name: "Coffee", Amount: dec("3.50")}}},
				{PageNumber: 2, Items: []LineItem{{Name: "Coffee", Amount: dec("3.50")}}},
			}
		})

		It("counts each instance independently", func() {
			Expect(result.TotalItemCount).To(Equal(2))
			Expect(result.ReconciledAmount.Equal(dec("7.00"))).To(BeTrue())
		})
	})

	When("items include negative amounts", func() {
		BeforeEach(func() {
			doc.Pages = []PageExtraction{
				{
					PageNumber: 1,
					Items: []LineItem{
						{Name: "Widget", Amount: dec("100")},
						{Name: "Loyalty discount", Amount: dec("-20")},
					},
					GrandTotal: decPtr("80"),
				},
			}
		})

		It("sums discounts as-is", func() {
			Expect(result.ReconciledAmount.Equal(dec("80"))).To(BeTrue())
		})

		It("reports perfect accuracy", func() {
			Expect(result.AccuracyPercentage.Equal(dec("100"))).To(BeTrue())
		})
	})

	When("the reconciled amount wildly exceeds the printed total", func() {
		BeforeEach(func() {
			doc.Pages = []PageExtraction{
				{
					PageNumber: 1,
					Items:      []LineItem{{Name: "A", Amount: dec("500")}},
					GrandTotal: decPtr("100"),
				},
			}
		})

		It("floors accuracy at zero instead of reporting a negative value", func() {
			Expect(result.AccuracyPercentage).NotTo(BeNil())
			Expect(result.AccuracyPercentage.Equal(decimal.Zero)).To(BeTrue())
		})

		It("is still successful", func() {
			Expect(result.IsSuccess).To(BeTrue())
		})
	})

	When("the printed total is zero and no items were found", func() {
		BeforeEach(func() {
			doc.Pages = []PageExtraction{
				{PageNumber: 1, Items: []LineItem{}, GrandTotal: decPtr("0")},
			}
		})

		It("defines accuracy as 100", func() {
			Expect(result.AccuracyPercentage.Equal(dec("100"))).To(BeTrue())
		})

		It("is not successful with zero items", func() {
			Expect(result.IsSuccess).To(BeFalse())
		})
	})

	When("the printed total is zero but items were found", func() {
		BeforeEach(func() {
			doc.Pages = []PageExtraction{
				{
					PageNumber: 1,
					Items:      []LineItem{{Name: "A", Amount: dec("5")}},
					GrandTotal: decPtr("0"),
				},
			}
		})

		It("defines accuracy as 0", func() {
			Expect(result.AccuracyPercentage.Equal(decimal.Zero)).To(BeTrue())
		})
	})

	When("no page reports a grand total", func() {
		BeforeEach(func() {
			doc.Pages = []PageExtraction{
				{PageNumber: 1, Items: []LineItem{{Name: "A", Amount: dec("12.50")}}},
			}
		})

		It("leaves the actual total unset", func() {
			Expect(result.ActualBillTotal).To(BeNil())
		})

		It("leaves accuracy indeterminate", func() {
			Expect(result.AccuracyPercentage).To(BeNil())
		})

		It("is still successful because items were extracted", func() {
			Expect(result.IsSuccess).To(BeTrue())
		})
	})

	When("several pages report a grand total", func() {
		BeforeEach(func() {
			doc.Pages = []PageExtraction{
				{PageNumber: 1, Items: []LineItem{{Name: "A", Amount: dec("60")}}, GrandTotal: decPtr("55")},
				{PageNumber: 2, Items: []LineItem{{Name: "B", Amount: dec("40")}}, GrandTotal: decPtr("100")},
			}
		})

		It("takes the last page's total", func() {
			Expect(result.ActualBillTotal).NotTo(BeNil())
			Expect(result.ActualBillTotal.Equal(dec("100"))).To(BeTrue())
		})
	})

	When("a page failed but another page yielded items", func() {
		BeforeEach(func() {
			doc.Pages = []PageExtraction{
				{PageNumber: 1, Items: []LineItem{{Name: "A", Amount: dec("10")}}},
				{PageNumber: 2, Items: []LineItem{}, Failed: true, FailureReason: "extractor unavailable"},
			}
		})

		It("is successful with a reduced item count", func() {
			Expect(result.IsSuccess).To(BeTrue())
			Expect(result.TotalItemCount).To(Equal(1))
		})
	})

	When("every page failed", func() {
		BeforeEach(func() {
			doc.Pages = []PageExtraction{
				{PageNumber: 1, Items: []LineItem{}, Failed: true},
				{PageNumber: 2, Items: []LineItem{}, Failed: true},
			}
		})

		It("is not successful", func() {
			Expect(result.IsSuccess).To(BeFalse())
		})

		It("reconciles to zero", func() {
			Expect(result.ReconciledAmount.Equal(decimal.Zero)).To(BeTrue())
		})
	})

	When("accuracy is fractional", func() {
		BeforeEach(func() {
			doc.Pages = []PageExtraction{
				{
					PageNumber: 1,
					Items:      []LineItem{{Name: "A", Amount: dec("90")}},
					GrandTotal: decPtr("100"),
				},
			}
		})

		It("stays within [0, 100]", func() {
			Expect(result.AccuracyPercentage.Equal(dec("90"))).To(BeTrue())
		})
	})
})

var _ = Describe("Assemble", func() {
	var (
		doc      DocumentExtraction
		result   ReconciliationResult
		response *Response
	)

	BeforeEach(func() {
		doc = DocumentExtraction{
			Pages: []PageExtraction{
				{
					PageNumber: 1,
					Items: []LineItem{
						{Name: "Consultation", Amount: dec("448.005"), Rate: decPtr("224.0025"), Quantity: decPtr("2")},
						{Name: "Lab work", Amount: dec("124.03")},
					},
					Subtotal: decPtr("572.03"),
				},
				{PageNumber: 2, Items: []LineItem{}, Failed: true, FailureReason: "boom"},
			},
		}
		result = Reconcile(doc)
	})

	JustBeforeEach(func() {
		response = Assemble(doc, result)
	})

	It("renders page numbers as strings", func() {
		Expect(response.Data.PagewiseLineItems[0].PageNo).To(Equal("1"))
		Expect(response.Data.PagewiseLineItems[1].PageNo).To(Equal("2"))
	})

	It("rounds amounts to two decimal places", func() {
		Expect(response.Data.PagewiseLineItems[0].BillItems[0].ItemAmount).To(Equal(448.01))
	})

	It("keeps failed pages with empty item lists", func() {
		Expect(response.Data.PagewiseLineItems[1].BillItems).To(BeEmpty())
	})

	It("maps absent rate and quantity to nulls", func() {
		second := response.Data.PagewiseLineItems[0].BillItems[1]
		Expect(second.ItemRate).To(BeNil())
		Expect(second.ItemQuantity).To(BeNil())
	})

	It("maps the page subtotal", func() {
		Expect(response.Data.PagewiseLineItems[0].SubTotal).NotTo(BeNil())
		Expect(*response.Data.PagewiseLineItems[0].SubTotal).To(Equal(572.03))
	})

	It("maps the absent actual total and accuracy to nulls", func() {
		Expect(response.Data.ActualBillTotal).To(BeNil())
		Expect(response.Data.AccuracyPercentage).To(BeNil())
	})

	It("carries the success flag and item count", func() {
		Expect(response.IsSuccess).To(BeTrue())
		Expect(response.Data.TotalItemCount).To(Equal(2))
	})
})

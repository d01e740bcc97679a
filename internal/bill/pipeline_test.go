package bill

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/billworks/bill-extractor/internal/extraction"
	"github.com/billworks/bill-extractor/internal/pagesource"
)

var _ = Describe("Pipeline", func() {
	var (
		recognizer *mockRecognizer
		extractor  *mockExtractor
		pipeline   *Pipeline
		pages      []pagesource.Page

		doc DocumentExtraction
		err error
	)

	BeforeEach(func() {
		recognizer = newMockRecognizer()
		extractor = newMockExtractor()
		pipeline = NewPipeline(recognizer, extractor, 1, testLogger())
		pages = nil
	})

	JustBeforeEach(func() {
		doc, err = pipeline.Run(context.Background(), pages)
	})

	When("one page out of three fails", func() {
		BeforeEach(func() {
			pages = []pagesource.Page{
				{Number: 1, PNG: []byte("page-1")},
				{Number: 2, PNG: []byte("page-2")},
				{Number: 3, PNG: []byte("page-3")},
			}
			extractor.pageFields["page-1"] = &extraction.PageFields{
				Items: []extraction.ItemFields{{Name: "A", Amount: dec("10")}},
			}
			extractor.pageErrs["page-2"] = fmt.Errorf("%w: provider timeout", extraction.ErrExtraction)
			extractor.pageFields["page-3"] = &extraction.PageFields{
				Items: []extraction.ItemFields{{Name: "C", Amount: dec("30")}},
			}
		})

		It("does not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps all three pages", func() {
			Expect(doc.Pages).To(HaveLen(3))
		})

		It("marks only the failed page", func() {
			Expect(doc.Pages[0].Failed).To(BeFalse())
			Expect(doc.Pages[1].Failed).To(BeTrue())
			Expect(doc.Pages[1].Items).To(BeEmpty())
			Expect(doc.Pages[1].FailureReason).To(ContainSubstring("provider timeout"))
			Expect(doc.Pages[2].Failed).To(BeFalse())
		})
	})

	When("recognition fails for a page", func() {
		BeforeEach(func() {
			pages = []pagesource.Page{{Number: 1, PNG: []byte("page-1")}}
			recognizer.err = errors.New("tesseract not installed")
			extractor.pageFields["page-1"] = &extraction.PageFields{
				Items: []extraction.ItemFields{{Name: "A", Amount: dec("5")}},
			}
		})

		It("extracts from the image alone", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Pages[0].Failed).To(BeFalse())
			Expect(doc.Pages[0].Items).To(HaveLen(1))
		})

		It("passes empty text to the extractor", func() {
			Expect(extractor.pageTexts["page-1"]).To(BeEmpty())
		})
	})

	When("vision extraction fails but recognized text exists", func() {
		BeforeEach(func() {
			pages = []pagesource.Page{{Number: 1, PNG: []byte("page-1")}}
			recognizer.texts["page-1"] = "Coffee 3.50\nTotal 3.50"
			extractor.pageErrs["page-1"] = extraction.ErrExtraction
			extractor.textFields = &extraction.PageFields{
				Items:      []extraction.ItemFields{{Name: "Coffee", Amount: dec("3.50")}},
				GrandTotal: decPtr("3.50"),
			}
		})

		It("falls back to text-only extraction", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(extractor.textCalls).To(ConsistOf("Coffee 3.50\nTotal 3.50"))
			Expect(doc.Pages[0].Failed).To(BeFalse())
			Expect(doc.Pages[0].Items).To(HaveLen(1))
			Expect(doc.Pages[0].GrandTotal).NotTo(BeNil())
		})
	})

	When("vision extraction fails and no text is available", func() {
		BeforeEach(func() {
			pages = []pagesource.Page{{Number: 1, PNG: []byte("page-1")}}
			extractor.pageErrs["page-1"] = extraction.ErrExtraction
		})

		It("does not attempt the text fallback", func() {
			Expect(extractor.textCalls).To(BeEmpty())
		})

		It("yields a failed zero-item page", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Pages[0].Failed).To(BeTrue())
			Expect(doc.Pages[0].Items).To(BeEmpty())
		})
	})

	When("both the vision call and the text fallback fail", func() {
		BeforeEach(func() {
			pages = []pagesource.Page{{Number: 1, PNG: []byte("page-1")}}
			recognizer.texts["page-1"] = "garbled"
			extractor.pageErrs["page-1"] = extraction.ErrExtraction
			extractor.textErr = extraction.ErrExtraction
		})

		It("yields a failed zero-item page", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Pages[0].Failed).To(BeTrue())
			Expect(doc.Pages[0].Items).To(BeEmpty())
		})
	})

	When("pages run concurrently", func() {
		BeforeEach(func() {
			pipeline = NewPipeline(recognizer, extractor, 4, testLogger())
			pages = make([]pagesource.Page, 8)
			for i := range pages {
				key := fmt.Sprintf("page-%d", i+1)
				pages[i] = pagesource.Page{Number: i + 1, PNG: []byte(key)}
				extractor.pageFields[key] = &extraction.PageFields{
					Items: []extraction.ItemFields{{Name: key, Amount: dec("1")}},
				}
			}
		})

		It("preserves page order", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Pages).To(HaveLen(8))
			for i, page := range doc.Pages {
				Expect(page.PageNumber).To(Equal(i + 1))
				Expect(page.Items[0].Name).To(Equal(fmt.Sprintf("page-%d", i+1)))
			}
		})
	})

	When("the context is already cancelled", func() {
		var cancelled context.Context

		BeforeEach(func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			cancelled = ctx
			pages = []pagesource.Page{{Number: 1, PNG: []byte("page-1")}}
		})

		It("returns the context error", func() {
			_, runErr := pipeline.Run(cancelled, pages)
			Expect(runErr).To(MatchError(context.Canceled))
		})
	})
})

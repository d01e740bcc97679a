package bill

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newRecord := func(id string) *ExtractionRecord {
		return &ExtractionRecord{
			ID:          id,
			DocumentRef: "https://example.com/bill.pdf",
			Response: &Response{
				IsSuccess: true,
				Data: &ExtractedData{
					PagewiseLineItems: []PageItems{
						{PageNo: "1", BillItems: []BillItem{{ItemName: "Consultation", ItemAmount: 448.0}}},
					},
					TotalItemCount:   1,
					ReconciledAmount: 448.0,
				},
			},
			CreatedAt: time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC),
		}
	}

	Describe("SaveExtraction", func() {
		It("should persist the record", func() {
			Expect(db.SaveExtraction(newRecord("test-id"))).To(Succeed())
		})
	})

	Describe("GetExtraction", func() {
		When("the record exists", func() {
			BeforeEach(func() {
				Expect(db.SaveExtraction(newRecord("test-id"))).To(Succeed())
			})

			It("should return it intact", func() {
				record, err := db.GetExtraction("test-id")
				Expect(err).NotTo(HaveOccurred())
				Expect(record.ID).To(Equal("test-id"))
				Expect(record.DocumentRef).To(Equal("https://example.com/bill.pdf"))
				Expect(record.Response.Data.TotalItemCount).To(Equal(1))
				Expect(record.Response.Data.PagewiseLineItems[0].BillItems[0].ItemName).To(Equal("Consultation"))
				Expect(record.CreatedAt.Equal(time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC))).To(BeTrue())
			})
		})

		When("the record does not exist", func() {
			It("should return an error", func() {
				_, err := db.GetExtraction("missing")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("ListExtractions", func() {
		When("the database is empty", func() {
			It("should return no records", func() {
				records, err := db.ListExtractions()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(BeEmpty())
			})
		})

		When("records exist", func() {
			BeforeEach(func() {
				Expect(db.SaveExtraction(newRecord("a"))).To(Succeed())
				Expect(db.SaveExtraction(newRecord("b"))).To(Succeed())
			})

			It("should return them all", func() {
				records, err := db.ListExtractions()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(2))
			})
		})
	})

	Describe("persistence across reopen", func() {
		It("should keep records after closing and reopening", func() {
			Expect(db.SaveExtraction(newRecord("test-id"))).To(Succeed())
			Expect(db.Close()).To(Succeed())

			reopened, err := NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			record, err := reopened.GetExtraction("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(record.ID).To(Equal("test-id"))
			db = nil
		})
	})
})

package bill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/billworks/bill-extractor/internal/pagesource"
)

// IDGenerator generates unique IDs for extraction records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.New().String()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now().UTC()
}

// Service runs the full extraction flow for a document reference: resolve
// pages, run the pipeline, reconcile, assemble the response, and record the
// outcome in history.
type Service struct {
	source      pagesource.Source
	pipeline    *Pipeline
	db          DB
	logger      *slog.Logger
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a Service with default ID generator and time source.
func NewService(source pagesource.Source, pipeline *Pipeline, db DB, logger *slog.Logger) *Service {
	return NewServiceWithDeps(source, pipeline, db, logger, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a Service with custom dependencies for testing.
func NewServiceWithDeps(source pagesource.Source, pipeline *Pipeline, db DB, logger *slog.Logger, idGen IDGenerator, timeSrc TimeSource) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:      source,
		pipeline:    pipeline,
		db:          db,
		logger:      logger,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// ExtractBill processes a document reference end to end. The returned error
// is non-nil only for fatal conditions: an unresolvable document or a
// cancelled context. Partial failures and quality degradation are reported
// inside the Response per the numeric fields, never as errors.
func (s *Service) ExtractBill(ctx context.Context, documentRef string) (*Response, error) {
	pages, err := s.source.Resolve(ctx, documentRef)
	if err != nil {
		return nil, err
	}

	s.logger.Info("processing document", "ref", documentRef, "pages", len(pages))

	doc, err := s.pipeline.Run(ctx, pages)
	if err != nil {
		return nil, fmt.Errorf("running pipeline: %w", err)
	}

	result := Reconcile(doc)
	response := Assemble(doc, result)
	if !result.IsSuccess {
		response.Error = "no line items could be extracted from any page"
	}

	s.logger.Info("document reconciled",
		"ref", documentRef,
		"items", result.TotalItemCount,
		"reconciled_amount", result.ReconciledAmount.String(),
		"is_success", result.IsSuccess,
	)

	s.record(documentRef, response)

	return response, nil
}

// record stores the outcome in history. Best effort: a history write failure
// never fails the request.
func (s *Service) record(documentRef string, response *Response) {
	if s.db == nil {
		return
	}
	rec := &ExtractionRecord{
		ID:          s.idGenerator.Generate(),
		DocumentRef: documentRef,
		Response:    response,
		CreatedAt:   s.timeSource.Now(),
	}
	if err := s.db.SaveExtraction(rec); err != nil {
		s.logger.Warn("failed to record extraction", "id", rec.ID, "error", err)
	}
}

// GetExtraction retrieves a stored extraction by ID.
func (s *Service) GetExtraction(id string) (*ExtractionRecord, error) {
	record, err := s.db.GetExtraction(id)
	if err != nil {
		return nil, fmt.Errorf("getting extraction: %w", err)
	}
	return record, nil
}

// ListExtractions returns all stored extractions.
func (s *Service) ListExtractions() ([]*ExtractionRecord, error) {
	records, err := s.db.ListExtractions()
	if err != nil {
		return nil, fmt.Errorf("listing extractions: %w", err)
	}
	return records, nil
}

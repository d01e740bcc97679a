package bill

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/billworks/bill-extractor/internal/pagesource"
)

// ExtractRequest is the inbound request body.
type ExtractRequest struct {
	Document string `json:"document"`
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleExtractBill runs the extraction pipeline for a document reference.
func (s *Server) handleExtractBill(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &Response{IsSuccess: false, Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Document) == "" {
		writeJSON(w, http.StatusBadRequest, &Response{IsSuccess: false, Error: "document is required"})
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	response, err := s.service.ExtractBill(ctx, req.Document)
	if err != nil {
		if errors.Is(err, pagesource.ErrUnresolvableDocument) {
			slog.Error("Document could not be resolved", "document", req.Document, "error", err)
			writeJSON(w, http.StatusBadRequest, &Response{IsSuccess: false, Error: err.Error()})
			return
		}
		slog.Error("Error processing document", "document", req.Document, "error", err)
		writeJSON(w, http.StatusInternalServerError, &Response{IsSuccess: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// handleGetExtraction returns one stored extraction by ID.
func (s *Server) handleGetExtraction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	record, err := s.service.GetExtraction(id)
	if err != nil {
		setCORSHeaders(w)
		http.Error(w, "Extraction not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleListExtractions returns all stored extractions.
func (s *Server) handleListExtractions(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListExtractions()
	if err != nil {
		slog.Error("Error listing extractions", "error", err)
		setCORSHeaders(w)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// handleHealth reports the configured engines.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "healthy",
		"version":    s.info.Version,
		"provider":   s.info.Provider,
		"ocr_engine": s.info.OCREngine,
	})
}

// handleIndex describes the service.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Bill Data Extraction API",
		"version": s.info.Version,
		"endpoints": map[string]string{
			"extract":     "/extract-bill-data",
			"health":      "/health",
			"extractions": "/api/extractions",
		},
	})
}

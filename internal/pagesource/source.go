package pagesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrUnresolvableDocument means the document reference could not be fetched
// or decoded into any pages. It is the only fatal error in the pipeline.
var ErrUnresolvableDocument = errors.New("document could not be resolved to any pages")

// Page is a single bill page rendered as PNG.
type Page struct {
	Number int // 1-based
	PNG    []byte
}

// Source resolves a document reference into an ordered sequence of pages.
type Source interface {
	Resolve(ctx context.Context, ref string) ([]Page, error)
}

// HTTPSource resolves http(s) URLs and local file paths. PDFs are rendered
// one page per Page; single images become a one-page document.
type HTTPSource struct {
	client   *http.Client
	maxPages int
	logger   *slog.Logger
}

// NewHTTPSource creates a Source with the given page cap. A maxPages of 0
// means no cap.
func NewHTTPSource(timeout time.Duration, maxPages int, logger *slog.Logger) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPSource{
		client:   &http.Client{Timeout: timeout},
		maxPages: maxPages,
		logger:   logger,
	}
}

// Resolve fetches the document and converts it into ordered PNG pages.
func (s *HTTPSource) Resolve(ctx context.Context, ref string) ([]Page, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty document reference", ErrUnresolvableDocument)
	}

	data, contentType, err := s.fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolvableDocument, err)
	}

	pages, err := documentToPages(data, contentType, s.maxPages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolvableDocument, err)
	}

	s.logger.Info("document resolved", "ref", ref, "pages", len(pages), "content_type", contentType)
	return pages, nil
}

func (s *HTTPSource) fetch(ctx context.Context, ref string) ([]byte, string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return s.download(ctx, ref)
	}

	// Treat anything else as a local file path.
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, "", fmt.Errorf("reading file: %w", err)
	}
	return data, "", nil
}

func (s *HTTPSource) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("downloading document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("downloading document: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading response body: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

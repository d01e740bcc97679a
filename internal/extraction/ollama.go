package extraction

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Ollama implements the Extractor interface using a local Ollama server.
//
// Recommended vision models for bill extraction:
//   - llava:1.6 (best balance of accuracy and speed)
//   - qwen2-vl:7b (good OCR capabilities)
//   - bakllava (alternative vision model)
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

// NewOllama creates an Ollama Extractor.
func NewOllama(baseURL string, modelName string, logger *slog.Logger) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llava"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Ollama{
		baseURL: baseURL,
		model:   modelName,
		client: &http.Client{
			Timeout: 120 * time.Second, // local vision models can be slow
		},
		logger: logger,
	}, nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// ExtractPage analyzes one page image with the recognized text as context.
func (o *Ollama) ExtractPage(ctx context.Context, pagePNG []byte, ocrText string) (*PageFields, error) {
	imageB64 := base64.StdEncoding.EncodeToString(pagePNG)
	return o.chat(ctx, []ollamaMessage{
		{
			Role:    "system",
			Content: "You are an expert at reading bills and invoices. Carefully read all text in images and extract accurate information.",
		},
		{
			Role:    "user",
			Content: buildPagePrompt(ocrText),
			Images:  []string{imageB64},
		},
	})
}

// ExtractFromText is the text-only fallback when the vision call fails.
func (o *Ollama) ExtractFromText(ctx context.Context, ocrText string) (*PageFields, error) {
	return o.chat(ctx, []ollamaMessage{
		{Role: "user", Content: buildTextPrompt(ocrText)},
	})
}

func (o *Ollama) chat(ctx context.Context, messages []ollamaMessage) (*PageFields, error) {
	reqBody := ollamaChatRequest{
		Model:    o.model,
		Stream:   false,
		Messages: messages,
	}

	raw, err := sendJSON(ctx, o.client, o.baseURL+"/api/chat", reqBody, nil, o.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: calling ollama: %v", ErrExtraction, err)
	}

	var chatResp ollamaChatResponse
	if err := unmarshalResponse(raw, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	fields, err := parsePageJSON(chatResp.Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing page data: %v", ErrExtraction, err)
	}
	return fields, nil
}

// Close is a no-op; the transport is a plain HTTP client.
func (o *Ollama) Close() error {
	return nil
}

package extraction

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	openAIMaxTokens   = 4096
	openAITemperature = 0.1
)

// OpenAI implements the Extractor interface against an OpenAI-compatible
// chat completions endpoint.
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

// NewOpenAI creates an OpenAI Extractor. baseURL defaults to the public
// OpenAI API, which also makes Azure-style compatible gateways usable.
func NewOpenAI(apiKey, baseURL, modelName string, logger *slog.Logger) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if modelName == "" {
		modelName = "gpt-4o"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAI{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   modelName,
		client:  &http.Client{Timeout: 120 * time.Second},
		logger:  logger,
	}, nil
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []openAIContentPart
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractPage analyzes one page image with the recognized text as context.
func (o *OpenAI) ExtractPage(ctx context.Context, pagePNG []byte, ocrText string) (*PageFields, error) {
	imageB64 := base64.StdEncoding.EncodeToString(pagePNG)
	content := []openAIContentPart{
		{Type: "text", Text: buildPagePrompt(ocrText)},
		{
			Type: "image_url",
			ImageURL: &openAIImageURL{
				URL:    fmt.Sprintf("data:image/png;base64,%s", imageB64),
				Detail: "high",
			},
		},
	}
	return o.chat(ctx, []openAIMessage{{Role: "user", Content: content}})
}

// ExtractFromText is the text-only fallback when the vision call fails.
func (o *OpenAI) ExtractFromText(ctx context.Context, ocrText string) (*PageFields, error) {
	return o.chat(ctx, []openAIMessage{{Role: "user", Content: buildTextPrompt(ocrText)}})
}

func (o *OpenAI) chat(ctx context.Context, messages []openAIMessage) (*PageFields, error) {
	reqBody := openAIChatRequest{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   openAIMaxTokens,
		Temperature: openAITemperature,
	}

	raw, err := sendJSON(ctx, o.client, o.baseURL+"/chat/completions", reqBody, map[string]string{
		"Authorization": "Bearer " + o.apiKey,
	}, o.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: calling openai: %v", ErrExtraction, err)
	}

	var chatResp openAIChatResponse
	if err := unmarshalResponse(raw, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in openai response", ErrExtraction)
	}

	fields, err := parsePageJSON(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing page data: %v", ErrExtraction, err)
	}
	return fields, nil
}

// Close is a no-op; the transport is a plain HTTP client.
func (o *OpenAI) Close() error {
	return nil
}

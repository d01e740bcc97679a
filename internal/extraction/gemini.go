package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiCallTimeout = 60 * time.Second

// Gemini implements the Extractor interface using Google Gemini.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a Gemini Extractor.
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

// ExtractPage analyzes one page image with the recognized text as context.
func (g *Gemini) ExtractPage(ctx context.Context, pagePNG []byte, ocrText string) (*PageFields, error) {
	// The page source renders every page as PNG, so the format suffix is
	// always "png".
	parts := []genai.Part{
		genai.ImageData("png", pagePNG),
		genai.Text(buildPagePrompt(ocrText)),
	}
	return g.generate(ctx, parts)
}

// ExtractFromText is the text-only fallback when the vision call fails.
func (g *Gemini) ExtractFromText(ctx context.Context, ocrText string) (*PageFields, error) {
	return g.generate(ctx, []genai.Part{genai.Text(buildTextPrompt(ocrText))})
}

func (g *Gemini) generate(ctx context.Context, parts []genai.Part) (*PageFields, error) {
	ctx, cancel := context.WithTimeout(ctx, geminiCallTimeout)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("%w: generating content: %v", ErrExtraction, err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no response from gemini", ErrExtraction)
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	fields, err := parsePageJSON(responseText.String())
	if err != nil {
		return nil, fmt.Errorf("%w: parsing page data: %v", ErrExtraction, err)
	}
	return fields, nil
}

// Close closes the Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

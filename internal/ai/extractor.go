// Package ai turns spoken transcripts into structured document data.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckdocs/internal/utils"
)

// ErrNothingExtracted means the model found no line items in the transcript
var ErrNothingExtracted = errors.New("no line items could be extracted")

// ExtractedItem is one line item heard in the transcript
type ExtractedItem struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Extraction is the structured result of a transcript
type Extraction struct {
	CustomerName  string          `json:"customerName"`
	CustomerPhone string          `json:"customerPhone"`
	Items         []ExtractedItem `json:"items"`
	Notes         string          `json:"notes"`
}

// Extractor extracts document data from a transcript
type Extractor interface {
	Extract(ctx context.Context, transcript, locale, currency string) (*Extraction, error)
}

// generator is the part of GeminiClient the extractor needs
type generator interface {
	GenerateJSON(ctx context.Context, system, prompt string) (string, error)
}

// GeminiExtractor extracts with a Gemini model
type GeminiExtractor struct {
	gen generator
}

// NewGeminiExtractor wraps a Gemini client
func NewGeminiExtractor(client *GeminiClient) *GeminiExtractor {
	return &GeminiExtractor{gen: client}
}

// Extract asks the model for JSON and decodes it.
// A reply with no usable items is ErrNothingExtracted.
func (e *GeminiExtractor) Extract(ctx context.Context, transcript, locale, currency string) (*Extraction, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, fmt.Errorf("%w: empty transcript", ErrNothingExtracted)
	}

	raw, err := e.gen.GenerateJSON(ctx, systemPrompt(locale), userPrompt(transcript, currency))
	if err != nil {
		return nil, err
	}
	return ParseExtraction(raw)
}

// ParseExtraction decodes a model reply, tolerating Markdown fences around it
func ParseExtraction(raw string) (*Extraction, error) {
	var out Extraction
	if err := json.Unmarshal([]byte(utils.SanitizeJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}

	items := out.Items[:0]
	for _, it := range out.Items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name != "" {
			items = append(items, it)
		}
	}
	out.Items = items
	out.CustomerName = strings.TrimSpace(out.CustomerName)
	out.CustomerPhone = strings.TrimSpace(out.CustomerPhone)
	out.Notes = strings.TrimSpace(out.Notes)

	if len(out.Items) == 0 {
		return nil, ErrNothingExtracted
	}
	return &out, nil
}

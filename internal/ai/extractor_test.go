package ai

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply  string
	system string
	prompt string
}

func (f *fakeGenerator) GenerateJSON(_ context.Context, system, prompt string) (string, error) {
	f.system, f.prompt = system, prompt
	return f.reply, nil
}

func TestExtractParsesFencedReply(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n{\"customerName\":\"John Doe\",\"items\":[{\"name\":\"Unga\",\"quantity\":2,\"unitPrice\":150.5}],\"notes\":null}\n```"}
	e := &GeminiExtractor{gen: gen}

	out, err := e.Extract(context.Background(), "two packets of unga for John", "en-KE", "KES")
	require.NoError(t, err)

	assert.Equal(t, "John Doe", out.CustomerName)
	require.Len(t, out.Items, 1)
	assert.True(t, out.Items[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, out.Items[0].UnitPrice.Equal(decimal.RequireFromString("150.5")))
	assert.Empty(t, out.Notes)
	assert.Equal(t, systemPromptEnglish, gen.system)
	assert.Contains(t, gen.prompt, "two packets of unga for John")
	assert.Contains(t, gen.prompt, "Prices in KES")
}

func TestExtractUsesSwahiliPrompt(t *testing.T) {
	gen := &fakeGenerator{reply: `{"items":[{"name":"Mchele","quantity":1,"unitPrice":200}]}`}
	e := &GeminiExtractor{gen: gen}

	_, err := e.Extract(context.Background(), "kilo moja ya mchele", "sw-KE", "")
	require.NoError(t, err)
	assert.Equal(t, systemPromptSwahili, gen.system)
}

func TestExtractRejectsEmpty(t *testing.T) {
	e := &GeminiExtractor{gen: &fakeGenerator{reply: `{"items":[]}`}}

	_, err := e.Extract(context.Background(), "hello", "en", "KES")
	assert.ErrorIs(t, err, ErrNothingExtracted)

	_, err = e.Extract(context.Background(), "   ", "en", "KES")
	assert.ErrorIs(t, err, ErrNothingExtracted)
}

func TestParseExtractionDropsNamelessItems(t *testing.T) {
	out, err := ParseExtraction(`{"items":[{"name":"  ","quantity":1,"unitPrice":1},{"name":"Sukuma","quantity":3,"unitPrice":20}]}`)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Sukuma", out.Items[0].Name)
}

func TestParseExtractionRejectsGarbage(t *testing.T) {
	_, err := ParseExtraction("not json")
	assert.Error(t, err)
}

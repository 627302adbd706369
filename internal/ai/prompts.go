package ai

import (
	"fmt"
	"strings"
)

const systemPromptEnglish = "You are a business assistant. Extract document details from user speech. Return only JSON."

const systemPromptSwahili = "Wewe ni msaidizi wa biashara. Toa taarifa za hati kutoka kwa maneno ya mtumiaji. Rudisha JSON tu."

const extractionPrompt = `Extract document data from: %q

Return JSON with this structure:
{
  "customerName": "string or null",
  "customerPhone": "string or null",
  "items": [
    {
      "name": "string",
      "quantity": number,
      "unitPrice": number
    }
  ],
  "notes": "string or null"
}

Rules:
- If customer not mentioned, set null
- Parse quantities and prices as numbers
- Common items: Unga (flour), Sukuma (kale), Mchele (rice)
- Prices in %s unless specified`

// systemPrompt picks the Swahili prompt for sw* locales
func systemPrompt(locale string) string {
	if strings.HasPrefix(strings.ToLower(locale), "sw") {
		return systemPromptSwahili
	}
	return systemPromptEnglish
}

func userPrompt(transcript, currency string) string {
	if currency == "" {
		currency = "KES"
	}
	return fmt.Sprintf(extractionPrompt, transcript, currency)
}

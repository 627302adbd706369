// Package theme resolves the colours and font a document is rendered with.
package theme

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Default palette
const (
	DefaultPrimaryColor   = "#111827"
	DefaultSecondaryColor = "#1F2937"
	DefaultAccentColor    = "#F97316"
	DefaultFontFamily     = "Poppins"
)

// Theme is the visual configuration of a rendered document
type Theme struct {
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	AccentColor    string `json:"accentColor"`
	FontFamily     string `json:"fontFamily"`
}

// Default returns the fallback theme
func Default() Theme {
	return Theme{
		PrimaryColor:   DefaultPrimaryColor,
		SecondaryColor: DefaultSecondaryColor,
		AccentColor:    DefaultAccentColor,
		FontFamily:     DefaultFontFamily,
	}
}

// Normalize replaces empty or malformed fields with the default palette
func (t Theme) Normalize() Theme {
	return t.over(Default())
}

// over fills t's invalid fields from base
func (t Theme) over(base Theme) Theme {
	out := base
	if IsHexColor(t.PrimaryColor) {
		out.PrimaryColor = canonicalHex(t.PrimaryColor)
	}
	if IsHexColor(t.SecondaryColor) {
		out.SecondaryColor = canonicalHex(t.SecondaryColor)
	}
	if IsHexColor(t.AccentColor) {
		out.AccentColor = canonicalHex(t.AccentColor)
	}
	if f := strings.TrimSpace(t.FontFamily); f != "" {
		out.FontFamily = f
	}
	return out
}

// FromJSON decodes a theme; anything unreadable yields the default theme.
// Field names match case-insensitively so PascalCase snapshots also decode.
func FromJSON(data []byte) Theme {
	if len(data) == 0 {
		return Default()
	}
	var t Theme
	if err := json.Unmarshal(data, &t); err != nil {
		return Default()
	}
	return t.Normalize()
}

// JSON encodes the theme for storage on a document or template
func (t Theme) JSON() []byte {
	b, _ := json.Marshal(t)
	return b
}

// IsHexColor accepts #RGB or #RRGGBB, with or without the leading '#'
func IsHexColor(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 3 && len(s) != 6 {
		return false
	}
	_, err := strconv.ParseUint(s, 16, 32)
	return err == nil
}

// canonicalHex returns "#RRGGBB" upper-cased
func canonicalHex(s string) string {
	s = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	return "#" + s
}

// WordColor returns the colour as Word expects it ("F97316"), or fallback
func WordColor(s, fallback string) string {
	if !IsHexColor(s) {
		return fallback
	}
	return strings.TrimPrefix(canonicalHex(s), "#")
}

// RGB splits a hex colour into components. Invalid input is black.
func RGB(s string) (r, g, b int) {
	if !IsHexColor(s) {
		return 0, 0, 0
	}
	v, _ := strconv.ParseUint(strings.TrimPrefix(canonicalHex(s), "#"), 16, 32)
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}

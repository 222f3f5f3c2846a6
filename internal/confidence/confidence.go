// Package confidence scores extracted fields.
//
// A field's confidence blends three signals:
//
//	confidence = 0.55*pattern + 0.25*quality + 0.20*context
//
// pattern is a field-specific format check, quality is the averaged capture
// quality of the side the field came from, and context reflects how well the
// card was classified and rectified. Results below ReviewThreshold, and any
// absent value, are flagged for human review.
package confidence

import (
	"math"
	"strings"
	"unicode"

	"github.com/ironsheep/ine-ocr-mcp/internal/card"
	"github.com/ironsheep/ine-ocr-mcp/internal/curp"
)

const (
	PatternWeight = 0.55
	QualityWeight = 0.25
	ContextWeight = 0.20

	// ReviewThreshold is the confidence below which a field needs review.
	ReviewThreshold = 0.65
)

// FieldResult is one extracted attribute.
type FieldResult struct {
	Value          *string `json:"value"`
	Confidence     float64 `json:"confidence"`
	RequiresReview bool    `json:"requires_review"`
}

// Absent is the result for a field with no value.
func Absent() FieldResult {
	return FieldResult{RequiresReview: true}
}

// Blend combines the three signals, clamped to [0, 1] but not rounded.
func Blend(pattern, quality, context float64) float64 {
	c := PatternWeight*pattern + QualityWeight*quality + ContextWeight*context
	return math.Max(0, math.Min(1, c))
}

// Score builds the FieldResult for value. An empty value always scores 0 and
// requires review regardless of the other inputs.
func Score(value string, pattern, quality, context float64) FieldResult {
	if value == "" {
		return Absent()
	}
	c := math.Round(Blend(pattern, quality, context)*1000) / 1000
	v := value
	return FieldResult{
		Value:          &v,
		Confidence:     c,
		RequiresReview: c < ReviewThreshold,
	}
}

// Name scores a personal name: letters and spaces, 2 to 50 characters.
func Name(value string) float64 {
	n := len([]rune(value))
	switch {
	case n == 0:
		return 0
	case n < 2:
		return 0.2
	}
	for _, r := range value {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return 0.4
		}
	}
	if n > 50 {
		return 0.5
	}
	return 0.9
}

// CURP scores a CURP by format validity.
func CURP(value string) float64 {
	switch {
	case value == "":
		return 0
	case curp.IsValid(value):
		return 1
	case len(value) == curp.Length:
		return 0.5
	default:
		return 0.2
	}
}

// IDINE scores the card's ID number by length, less 0.05 per OCR correction.
func IDINE(value string, corrections int) float64 {
	var base float64
	switch len(value) {
	case 0:
		return 0
	case 18:
		base = 1
	case 17, 19:
		base = 0.8
	case 16, 20:
		base = 0.6
	default:
		base = 0.2
	}
	return math.Max(0, base-float64(corrections)*0.05)
}

// Address scores a street or colonia line.
func Address(value string) float64 {
	switch n := len([]rune(value)); {
	case n == 0:
		return 0
	case n < 3:
		return 0.3
	default:
		return 0.75
	}
}

// Seccion scores an electoral section: 1 to 4 significant digits.
func Seccion(value string) float64 {
	if value == "" {
		return 0
	}
	clean := strings.TrimLeft(strings.TrimSpace(value), "0")
	if n := len(clean); n >= 1 && n <= 4 && allDigits(clean) {
		return 1
	}
	return 0.3
}

// PostalCode scores a código postal: exactly five digits.
func PostalCode(value string) float64 {
	switch {
	case value == "":
		return 0
	case len(value) == 5 && allDigits(value):
		return 1
	default:
		return 0.2
	}
}

// Presence scores derived fields whose format was already validated upstream.
func Presence(value string) float64 {
	if value == "" {
		return 0
	}
	return 1
}

// Context scores classification and rectification success.
func Context(variant card.Variant, perspectiveOK bool) float64 {
	switch {
	case !variant.Known():
		return 0.3
	case perspectiveOK:
		return 1
	default:
		return 0.6
	}
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

package confidence

import (
	"math"
	"strings"
	"testing"

	"github.com/ironsheep/ine-ocr-mcp/internal/card"
)

func TestScore_AbsentValue(t *testing.T) {
	inputs := [][3]float64{{1, 1, 1}, {0, 0, 0}, {5, -3, 2}}
	for _, in := range inputs {
		r := Score("", in[0], in[1], in[2])
		if r.Value != nil || r.Confidence != 0 || !r.RequiresReview {
			t.Errorf("Score(\"\", %v) = %+v, want absent", in, r)
		}
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name           string
		pattern        float64
		quality        float64
		context        float64
		want           float64
		requiresReview bool
	}{
		{"all perfect", 1, 1, 1, 1, false},
		{"rounded", 0.9, 0.5, 0.3, 0.68, false},
		{"below threshold", 0.2, 0.5, 0.3, 0.295, true},
		{"clamped high", 2, 2, 2, 1, false},
		{"clamped low", -1, 0, 0, 0, true},
		{"three decimals", 0.6, 0.777, 1, 0.724, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Score("X", tt.pattern, tt.quality, tt.context)
			if r.Value == nil || *r.Value != "X" {
				t.Fatalf("value not carried: %+v", r)
			}
			if math.Abs(r.Confidence-tt.want) > 1e-9 {
				t.Errorf("confidence: got %v, want %v", r.Confidence, tt.want)
			}
			if r.RequiresReview != tt.requiresReview {
				t.Errorf("requires_review: got %v, want %v", r.RequiresReview, tt.requiresReview)
			}
		})
	}
}

func TestPatternScorers(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"name empty", Name(""), 0},
		{"name single", Name("A"), 0.2},
		{"name digits", Name("JUAN2"), 0.4},
		{"name accented", Name("MARÍA JOSÉ"), 0.9},
		{"name long", Name(strings.Repeat("A", 51)), 0.5},
		{"curp valid", CURP("PELJ000101HDFRPNA1"), 1},
		{"curp right length", CURP("123456789012345678"), 0.5},
		{"curp short", CURP("PELJ"), 0.2},
		{"curp empty", CURP(""), 0},
		{"id 18", IDINE("123456789012345678", 0), 1},
		{"id 18 two corrections", IDINE("123456789012345678", 2), 0.9},
		{"id 17", IDINE("12345678901234567", 0), 0.8},
		{"id 20", IDINE("12345678901234567890", 1), 0.55},
		{"id short", IDINE("1234", 0), 0.2},
		{"id floor", IDINE("1234", 10), 0},
		{"id empty", IDINE("", 0), 0},
		{"address short", Address("AB"), 0.3},
		{"address", Address("AV JUAREZ 12"), 0.75},
		{"seccion padded", Seccion("0123"), 1},
		{"seccion zeros", Seccion("0000"), 0.3},
		{"seccion letters", Seccion("12A4"), 0.3},
		{"cp", PostalCode("06600"), 1},
		{"cp short", PostalCode("0660"), 0.2},
		{"presence", Presence("M"), 1},
		{"presence empty", Presence(""), 0},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > 1e-9 {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestContext(t *testing.T) {
	tests := []struct {
		variant card.Variant
		ok      bool
		want    float64
	}{
		{card.VariantUnknown, true, 0.3},
		{card.VariantUnknown, false, 0.3},
		{card.VariantQR, true, 1},
		{card.VariantPDF417, false, 0.6},
	}
	for _, tt := range tests {
		if got := Context(tt.variant, tt.ok); got != tt.want {
			t.Errorf("Context(%s, %v) = %v, want %v", tt.variant, tt.ok, got, tt.want)
		}
	}
}

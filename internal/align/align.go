// Package align turns detected security-feature positions into a region
// correction for the back of the card.
package align

import (
	"image"
	"math"

	"github.com/ironsheep/ine-ocr-mcp/internal/card"
	"github.com/ironsheep/ine-ocr-mcp/internal/roi"
)

// Scale limits. Anything outside this range is treated as a detection error
// rather than a real change in card size.
const (
	MinScale = 0.7
	MaxScale = 1.5
)

// Expectation is where a variant's security feature should appear on a
// well-rectified card, in normalised coordinates.
type Expectation struct {
	CX, CY        float64
	Width, Height float64
}

// Expectations maps variants to their expected feature placement.
type Expectations map[card.Variant]Expectation

// DefaultExpectations returns the measured feature placement for each known
// card variant: the QR cluster centred in the upper band and the PDF417
// barcode spanning the lower band.
func DefaultExpectations() Expectations {
	return Expectations{
		card.VariantQR:     {CX: 0.50, CY: 0.30, Width: 0.30, Height: 0.30},
		card.VariantPDF417: {CX: 0.50, CY: 0.70, Width: 0.70, Height: 0.15},
	}
}

// Compute returns the correction for an image with the given bounds. Boxes
// are in the image's pixel coordinates relative to bounds.Min, as a
// classify.Strategy reports them. The correction is the identity when the variant has no expectation or no boxes were found.
func (e Expectations) Compute(bounds image.Rectangle, variant card.Variant, boxes []card.FeatureBox) roi.Correction {
	exp, ok := e[variant]
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	if !ok || w <= 0 || h <= 0 {
		return roi.Identity()
	}

	// Boxes are already relative to bounds.Min.
	union, ok := unionBounds(boxes)
	if !ok {
		return roi.Identity()
	}

	obsCX := float64(union.Min.X+union.Max.X) / 2 / w
	obsCY := float64(union.Min.Y+union.Max.Y) / 2 / h
	obsSize := math.Max(float64(union.Dx())/w, float64(union.Dy())/h)
	expSize := math.Max(exp.Width, exp.Height)

	scale := 1.0
	if expSize > 0 {
		scale = obsSize / expSize
	}
	scale = math.Max(MinScale, math.Min(MaxScale, scale))

	return roi.Correction{
		DX:    obsCX - exp.CX,
		DY:    obsCY - exp.CY,
		Scale: scale,
	}
}

// Compute uses DefaultExpectations.
func Compute(bounds image.Rectangle, variant card.Variant, boxes []card.FeatureBox) roi.Correction {
	return DefaultExpectations().Compute(bounds, variant, boxes)
}

// unionBounds returns the min/max extent of every point. Max is inclusive of
// the extreme points, matching how the points were measured.
func unionBounds(boxes []card.FeatureBox) (image.Rectangle, bool) {
	found := false
	var r image.Rectangle
	for _, box := range boxes {
		for _, p := range box {
			if !found {
				r = image.Rectangle{Min: p, Max: p}
				found = true
				continue
			}
			r.Min.X = min(r.Min.X, p.X)
			r.Min.Y = min(r.Min.Y, p.Y)
			r.Max.X = max(r.Max.X, p.X)
			r.Max.Y = max(r.Max.Y, p.Y)
		}
	}
	return r, found
}

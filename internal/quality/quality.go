// Package quality scores the capture quality of a card photograph.
//
// Three signals are measured on the BT.601 grayscale image, each in [0,1]:
//
//   - Blur: variance of the Laplacian divided by 500. Sharp text-bearing
//     photographs exceed 500; blurred ones fall far below. Higher is sharper.
//   - Glare: share of pixels brighter than 240. Lower is better.
//   - Exposure: standard deviation of the luminance histogram divided by 64.
//     Higher means the full tonal range is used.
package quality

import (
	"image"
	"math"

	"github.com/ironsheep/ine-ocr-mcp/internal/card"
	"github.com/ironsheep/ine-ocr-mcp/internal/imaging"
)

// Grade summarises the three signals.
type Grade string

const (
	GradeGood    Grade = "good"
	GradeFair    Grade = "fair"
	GradePoor    Grade = "poor"
	GradeUnknown Grade = "unknown"
)

const (
	blurNorm      = 500.0
	glareLevel    = 240
	exposureNorm  = 64.0
	minBlur       = 0.3
	maxGlare      = 0.15
	minExposure   = 0.3
	goodThreshold = 0.7
	fairThreshold = 0.4
)

// Metrics are the quality measurements for one side of the card.
// PerspectiveOK is filled in after rectification.
type Metrics struct {
	Blur          float64 `json:"blur"`
	Glare         float64 `json:"glare"`
	Exposure      float64 `json:"exposure"`
	PerspectiveOK bool    `json:"perspective_ok"`
	Grade         Grade   `json:"quality_grade"`
}

// Unassessed is reported for a side that was never measured.
func Unassessed() Metrics {
	return Metrics{PerspectiveOK: true, Grade: GradeUnknown}
}

// Score is the averaged quality signal used in confidence scoring.
func (m Metrics) Score() float64 {
	return (m.Blur + (1 - m.Glare) + m.Exposure) / 3
}

// Assess measures img. PerspectiveOK starts true.
func Assess(img image.Image) Metrics {
	g := imaging.ToGray(img)

	blur := math.Min(imaging.Variance(imaging.Laplacian(g))/blurNorm, 1)
	glare := imaging.FractionAbove(g, glareLevel)
	_, std := imaging.HistogramStats(imaging.Histogram(g))
	exposure := math.Min(std/exposureNorm, 1)

	m := Metrics{
		Blur:          blur,
		Glare:         glare,
		Exposure:      exposure,
		PerspectiveOK: true,
	}
	m.Grade = gradeFor(m.Score())

	m.Blur = round3(m.Blur)
	m.Glare = round3(m.Glare)
	m.Exposure = round3(m.Exposure)
	return m
}

func gradeFor(avg float64) Grade {
	switch {
	case avg >= goodThreshold:
		return GradeGood
	case avg >= fairThreshold:
		return GradeFair
	default:
		return GradePoor
	}
}

// Warnings returns the side-prefixed warning codes for m, e.g. "back_low_blur".
func Warnings(m Metrics, side card.Side) []string {
	var out []string
	if m.Blur < minBlur {
		out = append(out, card.SideWarning(side, card.WarnLowBlur))
	}
	if m.Glare > maxGlare {
		out = append(out, card.SideWarning(side, card.WarnHighGlare))
	}
	if m.Exposure < minExposure {
		out = append(out, card.SideWarning(side, card.WarnBadExposure))
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

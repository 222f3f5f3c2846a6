// Package parse turns recognised region text into card fields.
//
// The back parser reads the machine-readable id line and the CURP block of a
// rectified back image for one attempt. The front parser reads names,
// address and electoral section once, without alignment.
package parse

import (
	"context"
	"image"
	"regexp"
	"strings"

	"github.com/ironsheep/ine-ocr-mcp/internal/card"
	"github.com/ironsheep/ine-ocr-mcp/internal/classify"
	"github.com/ironsheep/ine-ocr-mcp/internal/curp"
	"github.com/ironsheep/ine-ocr-mcp/internal/extract"
	"github.com/ironsheep/ine-ocr-mcp/internal/logging"
	"github.com/ironsheep/ine-ocr-mcp/internal/roi"
)

// Extractor reads one region. *extract.Engine implements it.
type Extractor interface {
	Extract(ctx context.Context, img image.Image, region roi.ROI, req extract.Request) extract.Attempt
}

// MaxCorrections caps OCR confusion fixes applied to one id.
const MaxCorrections = 2

// BackResult is the outcome of one back-side attempt. Empty strings mean
// the field was not found.
type BackResult struct {
	Attempt      int
	IDINE        string
	Corrections  int
	CURP         string
	CURPStrategy string
	Warnings     []string
}

// BackParser extracts id_ine and CURP from a rectified back image.
type BackParser struct {
	templates *roi.Templates
	extractor Extractor
	logger    *logging.Logger
}

// NewBackParser creates a BackParser.
func NewBackParser(templates *roi.Templates, extractor Extractor, logger *logging.Logger) *BackParser {
	if logger == nil {
		logger = logging.Nop()
	}
	return &BackParser{templates: templates, extractor: extractor, logger: logger}
}

// Regions returns the runtime regions for an attempt: template regions for
// the classified variant after correction, with the id region expanded on
// retries.
func (p *BackParser) Regions(attempt int, variant card.Variant, corr roi.Correction) map[string]roi.ROI {
	out := make(map[string]roi.ROI)
	for name, r := range p.templates.Back(variant) {
		r = r.Apply(corr)
		if name == roi.FieldIDINE && attempt > 1 {
			r = r.Expand(roi.RetryExpandX, roi.RetryExpandY)
		}
		out[name] = r
	}
	return out
}

// Parse runs one attempt over img.
func (p *BackParser) Parse(ctx context.Context, img image.Image, attempt int, cls classify.Classification, corr roi.Correction) BackResult {
	res := BackResult{Attempt: attempt}
	var warns card.Warnings

	if cls.Variant == card.VariantUnknown {
		warns.Add(card.WarnModelUnknown)
	}
	if len(cls.Boxes) == 0 {
		switch cls.Variant {
		case card.VariantQR:
			warns.Add(card.WarnQRNotFound)
		case card.VariantPDF417:
			warns.Add(card.WarnPDF417NotFound)
		}
	}

	regions := p.Regions(attempt, cls.Variant, corr)

	if r, ok := regions[roi.FieldIDINE]; ok {
		att := p.extractor.Extract(ctx, img, r, extract.LineRequest(attempt))
		res.IDINE, res.Corrections = CorrectOCRConfusions(ParseIDINE(att.Text))
		if res.Corrections > 0 {
			warns.Add(card.WarnIDCorrectedChars)
		}
	}

	if r, ok := regions[roi.FieldCURP]; ok {
		att := p.extractor.Extract(ctx, img, r, extract.CURPRequest(attempt))
		res.CURP, res.CURPStrategy = curp.FindWith(curp.Strategies, att.Text)
	}

	res.Warnings = warns.List()
	p.logger.Debug("back parsed", "attempt", attempt, "variant", string(cls.Variant),
		"id_found", res.IDINE != "", "corrections", res.Corrections, "curp_strategy", res.CURPStrategy)
	return res
}

var idToken = regexp.MustCompile(`[A-Z0-9]{8,}`)

// ParseIDINE picks the id from the id line. Chevrons and newlines separate
// tokens; among tokens of at least 8 characters the one whose length is
// closest to 18 wins, the first on ties. It returns "" unless the winner is
// 16 to 20 characters long.
func ParseIDINE(text string) string {
	text = strings.NewReplacer("<", " ", "\n", " ").Replace(text)

	best, bestScore := "", -999
	for _, tok := range idToken.FindAllString(text, -1) {
		if s := idLengthScore(len(tok)); s > bestScore {
			best, bestScore = tok, s
		}
	}
	if n := len(best); n < 16 || n > 20 {
		return ""
	}
	return best
}

func idLengthScore(n int) int {
	switch n {
	case 18:
		return 3
	case 17, 19:
		return 2
	case 16, 20:
		return 1
	default:
		return -5
	}
}

var confusions = map[rune]rune{'O': '0', 'I': '1', 'S': '5'}

// CorrectOCRConfusions replaces letters commonly misread for digits (O, I,
// S) when a neighbour is a digit, scanning left to right over the string as
// it is being corrected. At most MaxCorrections substitutions are made; the
// count is returned.
func CorrectOCRConfusions(v string) (string, int) {
	if v == "" {
		return v, 0
	}
	rs := []rune(v)
	n := 0
	for i, r := range rs {
		if n >= MaxCorrections {
			break
		}
		digit, ok := confusions[r]
		if !ok {
			continue
		}
		if (i > 0 && isDigit(rs[i-1])) || (i < len(rs)-1 && isDigit(rs[i+1])) {
			rs[i] = digit
			n++
		}
	}
	return string(rs), n
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

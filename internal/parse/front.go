package parse

import (
	"context"
	"image"
	"regexp"
	"strings"

	"github.com/ironsheep/ine-ocr-mcp/internal/extract"
	"github.com/ironsheep/ine-ocr-mcp/internal/logging"
	"github.com/ironsheep/ine-ocr-mcp/internal/roi"
)

// FrontResult holds the front-side fields. Empty strings mean not found.
type FrontResult struct {
	Nombre          string
	ApellidoPaterno string
	ApellidoMaterno string
	Calle           string
	Colonia         string
	CodigoPostal    string
	Seccion         string
}

// FrontParser extracts names, address and section from a rectified front
// image. Front regions are used as templated, without alignment.
type FrontParser struct {
	templates *roi.Templates
	extractor Extractor
	logger    *logging.Logger
}

// NewFrontParser creates a FrontParser.
func NewFrontParser(templates *roi.Templates, extractor Extractor, logger *logging.Logger) *FrontParser {
	if logger == nil {
		logger = logging.Nop()
	}
	return &FrontParser{templates: templates, extractor: extractor, logger: logger}
}

// Parse reads every front region once with first-attempt preprocessing.
func (p *FrontParser) Parse(ctx context.Context, img image.Image) FrontResult {
	var res FrontResult
	regions := p.templates.Front()

	read := func(field string) (string, bool) {
		r, ok := regions[field]
		if !ok {
			return "", false
		}
		return p.extractor.Extract(ctx, img, r, extract.BlockRequest(1)).Text, true
	}

	if text, ok := read(roi.FieldApellidos); ok {
		res.ApellidoPaterno, res.ApellidoMaterno = SplitApellidos(text)
	}
	if text, ok := read(roi.FieldNombre); ok {
		res.Nombre = CleanName(text)
	}
	if text, ok := read(roi.FieldDomicilio); ok {
		res.Calle, res.Colonia, res.CodigoPostal = ParseDomicilio(text)
	}
	if text, ok := read(roi.FieldSeccion); ok {
		res.Seccion = ParseSeccion(text)
	}

	p.logger.Debug("front parsed", "nombre", res.Nombre != "", "calle", res.Calle != "", "cp", res.CodigoPostal, "seccion", res.Seccion)
	return res
}

// SplitApellidos splits the surname block into paternal and maternal
// surnames. Two or more lines give the first two lines; a single line is
// split after its first word.
func SplitApellidos(text string) (paterno, materno string) {
	text = strings.TrimSpace(text)
	lines := nonEmptyLines(text)
	if len(lines) >= 2 {
		return CleanName(lines[0]), CleanName(lines[1])
	}

	words := strings.Fields(text)
	if len(words) >= 2 {
		return CleanName(words[0]), CleanName(strings.Join(words[1:], " "))
	}
	return CleanName(text), ""
}

var (
	nameReject    = regexp.MustCompile(`[^A-ZÀ-ÿ\s]`)
	addressReject = regexp.MustCompile(`[^A-ZÀ-ÿ0-9\s.,#/-]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// CleanName uppercases text, keeps letters (including Latin-1 accented
// ones) and whitespace, and collapses whitespace runs.
func CleanName(text string) string {
	text = strings.ToUpper(strings.TrimSpace(text))
	text = nameReject.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

func cleanAddress(text string) string {
	text = strings.ToUpper(strings.TrimSpace(text))
	text = addressReject.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

var (
	postalCode     = regexp.MustCompile(`\b(\d{5})\b`)
	postalCodeAny  = regexp.MustCompile(`\b\d{5}\b`)
	coloniaPrefix  = regexp.MustCompile(`(?i)^(COL\.?|COLONIA)\s*`)
	seccionPattern = regexp.MustCompile(`(?i)(?:SECCI[OÓ]N\s*)?(\d{3,4})`)
)

// ParseDomicilio splits the address block into street, colonia and postal
// code. The postal code is the first standalone five-digit number anywhere
// in the block. The street is the first line. The colonia is the second
// line without any postal code or "COL."/"COLONIA" prefix, or the third line
// when that leaves nothing.
func ParseDomicilio(text string) (calle, colonia, cp string) {
	text = strings.TrimSpace(text)
	lines := nonEmptyLines(text)

	if m := postalCode.FindStringSubmatch(text); m != nil {
		cp = m[1]
	}
	if len(lines) >= 1 {
		calle = cleanAddress(lines[0])
	}
	if len(lines) >= 2 {
		col := postalCodeAny.ReplaceAllString(lines[1], "")
		col = coloniaPrefix.ReplaceAllString(col, "")
		colonia = cleanAddress(col)
	}
	if colonia == "" && len(lines) >= 3 {
		colonia = cleanAddress(lines[2])
	}
	return calle, colonia, cp
}

// ParseSeccion returns the first three- or four-digit number, optionally
// labelled SECCION, zero-padded to four digits.
func ParseSeccion(text string) string {
	m := seccionPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return ""
	}
	return strings.Repeat("0", 4-len(m[1])) + m[1]
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

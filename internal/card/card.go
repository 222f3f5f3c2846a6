// Package card holds the vocabulary shared by every stage of the INE
// extraction pipeline: card variants, card sides, feature boxes and the
// warning codes surfaced to callers.
package card

import (
	"image"
	"strings"
)

// Variant identifies a printed INE layout by its back-side security feature.
type Variant string

const (
	// VariantQR is the 2019-present card with a QR cluster on the back.
	VariantQR Variant = "MODEL_QRHD_2019_PRESENT"
	// VariantPDF417 is the 2017-2018 card with a PDF417 barcode on the back.
	VariantPDF417 Variant = "MODEL_PDF417_2017_2018"
	// VariantUnknown is used when no security feature was detected.
	VariantUnknown Variant = "MODEL_UNKNOWN"
)

// Known reports whether v is one of the recognised layouts.
func (v Variant) Known() bool {
	return v == VariantQR || v == VariantPDF417
}

// ParseVariant maps a wire value to a Variant. Anything unrecognised is
// VariantUnknown.
func ParseVariant(s string) Variant {
	switch Variant(strings.ToUpper(strings.TrimSpace(s))) {
	case VariantQR:
		return VariantQR
	case VariantPDF417:
		return VariantPDF417
	default:
		return VariantUnknown
	}
}

// Side is the face of the card an image shows.
type Side string

const (
	Front Side = "front"
	Back  Side = "back"
)

// ParseSide accepts "front" or "back" in any case.
func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Front:
		return Front, true
	case Back:
		return Back, true
	default:
		return "", false
	}
}

// FeatureBox is the outline of a detected security feature, in pixel
// coordinates of the rectified image.
type FeatureBox []image.Point

// Warning codes.
const (
	WarnModelUnknown       = "model_unknown"
	WarnQRNotFound         = "qr_feature_not_found"
	WarnPDF417NotFound     = "pdf417_feature_not_found"
	WarnIDCorrectedChars   = "id_ine_corrected_chars"
	WarnIDNotFound         = "id_ine_not_found"
	WarnTimeBudgetExceeded = "time_budget_exceeded"
	WarnImageDecodeFailed  = "image_decode_failed"

	// Per-side codes, combined with SideWarning.
	WarnPerspectiveFailed = "perspective_failed"
	WarnLowBlur           = "low_blur"
	WarnHighGlare         = "high_glare"
	WarnBadExposure       = "bad_exposure"
)

// SideWarning prefixes a per-side warning code, e.g. "back_low_blur".
func SideWarning(side Side, code string) string {
	return string(side) + "_" + code
}

// Warnings is an insertion-ordered set of warning codes.
type Warnings struct {
	codes []string
	seen  map[string]struct{}
}

// Add appends each code that is not already present.
func (w *Warnings) Add(codes ...string) {
	if w.seen == nil {
		w.seen = make(map[string]struct{})
	}
	for _, c := range codes {
		if c == "" {
			continue
		}
		if _, ok := w.seen[c]; ok {
			continue
		}
		w.seen[c] = struct{}{}
		w.codes = append(w.codes, c)
	}
}

// Has reports whether code was added.
func (w *Warnings) Has(code string) bool {
	_, ok := w.seen[code]
	return ok
}

// List returns the codes in insertion order. The result is never nil.
func (w *Warnings) List() []string {
	out := make([]string, len(w.codes))
	copy(out, w.codes)
	return out
}

// Package classify identifies the printed layout of an INE card from its back.
//
// Layouts are told apart by their security feature: 2019-present cards carry
// QR codes, 2017-2018 cards a PDF417 barcode. A Classifier tries an ordered
// list of strategies and the first that finds its feature decides the
// variant. When none succeeds the card is MODEL_UNKNOWN with no feature boxes.
package classify

import (
	"image"

	"github.com/ironsheep/ine-ocr-mcp/internal/card"
)

// Strategy detects one security feature.
type Strategy struct {
	Name    string
	Variant card.Variant
	// Detect returns the feature outlines in img's pixel coordinates
	// (relative to its bounds) and whether the feature was found.
	Detect func(img image.Image) ([]card.FeatureBox, bool)
}

// Classification is the outcome of Classify.
type Classification struct {
	Variant  card.Variant      `json:"model_id"`
	Boxes    []card.FeatureBox `json:"feature_boxes"`
	Strategy string            `json:"strategy,omitempty"`
}

// Unknown is the classification when no strategy matched.
func Unknown() Classification {
	return Classification{Variant: card.VariantUnknown}
}

// Classifier runs strategies in priority order.
type Classifier struct {
	strategies []Strategy
}

// DefaultStrategies returns QR detection followed by PDF417 detection.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "qr", Variant: card.VariantQR, Detect: DetectQR},
		{Name: "pdf417", Variant: card.VariantPDF417, Detect: DetectPDF417},
	}
}

// New creates a Classifier. With no strategies it uses DefaultStrategies.
func New(strategies ...Strategy) *Classifier {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Classifier{strategies: strategies}
}

// Classify returns the variant of the first strategy that finds at least one
// feature box.
func (c *Classifier) Classify(img image.Image) Classification {
	if img == nil || img.Bounds().Empty() {
		return Unknown()
	}
	for _, s := range c.strategies {
		boxes, ok := s.Detect(img)
		if ok && len(boxes) > 0 {
			return Classification{Variant: s.Variant, Boxes: boxes, Strategy: s.Name}
		}
	}
	return Unknown()
}

// Strategies returns the strategy names in priority order.
func (c *Classifier) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name
	}
	return names
}

package roi

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/ironsheep/ine-ocr-mcp/internal/card"
)

//go:embed templates/roi_templates.json
var defaultTemplates []byte

// FieldSet maps field names to template regions.
type FieldSet map[string]ROI

// Names returns the field names in lexical order.
func (fs FieldSet) Names() []string {
	names := make([]string, 0, len(fs))
	for n := range fs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (fs FieldSet) clone() FieldSet {
	out := make(FieldSet, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}

// Templates is the read-only table of field regions: one set for the front
// of the card and one per back variant. Accessors return copies.
type Templates struct {
	front FieldSet
	back  map[card.Variant]FieldSet
}

// Default returns the templates compiled into the binary.
func Default() (*Templates, error) {
	return Parse(defaultTemplates)
}

// Load reads templates from a JSON file shaped like the embedded default:
//
//	{"front": {"nombre": [x1, y1, x2, y2], ...},
//	 "MODEL_UNKNOWN": {"id_ine": [...], "curp": [...]}, ...}
func Load(path string) (*Templates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roi templates: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadOrDefault loads path when it is non-empty and the embedded templates
// otherwise.
func LoadOrDefault(path string) (*Templates, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

// Parse decodes and validates a template document. A "front" set and a
// MODEL_UNKNOWN back set are required since every lookup falls back to them.
func Parse(data []byte) (*Templates, error) {
	var raw map[string]FieldSet
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid roi templates: %w", err)
	}

	t := &Templates{back: make(map[card.Variant]FieldSet)}
	for key, set := range raw {
		for name, r := range set {
			if !r.Valid() {
				return nil, fmt.Errorf("roi %s.%s is not a valid normalised rectangle: %s", key, name, r)
			}
		}
		if key == string(card.Front) {
			t.front = set
			continue
		}
		v := card.ParseVariant(key)
		if string(v) != key {
			return nil, fmt.Errorf("unknown template set %q", key)
		}
		t.back[v] = set
	}

	if t.front == nil {
		return nil, fmt.Errorf("roi templates missing %q set", card.Front)
	}
	if _, ok := t.back[card.VariantUnknown]; !ok {
		return nil, fmt.Errorf("roi templates missing %q set", card.VariantUnknown)
	}
	return t, nil
}

// Front returns the front-side regions, shared by all variants.
func (t *Templates) Front() FieldSet {
	return t.front.clone()
}

// Back returns the back-side regions for v, falling back to the
// MODEL_UNKNOWN set when v has none.
func (t *Templates) Back(v card.Variant) FieldSet {
	if set, ok := t.back[v]; ok {
		return set.clone()
	}
	return t.back[card.VariantUnknown].clone()
}

// For returns the regions for a side; variant is ignored for the front.
func (t *Templates) For(side card.Side, v card.Variant) FieldSet {
	if side == card.Front {
		return t.Front()
	}
	return t.Back(v)
}

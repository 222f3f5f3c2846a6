// Package roi describes where fields sit on an INE card.
//
// Regions are rectangles in normalised coordinates: (0,0) is the top-left of
// the rectified card and (1,1) its bottom-right. Runtime regions are template
// regions after alignment correction and, on retries, expansion. Every
// operation that produces a region clamps it to [0,1].
package roi

import (
	"encoding/json"
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/ine-ocr-mcp/internal/imaging"
)

// Field names used by the templates.
const (
	FieldApellidos = "apellidos"
	FieldNombre    = "nombre"
	FieldDomicilio = "domicilio"
	FieldSeccion   = "seccion"
	FieldIDINE     = "id_ine"
	FieldCURP      = "curp"
)

// Expansion applied to the id_ine region on retries.
const (
	RetryExpandX = 0.03
	RetryExpandY = 0.02
)

// ROI is a normalised rectangle. It is encoded in JSON as [x1, y1, x2, y2].
type ROI struct {
	X1, Y1, X2, Y2 float64
}

// Valid reports whether the rectangle lies in [0,1] and is non-empty.
func (r ROI) Valid() bool {
	in := func(v float64) bool { return v >= 0 && v <= 1 && !math.IsNaN(v) }
	return in(r.X1) && in(r.Y1) && in(r.X2) && in(r.Y2) && r.X1 < r.X2 && r.Y1 < r.Y2
}

// Clamp limits all four coordinates to [0,1].
func (r ROI) Clamp() ROI {
	return ROI{clamp01(r.X1), clamp01(r.Y1), clamp01(r.X2), clamp01(r.Y2)}
}

// Apply shifts the centre by (c.DX, c.DY), scales width and height about the
// new centre by c.Scale, and clamps the result.
func (r ROI) Apply(c Correction) ROI {
	cx := (r.X1+r.X2)/2 + c.DX
	cy := (r.Y1+r.Y2)/2 + c.DY
	hw := (r.X2 - r.X1) * c.Scale / 2
	hh := (r.Y2 - r.Y1) * c.Scale / 2
	return ROI{cx - hw, cy - hh, cx + hw, cy + hh}.Clamp()
}

// Expand grows the rectangle by dx horizontally and dy vertically on each
// side, clamped to [0,1].
func (r ROI) Expand(dx, dy float64) ROI {
	return ROI{r.X1 - dx, r.Y1 - dy, r.X2 + dx, r.Y2 + dy}.Clamp()
}

// Pixels returns the pixel rectangle for an image of size w x h. It is never
// empty for w, h >= 1.
func (r ROI) Pixels(w, h int) image.Rectangle {
	return imaging.NormalizedRect(r.X1, r.Y1, r.X2, r.Y2, w, h)
}

// Crop extracts the region from img.
func (r ROI) Crop(img image.Image) *image.NRGBA {
	return imaging.CropNormalized(img, r.X1, r.Y1, r.X2, r.Y2)
}

func (r ROI) String() string {
	return fmt.Sprintf("[%.3f %.3f %.3f %.3f]", r.X1, r.Y1, r.X2, r.Y2)
}

// MarshalJSON encodes the region as a four element array.
func (r ROI) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{r.X1, r.Y1, r.X2, r.Y2})
}

// UnmarshalJSON decodes a four element array.
func (r *ROI) UnmarshalJSON(data []byte) error {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v) != 4 {
		return fmt.Errorf("roi needs 4 coordinates, got %d", len(v))
	}
	*r = ROI{v[0], v[1], v[2], v[3]}
	return nil
}

// Correction is a feature-based alignment adjustment. DX and DY are shifts in
// normalised units; Scale multiplies region size.
type Correction struct {
	DX    float64 `json:"dx"`
	DY    float64 `json:"dy"`
	Scale float64 `json:"scale"`
}

// Identity is the correction that leaves regions unchanged.
func Identity() Correction {
	return Correction{Scale: 1}
}

// IsIdentity reports whether c changes nothing.
func (c Correction) IsIdentity() bool {
	return c.DX == 0 && c.DY == 0 && c.Scale == 1
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

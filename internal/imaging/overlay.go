package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// LabeledRect is a pixel rectangle drawn by RegionOverlay.
type LabeledRect struct {
	Label string
	Rect  image.Rectangle
}

// RegionOverlay draws labelled rectangle outlines over a copy of img.
//
// Used to visualise where field regions land on a rectified card. Invalid colour
// strings fall back to opaque red. Labels are drawn with basicfont.Face7x13 on a
// dark backing box just inside each rectangle's top-left corner.
func RegionOverlay(img image.Image, regions []LabeledRect, colorHex string, thickness int) *image.RGBA {
	bounds := img.Bounds()

	boxColor, err := parseHexColor(colorHex)
	if err != nil {
		boxColor = color.RGBA{255, 0, 0, 255}
	}
	if thickness < 1 {
		thickness = 1
	}

	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	for _, r := range regions {
		drawOutline(result, r.Rect, boxColor, thickness)
		if r.Label != "" {
			drawLabel(result, r.Rect.Min.X+thickness+1, r.Rect.Min.Y+thickness+1, r.Label,
				color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 0, 180})
		}
	}
	return result
}

func drawOutline(img *image.RGBA, r image.Rectangle, c color.RGBA, thickness int) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for t := 0; t < thickness; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, r.Min.Y+t, c)
			img.Set(x, r.Max.Y-1-t, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			img.Set(r.Min.X+t, y, c)
			img.Set(r.Max.X-1-t, y, c)
		}
	}
}

// drawLabel renders text with its top-left corner at (x, y).
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	labelWidth := font.MeasureString(face, text).Ceil()
	labelHeight := face.Height

	backing := image.Rect(x-1, y-1, x+labelWidth+1, y+labelHeight).Intersect(img.Bounds())
	draw.Draw(img, backing, image.NewUniform(bg), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent),
	}
	d.DrawString(text)
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

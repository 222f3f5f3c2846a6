package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// CropResult contains an encoded image returned to MCP clients.
type CropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodeResult PNG-encodes an image into a CropResult.
func EncodeResult(img image.Image) (*CropResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &CropResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// NormalizedRect converts a normalised rectangle (fractions of width and height)
// into pixel bounds for an image of size w x h.
//
// Coordinates are truncated toward zero, the top-left corner is clamped inside the
// image and the bottom-right corner is clamped to the image edge while keeping at
// least one pixel in each direction. The result is never empty for w, h >= 1.
func NormalizedRect(x1f, y1f, x2f, y2f float64, w, h int) image.Rectangle {
	x1 := clamp(int(x1f*float64(w)), 0, w-1)
	y1 := clamp(int(y1f*float64(h)), 0, h-1)
	x2 := maxInt(x1+1, minInt(int(x2f*float64(w)), w))
	y2 := maxInt(y1+1, minInt(int(y2f*float64(h)), h))
	return image.Rect(x1, y1, x2, y2)
}

// CropNormalized extracts the region described by a normalised rectangle.
// The returned image has origin (0,0) and is at least 1x1.
func CropNormalized(img image.Image, x1, y1, x2, y2 float64) *image.NRGBA {
	b := img.Bounds()
	r := NormalizedRect(x1, y1, x2, y2, b.Dx(), b.Dy())
	return imaging.Crop(img, r.Add(b.Min))
}

// Crop extracts a pixel rectangle from an image and optionally rescales it.
func Crop(img image.Image, x1, y1, x2, y2 int, scale float64) (*image.NRGBA, error) {
	bounds := img.Bounds()

	// Validate coordinates
	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	cropped := imaging.Crop(img, image.Rect(x1, y1, x2, y2))

	if scale != 1.0 && scale > 0 {
		newWidth := maxInt(1, int(float64(cropped.Bounds().Dx())*scale))
		newHeight := maxInt(1, int(float64(cropped.Bounds().Dy())*scale))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}
	return cropped, nil
}

package classify

import (
	"image"
	"math"

	"github.com/ironsheep/ine-ocr-mcp/internal/card"
	"github.com/ironsheep/ine-ocr-mcp/internal/detection"
	"github.com/ironsheep/ine-ocr-mcp/internal/imaging"
)

// PDF417WorkingSize caps the longest side of the image searched for a barcode.
const PDF417WorkingSize = 1200

const (
	barcodeMinAspect   = 2.5
	barcodeMinArea     = 0.03
	barcodeMinPixels   = 50
	barcodeBlurKernel  = 9
	barcodeCloseWidth  = 21
	barcodeCloseHeight = 7
	barcodeCleanupIter = 4
)

// DetectPDF417 finds a stacked barcode as a wide blob of strong horizontal
// gradient. Vertical bars give a large |Scharr x| and a small |Scharr y|; the
// difference is blurred, binarised with Otsu, closed with a wide rectangle to
// merge the bars, and cleaned with four erosions and dilations. The largest
// blob whose minimum-area rectangle is more than 2.5 times wider than tall and
// covers more than 3% of the frame is the barcode.
func DetectPDF417(img image.Image) ([]card.FeatureBox, bool) {
	small, scale := imaging.ScaleToMax(img, PDF417WorkingSize)
	gray := imaging.ToGray(small)
	frame := float64(gray.Bounds().Dx() * gray.Bounds().Dy())
	if frame == 0 {
		return nil, false
	}

	mask := imaging.GradientDifference(gray)
	mask = imaging.GaussianBlur(mask, barcodeBlurKernel)
	mask = imaging.Otsu(mask)
	mask = imaging.CloseRect(mask, barcodeCloseWidth, barcodeCloseHeight)
	mask = imaging.ErodeRect(mask, 3, 3, barcodeCleanupIter)
	mask = imaging.DilateRect(mask, 3, 3, barcodeCleanupIter)

	for _, c := range detection.FindExternalContours(mask, barcodeMinPixels) {
		r := detection.MinAreaRect(c.Hull)
		long, short := math.Max(r.Width, r.Height), math.Min(r.Width, r.Height)
		if short <= 0 {
			continue
		}
		if long/short <= barcodeMinAspect || long*short/frame <= barcodeMinArea {
			continue
		}

		box := make(card.FeatureBox, 0, 4)
		for _, p := range r.Corners {
			box = append(box, image.Point{X: int(p.X / scale), Y: int(p.Y / scale)})
		}
		return []card.FeatureBox{box}, true
	}
	return nil, false
}

package classify

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/common"
	multidetector "github.com/makiuchi-d/gozxing/multi/qrcode/detector"
	qrdetector "github.com/makiuchi-d/gozxing/qrcode/detector"

	"github.com/ironsheep/ine-ocr-mcp/internal/card"
	"github.com/ironsheep/ine-ocr-mcp/internal/imaging"
)

// QRWorkingSize caps the longest side of the image searched for QR codes.
const QRWorkingSize = 1000

// DetectQR locates QR codes by their finder patterns. It tries the multi-code
// detector first, since current cards print several codes, then the
// single-code detector. Each box is the code's outline including the finder
// patterns, scaled back to img's pixel coordinates.
func DetectQR(img image.Image) ([]card.FeatureBox, bool) {
	small, scale := imaging.ScaleToMax(img, QRWorkingSize)

	bmp, err := gozxing.NewBinaryBitmapFromImage(small)
	if err != nil {
		return nil, false
	}
	matrix, err := bmp.GetBlackMatrix()
	if err != nil {
		return nil, false
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}

	var results []*common.DetectorResult
	if multi, err := multidetector.NewMultiDetector(matrix).DetectMulti(hints); err == nil {
		results = multi
	}
	if len(results) == 0 {
		single, err := qrdetector.NewDetector(matrix).Detect(hints)
		if err != nil {
			return nil, false
		}
		results = []*common.DetectorResult{single}
	}

	boxes := make([]card.FeatureBox, 0, len(results))
	for _, r := range results {
		if box, ok := qrOutline(r, scale); ok {
			boxes = append(boxes, box)
		}
	}
	return boxes, len(boxes) > 0
}

// qrOutline turns the three finder-pattern centres of a detection into the
// four outer corners of the code. Finder centres sit 3.5 modules inside each
// edge, so the quadrilateral they span is grown about its centre by
// dimension / (dimension - 7).
func qrOutline(r *common.DetectorResult, scale float64) (card.FeatureBox, bool) {
	pts := r.GetPoints()
	if len(pts) < 3 || r.GetBits() == nil {
		return nil, false
	}
	// zxing order: bottom-left, top-left, top-right.
	bl := imaging.PointF{X: pts[0].GetX(), Y: pts[0].GetY()}
	tl := imaging.PointF{X: pts[1].GetX(), Y: pts[1].GetY()}
	tr := imaging.PointF{X: pts[2].GetX(), Y: pts[2].GetY()}
	br := imaging.PointF{X: tr.X + bl.X - tl.X, Y: tr.Y + bl.Y - tl.Y}

	grow := 1.0
	if dim := r.GetBits().GetWidth(); dim > 7 {
		grow = float64(dim) / float64(dim-7)
	}
	cx, cy := (tl.X+br.X)/2, (tl.Y+br.Y)/2

	box := make(card.FeatureBox, 0, 4)
	for _, p := range []imaging.PointF{tl, tr, br, bl} {
		x := (cx + (p.X-cx)*grow) / scale
		y := (cy + (p.Y-cy)*grow) / scale
		box = append(box, image.Point{X: int(x), Y: int(y)})
	}
	return box, true
}

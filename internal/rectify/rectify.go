// Package rectify turns a photograph of a card into a flat, upright image.
//
// Rectification runs three stages, each a fallback for the next:
//
//  1. Orientation: an OrientationDetector reports the quarter turn that makes
//     the text upright. Detection failures leave the image as it is.
//  2. Perspective warp: the card outline is located as the largest
//     quadrilateral covering at least half the frame and warped to a
//     rectangle. Success sets PerspectiveOK.
//  3. Deskew: without an outline, near-horizontal line segments give the
//     median tilt, which is rotated away when it is at least half a degree.
//
// Rectify never fails. The worst case is the input image, unchanged, with
// PerspectiveOK false.
package rectify

import (
	"context"
	"image"
	"math"
	"sort"

	"github.com/ironsheep/ine-ocr-mcp/internal/detection"
	"github.com/ironsheep/ine-ocr-mcp/internal/imaging"
	"github.com/ironsheep/ine-ocr-mcp/internal/logging"
)

// OrientationDetector reports the clockwise rotation (0, 90, 180 or 270
// degrees) that makes an image's text upright. *ocr.Engine implements it.
type OrientationDetector interface {
	DetectRotation(ctx context.Context, img image.Image) (int, error)
}

// Stage names reported in Result.
const (
	StageWarp   = "warp"
	StageDeskew = "deskew"
	StageNone   = "none"
)

const (
	// DefaultWorkingSize caps the longest side of the copy used for edge and
	// line detection. The warp itself is applied at full resolution.
	DefaultWorkingSize = 1200

	cannyLow          = 50
	cannyHigh         = 150
	contourCandidates = 5
	approxEpsilon     = 0.02
	minCardFraction   = 0.5
	minContourPixels  = 20

	houghThreshold = 80
	houghMinLength = 100
	houghMaxGap    = 10
	maxSkewDegrees = 45
	minSkewDegrees = 0.5
)

// Result describes what Rectify did.
type Result struct {
	Image         image.Image
	PerspectiveOK bool
	// Rotation is the clockwise quarter turn applied for orientation.
	Rotation int
	// Stage is StageWarp, StageDeskew (rotation applied) or StageNone.
	Stage string
	// Corners is the card outline in the oriented source image, set when
	// Stage is StageWarp.
	Corners [4]imaging.PointF
	// SkewDegrees is the median line angle found by the deskew stage.
	SkewDegrees float64
}

// Rectifier runs the rectification stages.
type Rectifier struct {
	orientation OrientationDetector
	workingSize int
	logger      *logging.Logger
}

// New creates a Rectifier. A nil detector skips orientation correction; a nil
// logger discards log output.
func New(detector OrientationDetector, logger *logging.Logger) *Rectifier {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Rectifier{
		orientation: detector,
		workingSize: DefaultWorkingSize,
		logger:      logger,
	}
}

// Rectify returns the rectified image and whether a perspective warp succeeded.
func (r *Rectifier) Rectify(ctx context.Context, img image.Image) (image.Image, bool) {
	res := r.Run(ctx, img)
	return res.Image, res.PerspectiveOK
}

// Run performs all stages and reports the details.
func (r *Rectifier) Run(ctx context.Context, img image.Image) Result {
	res := Result{Image: img, Stage: StageNone}
	if img == nil || img.Bounds().Empty() {
		return res
	}

	if r.orientation != nil {
		rot, err := r.orientation.DetectRotation(ctx, img)
		switch {
		case err != nil:
			r.logger.Debug("orientation detection failed", "error", err)
		case rot != 0:
			res.Image = imaging.RotateClockwise(img, rot)
			res.Rotation = rot
			r.logger.Debug("orientation corrected", "rotate", rot)
		}
	}

	if corners, ok := FindCardQuad(res.Image, r.workingSize); ok {
		warped, err := WarpCard(res.Image, corners)
		if err == nil {
			res.Image = warped
			res.PerspectiveOK = true
			res.Stage = StageWarp
			res.Corners = corners
			return res
		}
		r.logger.Debug("perspective warp failed", "error", err)
	}

	angle, ok := SkewAngle(res.Image, r.workingSize)
	res.SkewDegrees = angle
	if !ok || math.Abs(angle) < minSkewDegrees {
		return res
	}
	rotated, err := imaging.Rotate(res.Image, angle)
	if err != nil {
		r.logger.Debug("deskew failed", "error", err)
		return res
	}
	res.Image = rotated
	res.Stage = StageDeskew
	r.logger.Debug("deskewed", "angle", angle)
	return res
}

// FindCardQuad looks for the card outline: among the five largest external
// contours of the dilated edge map, the first whose polygon approximation has
// four vertices and covers at least half the frame. Corners are returned in
// source pixel coordinates, ordered top-left, top-right, bottom-right,
// bottom-left.
func FindCardQuad(img image.Image, workingSize int) ([4]imaging.PointF, bool) {
	var quad [4]imaging.PointF

	small, scale := imaging.ScaleToMax(img, workingSize)
	gray := imaging.ToGray(small)
	frame := float64(gray.Bounds().Dx() * gray.Bounds().Dy())
	if frame == 0 {
		return quad, false
	}

	edges := imaging.Canny(gray, cannyLow, cannyHigh)
	edges = imaging.DilateRect(edges, 3, 3, 2)

	contours := detection.FindExternalContours(edges, minContourPixels)
	if len(contours) > contourCandidates {
		contours = contours[:contourCandidates]
	}

	for _, c := range contours {
		approx := detection.ApproxPolyDP(c.Hull, approxEpsilon*detection.ArcLength(c.Hull))
		if len(approx) != 4 {
			continue
		}
		if c.Area() < frame*minCardFraction {
			continue
		}
		for i, p := range approx {
			quad[i] = imaging.PointF{X: p.X / scale, Y: p.Y / scale}
		}
		return detection.OrderCorners(quad), true
	}
	return quad, false
}

// WarpCard maps the ordered quadrilateral onto an upright rectangle sized by
// the quadrilateral's longest opposite edges. The output is landscape since
// the card is wider than tall.
func WarpCard(img image.Image, corners [4]imaging.PointF) (*image.NRGBA, error) {
	tl, tr, br, bl := corners[0], corners[1], corners[2], corners[3]

	width := int(math.Max(dist(br, bl), dist(tr, tl)))
	height := int(math.Max(dist(tr, br), dist(tl, bl)))
	if width > 0 && height > 0 && width < height {
		width, height = height, width
	}

	dst := [4]imaging.PointF{
		{X: 0, Y: 0},
		{X: float64(width - 1), Y: 0},
		{X: float64(width - 1), Y: float64(height - 1)},
		{X: 0, Y: float64(height - 1)},
	}

	m, err := imaging.PerspectiveTransform(corners, dst)
	if err != nil {
		return nil, err
	}
	return imaging.WarpPerspective(img, m, width, height, imaging.BorderConstant)
}

// SkewAngle returns the median angle, in degrees, of the near-horizontal line
// segments in img. Positive angles slope down to the right. The second result
// is false when no such segment exists.
func SkewAngle(img image.Image, workingSize int) (float64, bool) {
	small, _ := imaging.ScaleToMax(img, workingSize)
	edges := imaging.Canny(imaging.ToGray(small), cannyLow, cannyHigh)

	segs := detection.DetectSegments(edges, detection.SegmentOptions{
		Threshold: houghThreshold,
		MinLength: houghMinLength,
		MaxGap:    houghMaxGap,
	})

	angles := make([]float64, 0, len(segs))
	for _, s := range segs {
		if math.Abs(s.AngleDegrees) < maxSkewDegrees {
			angles = append(angles, s.AngleDegrees)
		}
	}
	if len(angles) == 0 {
		return 0, false
	}
	return median(angles), true
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func dist(a, b imaging.PointF) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

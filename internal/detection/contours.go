package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/ine-ocr-mcp/internal/imaging"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// The coordinate convention follows standard image bounds:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive for iteration, inclusive for bounds)
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Contour is the outline of one connected foreground region.
type Contour struct {
	// Hull is the convex outline of the region in counter-clockwise order
	// (as displayed with y pointing down, the order appears clockwise).
	Hull []imaging.PointF

	// Pixels is the number of foreground pixels in the region.
	Pixels int

	// Bounds is the bounding box of the region.
	Bounds Bounds
}

// Area returns the enclosed area of the contour outline.
func (c Contour) Area() float64 {
	return PolygonArea(c.Hull)
}

// FindExternalContours groups the non-zero pixels of a binary image into
// 8-connected regions and returns their convex outlines sorted by enclosed
// area, largest first.
//
// Regions with fewer than minPixels pixels are discarded as noise. Regions
// lying entirely inside the outline of a larger region are dropped so that only
// outermost shapes remain.
func FindExternalContours(binary *image.Gray, minPixels int) []Contour {
	width := binary.Bounds().Dx()
	height := binary.Bounds().Dy()

	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		row := binary.Pix[y*binary.Stride : y*binary.Stride+width]
		for x, v := range row {
			edges[y][x] = v != 0
		}
	}

	contours := make([]Contour, 0)
	for _, region := range findContours(edges, width, height, minPixels) {
		hull := ConvexHull(region)
		contours = append(contours, Contour{
			Hull:   hull,
			Pixels: len(region),
			Bounds: boundsOf(region),
		})
	}

	sort.SliceStable(contours, func(i, j int) bool {
		return contours[i].Area() > contours[j].Area()
	})

	external := make([]Contour, 0, len(contours))
	for _, c := range contours {
		nested := false
		for _, outer := range external {
			if boundsInside(c.Bounds, outer.Bounds) && insideConvex(outer.Hull, c.Hull) {
				nested = true
				break
			}
		}
		if !nested {
			external = append(external, c)
		}
	}
	return external
}

// findContours finds connected components (contours) in a binary edge image.
//
// Uses flood-fill to group connected edge pixels into contours.
// Connectivity is 8-connected (includes diagonals).
//
// Contours smaller than minSize pixels are discarded as noise.
// Returns a slice of contours, where each contour is a slice of Points.
func findContours(edges [][]bool, width, height, minSize int) [][]Point {
	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		visited[y] = make([]bool, width)
	}

	contours := make([][]Point, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges[y][x] && !visited[y][x] {
				contour := make([]Point, 0)
				floodFill(edges, visited, x, y, width, height, &contour)
				if len(contour) >= minSize {
					contours = append(contours, contour)
				}
			}
		}
	}

	return contours
}

// floodFill performs iterative flood-fill from a starting point.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow
// on large contours. Marks visited pixels and appends them to the contour.
// Uses 8-connectivity (includes diagonal neighbors).
func floodFill(edges, visited [][]bool, startX, startY, width, height int, contour *[]Point) {
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !edges[p.Y][p.X] {
			continue
		}

		visited[p.Y][p.X] = true
		*contour = append(*contour, p)

		// 8-connected neighbors
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
}

func boundsOf(points []Point) Bounds {
	b := Bounds{X1: math.MaxInt32, Y1: math.MaxInt32, X2: math.MinInt32, Y2: math.MinInt32}
	for _, p := range points {
		if p.X < b.X1 {
			b.X1 = p.X
		}
		if p.Y < b.Y1 {
			b.Y1 = p.Y
		}
		if p.X > b.X2 {
			b.X2 = p.X
		}
		if p.Y > b.Y2 {
			b.Y2 = p.Y
		}
	}
	return b
}

func boundsInside(inner, outer Bounds) bool {
	return inner.X1 >= outer.X1 && inner.Y1 >= outer.Y1 && inner.X2 <= outer.X2 && inner.Y2 <= outer.Y2
}

// insideConvex reports whether every vertex of poly lies inside the convex hull.
func insideConvex(hull, poly []imaging.PointF) bool {
	if len(hull) < 3 {
		return false
	}
	for _, p := range poly {
		for i := range hull {
			a := hull[i]
			b := hull[(i+1)%len(hull)]
			if cross(a, b, p) < 0 {
				return false
			}
		}
	}
	return true
}

// cross returns the z component of (b-a) x (p-a).
func cross(a, b, p imaging.PointF) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// ConvexHull returns the convex hull of a point set using the monotone chain
// algorithm. Collinear points are dropped. Sets of fewer than three distinct
// points are returned as-is.
func ConvexHull(points []Point) []imaging.PointF {
	pts := make([]imaging.PointF, 0, len(points))
	seen := make(map[Point]bool, len(points))
	for _, p := range points {
		if seen[p] {
			continue
		}
		seen[p] = true
		pts = append(pts, imaging.PointF{X: float64(p.X), Y: float64(p.Y)})
	}
	if len(pts) < 3 {
		return pts
	}

	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	hull := make([]imaging.PointF, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// PolygonArea returns the absolute area of a closed polygon (shoelace formula).
func PolygonArea(poly []imaging.PointF) float64 {
	if len(poly) < 3 {
		return 0
	}
	var sum float64
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return math.Abs(sum) / 2
}

// ArcLength returns the perimeter of a closed polygon.
func ArcLength(poly []imaging.PointF) float64 {
	if len(poly) < 2 {
		return 0
	}
	var total float64
	for i := range poly {
		j := (i + 1) % len(poly)
		total += math.Hypot(poly[j].X-poly[i].X, poly[j].Y-poly[i].Y)
	}
	return total
}

// ApproxPolyDP simplifies a closed polygon with the Douglas-Peucker algorithm.
// Vertices closer than epsilon to the simplified outline are removed.
func ApproxPolyDP(poly []imaging.PointF, epsilon float64) []imaging.PointF {
	n := len(poly)
	if n < 3 {
		return append([]imaging.PointF(nil), poly...)
	}

	// Split the closed curve at two mutually distant vertices.
	start := farthestFrom(poly, poly[0])
	far := farthestFrom(poly, poly[start])
	if start > far {
		start, far = far, start
	}

	first := append([]imaging.PointF(nil), poly[start:far+1]...)
	second := append([]imaging.PointF(nil), poly[far:]...)
	second = append(second, poly[:start+1]...)

	a := douglasPeucker(first, epsilon)
	b := douglasPeucker(second, epsilon)

	// Each chain ends where the other begins.
	out := make([]imaging.PointF, 0, len(a)+len(b)-2)
	out = append(out, a[:len(a)-1]...)
	out = append(out, b[:len(b)-1]...)
	return out
}

func farthestFrom(poly []imaging.PointF, p imaging.PointF) int {
	best, bestDist := 0, -1.0
	for i, q := range poly {
		d := (q.X-p.X)*(q.X-p.X) + (q.Y-p.Y)*(q.Y-p.Y)
		if d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func douglasPeucker(chain []imaging.PointF, epsilon float64) []imaging.PointF {
	if len(chain) < 3 {
		return append([]imaging.PointF(nil), chain...)
	}
	a, b := chain[0], chain[len(chain)-1]
	idx, maxDist := 0, -1.0
	for i := 1; i < len(chain)-1; i++ {
		d := segmentDistance(chain[i], a, b)
		if d > maxDist {
			idx, maxDist = i, d
		}
	}
	if maxDist <= epsilon {
		return []imaging.PointF{a, b}
	}
	left := douglasPeucker(chain[:idx+1], epsilon)
	right := douglasPeucker(chain[idx:], epsilon)
	out := make([]imaging.PointF, 0, len(left)+len(right)-1)
	out = append(out, left[:len(left)-1]...)
	return append(out, right...)
}

// segmentDistance returns the distance from p to the segment ab.
func segmentDistance(p, a, b imaging.PointF) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

// RotatedRect is the minimum-area rectangle enclosing a point set.
type RotatedRect struct {
	Center imaging.PointF `json:"center"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	// Angle is the direction of the Width side in degrees.
	Angle float64 `json:"angle"`
	// Corners are the four rectangle vertices in order around the rectangle.
	Corners [4]imaging.PointF `json:"corners"`
}

// MinAreaRect finds the smallest rectangle, at any rotation, enclosing a convex
// hull. One side of the optimal rectangle is always collinear with a hull edge,
// so each edge direction is tried in turn.
func MinAreaRect(hull []imaging.PointF) RotatedRect {
	switch len(hull) {
	case 0:
		return RotatedRect{}
	case 1:
		p := hull[0]
		return RotatedRect{Center: p, Corners: [4]imaging.PointF{p, p, p, p}}
	}

	best := RotatedRect{Width: math.Inf(1), Height: 1}
	bestArea := math.Inf(1)
	for i := range hull {
		j := (i + 1) % len(hull)
		ex, ey := hull[j].X-hull[i].X, hull[j].Y-hull[i].Y
		l := math.Hypot(ex, ey)
		if l == 0 {
			continue
		}
		ux, uy := ex/l, ey/l // edge direction
		vx, vy := -uy, ux    // normal

		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			u := p.X*ux + p.Y*uy
			v := p.X*vx + p.Y*vy
			minU, maxU = math.Min(minU, u), math.Max(maxU, u)
			minV, maxV = math.Min(minV, v), math.Max(maxV, v)
		}

		area := (maxU - minU) * (maxV - minV)
		if area < bestArea {
			bestArea = area
			corner := func(u, v float64) imaging.PointF {
				return imaging.PointF{X: u*ux + v*vx, Y: u*uy + v*vy}
			}
			cu, cv := (minU+maxU)/2, (minV+maxV)/2
			best = RotatedRect{
				Center: corner(cu, cv),
				Width:  maxU - minU,
				Height: maxV - minV,
				Angle:  math.Atan2(uy, ux) * 180 / math.Pi,
				Corners: [4]imaging.PointF{
					corner(minU, minV),
					corner(maxU, minV),
					corner(maxU, maxV),
					corner(minU, maxV),
				},
			}
		}
	}
	return best
}

// OrderCorners arranges four points as top-left, top-right, bottom-right,
// bottom-left. The top-left corner has the smallest x+y and the bottom-right the
// largest; the top-right has the smallest y-x and the bottom-left the largest.
func OrderCorners(pts [4]imaging.PointF) [4]imaging.PointF {
	var out [4]imaging.PointF
	minSum, maxSum := 0, 0
	minDiff, maxDiff := 0, 0
	for i, p := range pts {
		s := p.X + p.Y
		d := p.Y - p.X
		if s < pts[minSum].X+pts[minSum].Y {
			minSum = i
		}
		if s > pts[maxSum].X+pts[maxSum].Y {
			maxSum = i
		}
		if d < pts[minDiff].Y-pts[minDiff].X {
			minDiff = i
		}
		if d > pts[maxDiff].Y-pts[maxDiff].X {
			maxDiff = i
		}
	}
	out[0] = pts[minSum]
	out[1] = pts[minDiff]
	out[2] = pts[maxSum]
	out[3] = pts[maxDiff]
	return out
}

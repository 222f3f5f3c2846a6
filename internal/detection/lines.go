package detection

import (
	"image"
	"math"
	"sort"
)

// Segment represents a detected straight line segment.
//
// Endpoints are ordered left to right (Start.X <= End.X), so AngleDegrees is in
// (-90, 90]. Positive angles slope downward to the right in image coordinates.
type Segment struct {
	Start        Point   `json:"start"`
	End          Point   `json:"end"`
	Length       float64 `json:"length"`
	AngleDegrees float64 `json:"angle_degrees"`
	Votes        int     `json:"votes"`
}

// SegmentOptions tunes DetectSegments.
type SegmentOptions struct {
	// Threshold is the minimum number of accumulator votes for a line candidate.
	Threshold int
	// MinLength is the minimum segment length in pixels.
	MinLength int
	// MaxGap is the largest run of missing edge pixels bridged inside one segment.
	MaxGap int
	// MaxSegments caps the number of segments returned. Zero means 200.
	MaxSegments int
}

// DetectSegments finds straight line segments in a binary edge image using the
// Hough transform.
//
// # Algorithm
//
//  1. Voting: every edge pixel votes for all (rho, theta) lines through it,
//     using 1 pixel rho resolution and 1 degree theta resolution
//  2. Peak Detection: local maxima with at least Threshold votes become
//     candidates, strongest first
//  3. Tracing: each candidate line is walked across the image, collecting edge
//     pixels within one pixel of the line. Runs separated by more than MaxGap
//     missing pixels are split into separate segments
//  4. Filtering: segments shorter than MinLength are dropped. Pixels claimed by
//     an accepted segment cannot be reused by weaker candidates
func DetectSegments(edges *image.Gray, opts SegmentOptions) []Segment {
	width := edges.Bounds().Dx()
	height := edges.Bounds().Dy()
	if width == 0 || height == 0 {
		return nil
	}
	if opts.MaxSegments <= 0 {
		opts.MaxSegments = 200
	}

	on := make([][]bool, height)
	for y := 0; y < height; y++ {
		on[y] = make([]bool, width)
		row := edges.Pix[y*edges.Stride : y*edges.Stride+width]
		for x, v := range row {
			on[y][x] = v != 0
		}
	}

	// Hough transform parameters
	maxDist := int(math.Sqrt(float64(width*width+height*height))) + 1
	numAngles := 180
	cosT := make([]float64, numAngles)
	sinT := make([]float64, numAngles)
	for t := 0; t < numAngles; t++ {
		angle := float64(t) * math.Pi / 180.0
		cosT[t] = math.Cos(angle)
		sinT[t] = math.Sin(angle)
	}

	accumulator := make([][]int, maxDist*2)
	for i := range accumulator {
		accumulator[i] = make([]int, numAngles)
	}

	// Vote in Hough space
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !on[y][x] {
				continue
			}
			for theta := 0; theta < numAngles; theta++ {
				rho := float64(x)*cosT[theta] + float64(y)*sinT[theta]
				rhoIdx := int(math.Round(rho)) + maxDist
				if rhoIdx >= 0 && rhoIdx < maxDist*2 {
					accumulator[rhoIdx][theta]++
				}
			}
		}
	}

	// Find peaks in accumulator
	type peak struct {
		rho   int
		theta int
		votes int
	}
	peaks := make([]peak, 0)
	threshold := opts.Threshold
	if threshold < 1 {
		threshold = 1
	}

	for rhoIdx := 0; rhoIdx < maxDist*2; rhoIdx++ {
		for theta := 0; theta < numAngles; theta++ {
			votes := accumulator[rhoIdx][theta]
			if votes < threshold {
				continue
			}
			isMax := true
			for dr := -2; dr <= 2 && isMax; dr++ {
				for dt := -2; dt <= 2 && isMax; dt++ {
					if dr == 0 && dt == 0 {
						continue
					}
					nr := rhoIdx + dr
					nt := (theta + dt + numAngles) % numAngles
					if nr >= 0 && nr < maxDist*2 {
						if accumulator[nr][nt] > votes {
							isMax = false
						}
					}
				}
			}
			if isMax {
				peaks = append(peaks, peak{rho: rhoIdx - maxDist, theta: theta, votes: votes})
			}
		}
	}

	// Sort peaks by votes
	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].votes > peaks[j].votes
	})

	used := make([][]bool, height)
	for y := range used {
		used[y] = make([]bool, width)
	}

	segments := make([]Segment, 0)
	for _, p := range peaks {
		if len(segments) >= opts.MaxSegments {
			break
		}
		for _, s := range traceLine(on, used, float64(p.rho), cosT[p.theta], sinT[p.theta], width, height, opts) {
			s.Votes = p.votes
			segments = append(segments, s)
			if len(segments) >= opts.MaxSegments {
				break
			}
		}
	}
	return segments
}

// traceLine walks the line x*cos + y*sin = rho across the image and returns the
// runs of edge pixels long enough to count as segments.
func traceLine(on, used [][]bool, rho, cosA, sinA float64, width, height int, opts SegmentOptions) []Segment {
	// Foot of the perpendicular and unit direction along the line.
	x0, y0 := rho*cosA, rho*sinA
	dx, dy := -sinA, cosA

	diag := math.Hypot(float64(width), float64(height))
	segments := make([]Segment, 0)

	var run []Point
	gap := 0
	flush := func() {
		if len(run) < 2 {
			run = run[:0]
			return
		}
		a, b := run[0], run[len(run)-1]
		length := math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
		if length >= float64(opts.MinLength) {
			for _, q := range run {
				used[q.Y][q.X] = true
			}
			segments = append(segments, newSegment(a, b, length))
		}
		run = run[:0]
	}

	for t := -diag; t <= diag; t++ {
		cx := x0 + t*dx
		cy := y0 + t*dy
		hit := false
		var hitPoint Point
		for off := 0; off <= 2 && !hit; off++ {
			// Probe the line itself, then one pixel to either side.
			d := [3]float64{0, -1, 1}[off]
			px := int(math.Round(cx + d*cosA))
			py := int(math.Round(cy + d*sinA))
			if px < 0 || px >= width || py < 0 || py >= height {
				continue
			}
			if on[py][px] && !used[py][px] {
				hit = true
				hitPoint = Point{X: px, Y: py}
			}
		}

		if hit {
			if n := len(run); n == 0 || run[n-1] != hitPoint {
				run = append(run, hitPoint)
			}
			gap = 0
			continue
		}
		if len(run) > 0 {
			gap++
			if gap > opts.MaxGap {
				flush()
				gap = 0
			}
		}
	}
	flush()
	return segments
}

func newSegment(a, b Point, length float64) Segment {
	if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
		a, b = b, a
	}
	angle := math.Atan2(float64(b.Y-a.Y), float64(b.X-a.X)) * 180 / math.Pi
	return Segment{
		Start:        a,
		End:          b,
		Length:       math.Round(length*10) / 10,
		AngleDegrees: angle,
	}
}

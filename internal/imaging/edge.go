package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
)

// cannyRadius is the smoothing applied before gradients are taken.
const cannyRadius = 1.0

// Canny performs Canny edge detection on an image.
//
// The output is binary: edges are 255, everything else 0. The rectifier uses
// it to find the card outline and the horizontal text baselines.
//
// Parameters:
//   - img: Source image (color or grayscale).
//   - thresholdLow: Sobel gradient magnitude below which a pixel is never an
//     edge. Typical value: 50.
//   - thresholdHigh: Sobel gradient magnitude above which a pixel is always an edge.
//     Typical value: 150.
//
// # Algorithm
//
//  1. Grayscale conversion (BT.601) and Gaussian smoothing
//  2. Sobel gradients; the direction is quantised to 0, 45, 90 or 135 degrees
//  3. Non-maximum suppression along the quantised direction
//  4. Hysteresis: strong pixels seed a flood fill through 8-connected weak
//     pixels, so a weak edge survives when any chain links it to a strong one
func Canny(img image.Image, thresholdLow, thresholdHigh int) *image.Gray {
	src := ToGray(blur.Gaussian(ToGray(img), cannyRadius))
	width, height := src.Bounds().Dx(), src.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return out
	}

	mag, dir := sobel(src)
	thin := suppressNonMaxima(mag, dir, width, height)

	low, high := float64(thresholdLow), float64(thresholdHigh)
	stack := make([]int, 0, 256)
	for i, v := range thin {
		if v >= high && out.Pix[(i/width)*out.Stride+i%width] == 0 {
			out.Pix[(i/width)*out.Stride+i%width] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%width, p/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					n := ny*width + nx
					o := ny*out.Stride + nx
					if out.Pix[o] == 0 && thin[n] >= low {
						out.Pix[o] = 255
						stack = append(stack, n)
					}
				}
			}
		}
	}
	return out
}

// sobel returns the gradient magnitude and the quantised direction 0..3 of
// every pixel, row-major. Borders replicate.
func sobel(g *image.Gray) ([]float64, []uint8) {
	width, height := g.Bounds().Dx(), g.Bounds().Dy()
	at := func(x, y int) float64 {
		return float64(g.Pix[clamp(y, 0, height-1)*g.Stride+clamp(x, 0, width-1)])
	}

	mag := make([]float64, width*height)
	dir := make([]uint8, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)

			i := y*width + x
			mag[i] = math.Hypot(gx, gy)
			dir[i] = quantiseAngle(math.Atan2(gy, gx))
		}
	}
	return mag, dir
}

// quantiseAngle maps a gradient angle to 0 (horizontal), 1 (45 degrees),
// 2 (vertical) or 3 (135 degrees).
func quantiseAngle(theta float64) uint8 {
	deg := theta * 180 / math.Pi
	if deg < 0 {
		deg += 180
	}
	switch {
	case deg < 22.5 || deg >= 157.5:
		return 0
	case deg < 67.5:
		return 1
	case deg < 112.5:
		return 2
	default:
		return 3
	}
}

// neighbourOffsets holds the two pixels compared against in each quantised
// direction.
var neighbourOffsets = [4][2]image.Point{
	{{-1, 0}, {1, 0}},
	{{-1, -1}, {1, 1}},
	{{0, -1}, {0, 1}},
	{{1, -1}, {-1, 1}},
}

func suppressNonMaxima(mag []float64, dir []uint8, width, height int) []float64 {
	thin := make([]float64, len(mag))
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			off := neighbourOffsets[dir[i]]
			a := mag[(y+off[0].Y)*width+x+off[0].X]
			b := mag[(y+off[1].Y)*width+x+off[1].X]
			if mag[i] >= a && mag[i] >= b {
				thin[i] = mag[i]
			}
		}
	}
	return thin
}

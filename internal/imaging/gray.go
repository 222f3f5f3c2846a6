package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/histogram"
)

// ToGray converts an image to an 8-bit grayscale image with origin (0,0).
//
// Luminance uses ITU-R BT.601 weights (0.299*R + 0.587*G + 0.114*B). JPEG images
// decoded as *image.YCbCr already carry BT.601 luma and are copied directly.
// A *image.Gray with origin (0,0) is returned as-is.
func ToGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	switch src := img.(type) {
	case *image.Gray:
		if bounds.Min == (image.Point{}) {
			return src
		}
	case *image.YCbCr:
		out := image.NewGray(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			yi := src.YOffset(bounds.Min.X, y+bounds.Min.Y)
			copy(out.Pix[y*out.Stride:y*out.Stride+width], src.Y[yi:yi+width])
		}
		return out
	}

	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out.Pix[y*out.Stride+x] = grayValue(img, x+bounds.Min.X, y+bounds.Min.Y)
		}
	}
	return out
}

// grayValue converts a pixel to grayscale using ITU-R BT.601 luminance weights.
// Formula: Y = 0.299*R + 0.587*G + 0.114*B
func grayValue(img image.Image, x, y int) uint8 {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(float64(r>>8)*0.299 + float64(g>>8)*0.587 + float64(b>>8)*0.114 + 0.5)
}

// Histogram returns the 256-bin intensity histogram of a grayscale image.
func Histogram(g *image.Gray) [256]int {
	var out [256]int
	h := histogram.NewRGBAHistogram(g)
	copy(out[:], h.R.Bins)
	return out
}

// HistogramStats returns the mean and standard deviation of the intensity
// distribution described by hist. An empty histogram yields (0, 0).
func HistogramStats(hist [256]int) (mean, stdDev float64) {
	var total float64
	for i, c := range hist {
		total += float64(c)
		mean += float64(i) * float64(c)
	}
	if total == 0 {
		return 0, 0
	}
	mean /= total

	var variance float64
	for i, c := range hist {
		d := float64(i) - mean
		variance += d * d * float64(c)
	}
	return mean, math.Sqrt(variance / total)
}

// FractionAbove returns the share of pixels strictly brighter than level.
func FractionAbove(g *image.Gray, level uint8) float64 {
	bounds := g.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}
	count := 0
	for y := 0; y < bounds.Dy(); y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+bounds.Dx()]
		for _, v := range row {
			if v > level {
				count++
			}
		}
	}
	return float64(count) / float64(total)
}

// toFloat copies a grayscale image into a [y][x] float plane with values 0..255.
func toFloat(g *image.Gray) [][]float64 {
	bounds := g.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	plane := make([][]float64, height)
	for y := 0; y < height; y++ {
		plane[y] = make([]float64, width)
		row := g.Pix[y*g.Stride : y*g.Stride+width]
		for x, v := range row {
			plane[y][x] = float64(v)
		}
	}
	return plane
}

// saturate rounds and clamps a value into the 0..255 byte range.
func saturate(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

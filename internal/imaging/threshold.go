package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/segment"
)

// OtsuLevel returns the global threshold that maximises between-class variance
// of the image histogram.
func OtsuLevel(g *image.Gray) uint8 {
	hist := Histogram(g)

	var total, sum float64
	for i, c := range hist {
		total += float64(c)
		sum += float64(i) * float64(c)
	}
	if total == 0 {
		return 0
	}

	var sumB, weightB, best float64
	level := 0
	for t := 0; t < 256; t++ {
		weightB += float64(hist[t])
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		meanB := sumB / weightB
		meanF := (sum - sumB) / weightF
		between := weightB * weightF * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best = between
			level = t
		}
	}
	return uint8(level)
}

// Otsu binarises a grayscale image: pixels strictly above the Otsu level become
// 255, everything else 0.
func Otsu(g *image.Gray) *image.Gray {
	level := OtsuLevel(g)
	if level == 255 {
		return image.NewGray(image.Rect(0, 0, g.Bounds().Dx(), g.Bounds().Dy()))
	}
	return segment.Threshold(g, level+1)
}

// AdaptiveGaussian binarises a grayscale image against a local threshold.
//
// Each pixel is compared with the Gaussian-weighted mean of its blockSize x blockSize
// neighbourhood minus c. Pixels strictly above the local threshold become 255.
// blockSize must be odd and at least 3; even values are rounded up.
//
// The Gaussian sigma follows 0.3*((blockSize-1)*0.5 - 1) + 0.8 and borders are
// replicated.
func AdaptiveGaussian(g *image.Gray, blockSize int, c float64) *image.Gray {
	if blockSize < 3 {
		blockSize = 3
	}
	if blockSize%2 == 0 {
		blockSize++
	}

	src := toFloat(g)
	mean := separableGaussian(src, blockSize)

	height := len(src)
	width := 0
	if height > 0 {
		width = len(src[0])
	}
	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if src[y][x] > mean[y][x]-c {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// separableGaussian blurs a float plane with a normalised 1-D Gaussian applied
// horizontally then vertically.
func separableGaussian(src [][]float64, ksize int) [][]float64 {
	height := len(src)
	if height == 0 {
		return src
	}
	width := len(src[0])

	sigma := 0.3*((float64(ksize)-1)*0.5-1) + 0.8
	half := ksize / 2
	kernel := make([]float64, ksize)
	var sum float64
	for i := range kernel {
		d := float64(i - half)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	tmp := make([][]float64, height)
	for y := 0; y < height; y++ {
		tmp[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var acc float64
			for k := -half; k <= half; k++ {
				acc += src[y][clamp(x+k, 0, width-1)] * kernel[k+half]
			}
			tmp[y][x] = acc
		}
	}

	out := make([][]float64, height)
	for y := 0; y < height; y++ {
		out[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var acc float64
			for k := -half; k <= half; k++ {
				acc += tmp[clamp(y+k, 0, height-1)][x] * kernel[k+half]
			}
			out[y][x] = acc
		}
	}
	return out
}

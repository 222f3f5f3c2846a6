package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
)

// GaussianBlur smooths a grayscale image with a Gaussian kernel roughly ksize
// pixels wide. ksize values below 3 return the input unchanged.
func GaussianBlur(g *image.Gray, ksize int) *image.Gray {
	if ksize < 3 {
		return g
	}
	return ToGray(blur.Gaussian(g, float64(ksize-1)/2))
}

// Laplacian returns the second-derivative response of a grayscale image using
// the 4-neighbour kernel:
//
//	0  1  0
//	1 -4  1
//	0  1  0
//
// Border pixels use replicated edge values.
func Laplacian(g *image.Gray) [][]float64 {
	src := toFloat(g)
	height := len(src)
	if height == 0 {
		return src
	}
	width := len(src[0])

	out := make([][]float64, height)
	for y := 0; y < height; y++ {
		out[y] = make([]float64, width)
		up := src[clamp(y-1, 0, height-1)]
		down := src[clamp(y+1, 0, height-1)]
		for x := 0; x < width; x++ {
			left := src[y][clamp(x-1, 0, width-1)]
			right := src[y][clamp(x+1, 0, width-1)]
			out[y][x] = up[x] + down[x] + left + right - 4*src[y][x]
		}
	}
	return out
}

// Variance returns the population variance of all values in a plane.
func Variance(plane [][]float64) float64 {
	var sum, sumSq float64
	n := 0
	for _, row := range plane {
		for _, v := range row {
			sum += v
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}

// Scharr computes horizontal and vertical derivatives with the 3x3 Scharr kernels:
//
//	gx:  -3  0  3     gy: -3 -10 -3
//	    -10  0 10          0   0  0
//	     -3  0  3          3  10  3
func Scharr(g *image.Gray) (gx, gy [][]float64) {
	src := toFloat(g)
	height := len(src)
	if height == 0 {
		return src, src
	}
	width := len(src[0])

	gx = make([][]float64, height)
	gy = make([][]float64, height)
	for y := 0; y < height; y++ {
		gx[y] = make([]float64, width)
		gy[y] = make([]float64, width)
		up := src[clamp(y-1, 0, height-1)]
		mid := src[y]
		down := src[clamp(y+1, 0, height-1)]
		for x := 0; x < width; x++ {
			l := clamp(x-1, 0, width-1)
			r := clamp(x+1, 0, width-1)
			gx[y][x] = 3*(up[r]-up[l]) + 10*(mid[r]-mid[l]) + 3*(down[r]-down[l])
			gy[y][x] = 3*(down[l]-up[l]) + 10*(down[x]-up[x]) + 3*(down[r]-up[r])
		}
	}
	return gx, gy
}

// GradientDifference returns saturate(|gx|) - saturate(|gy|) with negative results
// clipped to zero. Regions of dense vertical strokes, such as barcode bars, light up.
func GradientDifference(g *image.Gray) *image.Gray {
	gx, gy := Scharr(g)
	height := len(gx)
	width := 0
	if height > 0 {
		width = len(gx[0])
	}
	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			d := int(saturate(math.Abs(gx[y][x]))) - int(saturate(math.Abs(gy[y][x])))
			if d > 0 {
				out.Pix[y*out.Stride+x] = uint8(d)
			}
		}
	}
	return out
}

// Sharpen applies the 3x3 high-boost kernel
//
//	-1 -1 -1
//	-1  9 -1
//	-1 -1 -1
func Sharpen(g *image.Gray) *image.Gray {
	k := convolution.NewKernel(3, 3)
	copy(k.Matrix, []float64{
		-1, -1, -1,
		-1, 9, -1,
		-1, -1, -1,
	})
	return ToGray(convolution.Convolve(g, k, &convolution.Options{Bias: 0, Wrap: false}))
}

// Denoise suppresses speckle noise with a median filter of the given radius.
func Denoise(g *image.Gray, radius float64) *image.Gray {
	return ToGray(effect.Median(g, radius))
}

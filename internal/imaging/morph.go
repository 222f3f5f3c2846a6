package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// DilateDisk grows bright regions using a disk-shaped structuring element.
// A radius of 1 bridges single-pixel gaps between edge fragments.
func DilateDisk(g *image.Gray, radius float64) *image.Gray {
	return ToGray(effect.Dilate(g, radius))
}

// ErodeDisk shrinks bright regions using a disk-shaped structuring element.
func ErodeDisk(g *image.Gray, radius float64) *image.Gray {
	return ToGray(effect.Erode(g, radius))
}

// DilateRect applies a kw x kh rectangular max filter iterations times.
func DilateRect(g *image.Gray, kw, kh, iterations int) *image.Gray {
	out := g
	for i := 0; i < iterations; i++ {
		out = rectFilter(out, kw, kh, true)
	}
	return out
}

// ErodeRect applies a kw x kh rectangular min filter iterations times.
func ErodeRect(g *image.Gray, kw, kh, iterations int) *image.Gray {
	out := g
	for i := 0; i < iterations; i++ {
		out = rectFilter(out, kw, kh, false)
	}
	return out
}

// CloseRect performs a morphological close (dilate then erode) with a
// kw x kh rectangle. Gaps narrower than the rectangle are filled.
func CloseRect(g *image.Gray, kw, kh int) *image.Gray {
	return rectFilter(rectFilter(g, kw, kh, true), kw, kh, false)
}

// rectFilter is a separable min/max filter. Pixels outside the image are
// ignored, which matches replicated borders for min and max.
func rectFilter(g *image.Gray, kw, kh int, max bool) *image.Gray {
	src := ToGray(g)
	width := src.Bounds().Dx()
	height := src.Bounds().Dy()
	ax, ay := kw/2, kh/2

	pick := func(a, b uint8) uint8 {
		if max == (b > a) {
			return b
		}
		return a
	}

	tmp := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+width]
		for x := 0; x < width; x++ {
			v := row[x]
			for k := x - ax; k < x-ax+kw; k++ {
				if k < 0 || k >= width {
					continue
				}
				v = pick(v, row[k])
			}
			tmp.Pix[y*tmp.Stride+x] = v
		}
	}

	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := tmp.Pix[y*tmp.Stride+x]
			for k := y - ay; k < y-ay+kh; k++ {
				if k < 0 || k >= height {
					continue
				}
				v = pick(v, tmp.Pix[k*tmp.Stride+x])
			}
			out.Pix[y*out.Stride+x] = v
		}
	}
	return out
}

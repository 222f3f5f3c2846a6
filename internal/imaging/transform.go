package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// ScaleToMax shrinks an image so its longer side is at most maxSide pixels.
//
// Returns the (possibly unchanged) image and the factor applied to its
// coordinates, which is 1 when no resize was needed.
func ScaleToMax(img image.Image, maxSide int) (image.Image, float64) {
	b := img.Bounds()
	longest := maxInt(b.Dx(), b.Dy())
	if maxSide <= 0 || longest <= maxSide {
		return img, 1
	}
	scale := float64(maxSide) / float64(longest)
	w := maxInt(1, int(float64(b.Dx())*scale))
	h := maxInt(1, int(float64(b.Dy())*scale))
	return imaging.Resize(img, w, h, imaging.Box), scale
}

// Upscale enlarges a grayscale image by factor using Catmull-Rom interpolation.
func Upscale(g *image.Gray, factor float64) *image.Gray {
	if factor <= 0 || factor == 1 {
		return g
	}
	b := g.Bounds()
	w := maxInt(1, int(float64(b.Dx())*factor))
	h := maxInt(1, int(float64(b.Dy())*factor))
	return ToGray(imaging.Resize(g, w, h, imaging.CatmullRom))
}

// RotateClockwise turns an image by a multiple of 90 degrees clockwise.
// Other angles return the image unchanged.
func RotateClockwise(img image.Image, degrees int) image.Image {
	switch ((degrees % 360) + 360) % 360 {
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// toNRGBA returns img as an *image.NRGBA with origin (0,0), copying only when needed.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

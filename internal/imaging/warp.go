package imaging

import (
	"errors"
	"image"
	"image/color"
	"math"
)

// PointF is a sub-pixel image coordinate.
type PointF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Matrix3 is a row-major 3x3 projective transform mapping source to destination
// coordinates: [x' y' w']ᵀ = M · [x y 1]ᵀ.
type Matrix3 [9]float64

// Identity returns the identity transform.
func Identity() Matrix3 {
	return Matrix3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Apply maps a point through the transform.
func (m Matrix3) Apply(p PointF) PointF {
	w := m[6]*p.X + m[7]*p.Y + m[8]
	if w == 0 {
		w = 1e-12
	}
	return PointF{
		X: (m[0]*p.X + m[1]*p.Y + m[2]) / w,
		Y: (m[3]*p.X + m[4]*p.Y + m[5]) / w,
	}
}

// Invert returns the inverse transform.
func (m Matrix3) Invert() (Matrix3, error) {
	det := m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
	if math.Abs(det) < 1e-12 {
		return Matrix3{}, errors.New("transform is singular")
	}
	inv := 1 / det
	return Matrix3{
		(m[4]*m[8] - m[5]*m[7]) * inv,
		(m[2]*m[7] - m[1]*m[8]) * inv,
		(m[1]*m[5] - m[2]*m[4]) * inv,
		(m[5]*m[6] - m[3]*m[8]) * inv,
		(m[0]*m[8] - m[2]*m[6]) * inv,
		(m[2]*m[3] - m[0]*m[5]) * inv,
		(m[3]*m[7] - m[4]*m[6]) * inv,
		(m[1]*m[6] - m[0]*m[7]) * inv,
		(m[0]*m[4] - m[1]*m[3]) * inv,
	}, nil
}

// PerspectiveTransform solves for the homography taking the four src points onto
// the four dst points.
func PerspectiveTransform(src, dst [4]PointF) (Matrix3, error) {
	// Eight unknowns h0..h7 with h8 fixed at 1.
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a[2*i] = [9]float64{x, y, 1, 0, 0, 0, -x * u, -y * u, u}
		a[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -x * v, -y * v, v}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return Matrix3{}, errors.New("degenerate point configuration")
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := 0; r < 8; r++ {
			if r == col {
				continue
			}
			f := a[r][col] / a[col][col]
			for c := col; c < 9; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	var m Matrix3
	for i := 0; i < 8; i++ {
		m[i] = a[i][8] / a[i][i]
	}
	m[8] = 1
	return m, nil
}

// RotationAbout returns the transform rotating by angleDeg about center. Positive
// angles turn image content counter-clockwise as displayed (y axis pointing down).
func RotationAbout(center PointF, angleDeg float64) Matrix3 {
	rad := angleDeg * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	return Matrix3{
		c, s, (1-c)*center.X - s*center.Y,
		-s, c, s*center.X + (1-c)*center.Y,
		0, 0, 1,
	}
}

// BorderMode selects how samples outside the source image are filled.
type BorderMode int

const (
	// BorderConstant fills with black.
	BorderConstant BorderMode = iota
	// BorderReplicate repeats the nearest edge pixel.
	BorderReplicate
)

// WarpPerspective renders a width x height image whose pixel (x,y) samples the
// source at m⁻¹·(x,y) with bilinear interpolation.
func WarpPerspective(img image.Image, m Matrix3, width, height int, border BorderMode) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("warp output must have positive size")
	}
	inv, err := m.Invert()
	if err != nil {
		return nil, err
	}

	src := toNRGBA(img)
	sw := src.Bounds().Dx()
	sh := src.Bounds().Dy()
	out := image.NewNRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := inv.Apply(PointF{X: float64(x), Y: float64(y)})
			c, ok := sampleBilinear(src, sw, sh, p.X, p.Y, border)
			if !ok {
				continue
			}
			i := y*out.Stride + x*4
			out.Pix[i+0] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = c.A
		}
	}
	return out, nil
}

// Rotate turns an image by angleDeg about its centre, keeping the original size
// and replicating edge pixels into the exposed corners.
func Rotate(img image.Image, angleDeg float64) (*image.NRGBA, error) {
	b := img.Bounds()
	center := PointF{X: float64(b.Dx() / 2), Y: float64(b.Dy() / 2)}
	return WarpPerspective(img, RotationAbout(center, angleDeg), b.Dx(), b.Dy(), BorderReplicate)
}

func sampleBilinear(src *image.NRGBA, w, h int, fx, fy float64, border BorderMode) (color.NRGBA, bool) {
	if border == BorderConstant && (fx < -1 || fy < -1 || fx > float64(w) || fy > float64(h)) {
		return color.NRGBA{}, false
	}

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	ax := fx - float64(x0)
	ay := fy - float64(y0)

	at := func(x, y int) [4]float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			if border == BorderConstant {
				return [4]float64{0, 0, 0, 255}
			}
			x = clamp(x, 0, w-1)
			y = clamp(y, 0, h-1)
		}
		i := y*src.Stride + x*4
		return [4]float64{
			float64(src.Pix[i]), float64(src.Pix[i+1]),
			float64(src.Pix[i+2]), float64(src.Pix[i+3]),
		}
	}

	p00 := at(x0, y0)
	p10 := at(x0+1, y0)
	p01 := at(x0, y0+1)
	p11 := at(x0+1, y0+1)

	var ch [4]uint8
	for k := 0; k < 4; k++ {
		top := p00[k]*(1-ax) + p10[k]*ax
		bottom := p01[k]*(1-ax) + p11[k]*ax
		ch[k] = saturate(top*(1-ay) + bottom*ay)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, true
}

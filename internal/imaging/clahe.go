package imaging

import (
	"image"
	"math"
)

// CLAHE applies contrast-limited adaptive histogram equalisation.
//
// The image is divided into tilesX x tilesY tiles. Each tile gets its own
// equalisation lookup table whose histogram bins are clipped at
// clipLimit * tileArea / 256 with the excess spread evenly over all bins.
// Output pixels blend the four nearest tile tables bilinearly so that tile
// borders do not show.
func CLAHE(g *image.Gray, clipLimit float64, tilesX, tilesY int) *image.Gray {
	bounds := g.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return g
	}
	if tilesX < 1 {
		tilesX = 1
	}
	if tilesY < 1 {
		tilesY = 1
	}
	if tilesX > width {
		tilesX = width
	}
	if tilesY > height {
		tilesY = height
	}

	src := ToGray(g)
	tileW := (width + tilesX - 1) / tilesX
	tileH := (height + tilesY - 1) / tilesY
	tilesX = (width + tileW - 1) / tileW
	tilesY = (height + tileH - 1) / tileH

	luts := make([][][256]uint8, tilesY)
	for ty := 0; ty < tilesY; ty++ {
		luts[ty] = make([][256]uint8, tilesX)
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := minInt(x0+tileW, width), minInt(y0+tileH, height)
			luts[ty][tx] = tileLUT(src, x0, y0, x1, y1, clipLimit)
		}
	}

	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		// Position relative to tile centres.
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := clamp(int(math.Floor(fy)), 0, tilesY-1)
		ty1 := clamp(ty0+1, 0, tilesY-1)
		wy := fy - float64(ty0)
		if wy < 0 {
			wy = 0
		} else if wy > 1 {
			wy = 1
		}

		for x := 0; x < width; x++ {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := clamp(int(math.Floor(fx)), 0, tilesX-1)
			tx1 := clamp(tx0+1, 0, tilesX-1)
			wx := fx - float64(tx0)
			if wx < 0 {
				wx = 0
			} else if wx > 1 {
				wx = 1
			}

			v := src.Pix[y*src.Stride+x]
			top := (1-wx)*float64(luts[ty0][tx0][v]) + wx*float64(luts[ty0][tx1][v])
			bottom := (1-wx)*float64(luts[ty1][tx0][v]) + wx*float64(luts[ty1][tx1][v])
			out.Pix[y*out.Stride+x] = saturate((1-wy)*top + wy*bottom)
		}
	}
	return out
}

// tileLUT builds the clipped equalisation table for one tile.
func tileLUT(g *image.Gray, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	for y := y0; y < y1; y++ {
		row := g.Pix[y*g.Stride+x0 : y*g.Stride+x1]
		for _, v := range row {
			hist[v]++
		}
	}
	area := (x1 - x0) * (y1 - y0)

	if clipLimit > 0 {
		limit := int(clipLimit * float64(area) / 256)
		if limit < 1 {
			limit = 1
		}
		excess := 0
		for i := range hist {
			if hist[i] > limit {
				excess += hist[i] - limit
				hist[i] = limit
			}
		}
		bonus := excess / 256
		residual := excess % 256
		for i := range hist {
			hist[i] += bonus
		}
		if residual > 0 {
			step := 256 / residual
			if step < 1 {
				step = 1
			}
			for i := 0; i < 256 && residual > 0; i += step {
				hist[i]++
				residual--
			}
		}
	}

	var lut [256]uint8
	scale := 255.0 / float64(area)
	cum := 0
	for i := range hist {
		cum += hist[i]
		lut[i] = saturate(float64(cum) * scale)
	}
	return lut
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

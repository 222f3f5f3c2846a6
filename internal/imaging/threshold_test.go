package imaging

import (
	"image"
	"image/color"
	"testing"
)

func bimodal(width, height int, dark, light uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := light
			if x < width/2 {
				v = dark
			}
			g.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return g
}

func TestOtsuLevel_SplitsModes(t *testing.T) {
	g := bimodal(40, 10, 40, 200)
	level := OtsuLevel(g)
	if level < 40 || level >= 200 {
		t.Errorf("Otsu level %d does not separate 40 and 200", level)
	}
}

func TestOtsu_Binarises(t *testing.T) {
	out := Otsu(bimodal(40, 10, 40, 200))
	if got := out.GrayAt(5, 5).Y; got != 0 {
		t.Errorf("dark side: got %d, want 0", got)
	}
	if got := out.GrayAt(35, 5).Y; got != 255 {
		t.Errorf("light side: got %d, want 255", got)
	}
	for _, v := range out.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("non-binary value %d", v)
		}
	}
}

func TestOtsu_UniformImage(t *testing.T) {
	out := Otsu(ToGray(createInMemoryImage(8, 8, color.Gray{Y: 120})))
	if out.Bounds().Dx() != 8 || out.Bounds().Dy() != 8 {
		t.Errorf("size: got %v", out.Bounds())
	}
}

func TestAdaptiveGaussian(t *testing.T) {
	// Dark text stroke on an uneven background stays black, background goes white.
	g := image.NewGray(image.Rect(0, 0, 60, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 60; x++ {
			g.SetGray(x, y, color.Gray{Y: uint8(120 + x)})
		}
	}
	for y := 10; y < 20; y++ {
		g.SetGray(30, y, color.Gray{Y: 20})
	}

	out := AdaptiveGaussian(g, 15, 8)
	if got := out.GrayAt(30, 15).Y; got != 0 {
		t.Errorf("stroke pixel: got %d, want 0", got)
	}
	if got := out.GrayAt(5, 5).Y; got != 255 {
		t.Errorf("background pixel: got %d, want 255", got)
	}
	if got := out.GrayAt(55, 25).Y; got != 255 {
		t.Errorf("bright background pixel: got %d, want 255", got)
	}
}

func TestCLAHE_SingleTileEqualises(t *testing.T) {
	g := bimodal(64, 64, 110, 130)
	out := CLAHE(g, 0, 1, 1)

	if got := out.GrayAt(5, 5).Y; got != 128 {
		t.Errorf("dark level: got %d, want 128", got)
	}
	if got := out.GrayAt(60, 5).Y; got != 255 {
		t.Errorf("light level: got %d, want 255", got)
	}
}

func TestCLAHE_UniformStaysUniform(t *testing.T) {
	g := ToGray(createInMemoryImage(64, 48, color.Gray{Y: 77}))
	out := CLAHE(g, 2.0, 8, 8)
	if out.Bounds() != g.Bounds() {
		t.Fatalf("bounds changed: %v", out.Bounds())
	}
	first := out.Pix[0]
	for _, v := range out.Pix {
		if v != first {
			t.Fatalf("uniform input produced varying output: %d vs %d", v, first)
		}
	}
}

func TestCLAHE_TinyImage(t *testing.T) {
	g := bimodal(5, 3, 10, 240)
	out := CLAHE(g, 2.0, 8, 8)
	if out.Bounds().Dx() != 5 || out.Bounds().Dy() != 3 {
		t.Errorf("size: got %v", out.Bounds())
	}
}

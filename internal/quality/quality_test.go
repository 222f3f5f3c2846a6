package quality

import (
	"image"
	"image/color"
	"reflect"
	"testing"

	"github.com/ironsheep/ine-ocr-mcp/internal/card"
)

// createUniform returns a gray image of a single intensity.
func createUniform(width, height int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// createCheckerboard alternates black and white squares of the given size.
func createCheckerboard(width, height, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/size+y/size)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func TestAssess_Uniform(t *testing.T) {
	m := Assess(createUniform(100, 80, 128))
	if m.Blur != 0 {
		t.Errorf("blur: got %v, want 0", m.Blur)
	}
	if m.Glare != 0 {
		t.Errorf("glare: got %v, want 0", m.Glare)
	}
	if m.Exposure != 0 {
		t.Errorf("exposure: got %v, want 0", m.Exposure)
	}
	// avg = (0 + 1 + 0) / 3
	if m.Grade != GradePoor {
		t.Errorf("grade: got %s, want poor", m.Grade)
	}
	if !m.PerspectiveOK {
		t.Error("perspective_ok should default to true")
	}
}

func TestAssess_Checkerboard(t *testing.T) {
	m := Assess(createCheckerboard(200, 200, 4))
	if m.Blur != 1 {
		t.Errorf("sharp edges should saturate blur score, got %v", m.Blur)
	}
	if m.Glare < 0.49 || m.Glare > 0.51 {
		t.Errorf("glare: got %v, want ~0.5", m.Glare)
	}
	if m.Exposure != 1 {
		t.Errorf("exposure: got %v, want 1 (std 127.5)", m.Exposure)
	}
	// avg = (1 + 0.5 + 1) / 3 ≈ 0.83
	if m.Grade != GradeGood {
		t.Errorf("grade: got %s, want good", m.Grade)
	}
}

func TestAssess_AllWhiteIsGlare(t *testing.T) {
	m := Assess(createUniform(50, 50, 255))
	if m.Glare != 1 {
		t.Errorf("glare: got %v, want 1", m.Glare)
	}
}

func TestGradeFor(t *testing.T) {
	tests := []struct {
		avg  float64
		want Grade
	}{
		{0.9, GradeGood},
		{0.7, GradeGood},
		{0.69, GradeFair},
		{0.4, GradeFair},
		{0.39, GradePoor},
		{0, GradePoor},
	}
	for _, tt := range tests {
		if got := gradeFor(tt.avg); got != tt.want {
			t.Errorf("gradeFor(%v) = %s, want %s", tt.avg, got, tt.want)
		}
	}
}

func TestScore(t *testing.T) {
	m := Metrics{Blur: 0.6, Glare: 0.3, Exposure: 0.9}
	if got := m.Score(); got < 0.733 || got > 0.734 {
		t.Errorf("got %v, want ~0.7333", got)
	}
}

func TestWarnings(t *testing.T) {
	tests := []struct {
		name string
		m    Metrics
		side card.Side
		want []string
	}{
		{"clean", Metrics{Blur: 0.8, Glare: 0.05, Exposure: 0.7}, card.Back, nil},
		{"blurred", Metrics{Blur: 0.1, Glare: 0.05, Exposure: 0.7}, card.Front, []string{"front_low_blur"}},
		{
			"everything wrong",
			Metrics{Blur: 0.29, Glare: 0.16, Exposure: 0.2},
			card.Back,
			[]string{"back_low_blur", "back_high_glare", "back_bad_exposure"},
		},
		{"at thresholds", Metrics{Blur: 0.3, Glare: 0.15, Exposure: 0.3}, card.Back, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Warnings(tt.m, tt.side); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnassessed(t *testing.T) {
	if m := Unassessed(); m.Grade != GradeUnknown {
		t.Errorf("grade: got %s", m.Grade)
	}
}

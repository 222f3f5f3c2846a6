package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os/exec"
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	point := fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  point,
	}
	d.DrawString(text)
}

// createImageWithText renders text and scales it up by drawing each pixel as a
// scale x scale block, which Tesseract reads far more reliably than 13px glyphs.
func createImageWithText(text string, scale int) *image.RGBA {
	// basicfont.Face7x13 is 7 pixels wide, 13 pixels tall per character
	width := len(text)*7 + 40
	height := 40

	small := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	drawText(small, 20, 25, text, color.Black)

	img := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := small.At(x, y)
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.Set(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}
	return img
}

// requireTesseract skips the test when the tesseract CLI is not installed.
func requireTesseract(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("Tesseract not available")
	}
}

type fakeRunner struct {
	out      string
	err      error
	gotName  string
	gotArgs  []string
	gotStdin []byte
}

func (f *fakeRunner) Run(_ context.Context, name string, stdin []byte, args ...string) ([]byte, error) {
	f.gotName = name
	f.gotArgs = args
	f.gotStdin = stdin
	return []byte(f.out), f.err
}

func TestParseOSD(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    int
		wantErr bool
	}{
		{
			name: "upright",
			out:  "Page number: 0\nOrientation in degrees: 0\nRotate: 0\nOrientation confidence: 12.1\n",
			want: 0,
		},
		{
			name: "needs quarter turn",
			out:  "Page number: 0\nOrientation in degrees: 270\nRotate: 90\nOrientation confidence: 3.22\nScript: Latin\n",
			want: 90,
		},
		{name: "upside down", out: "Rotate: 180", want: 180},
		{name: "counter clockwise", out: "  Rotate:   270  \n", want: 270},
		{name: "missing", out: "Page number: 0\n", wantErr: true},
		{name: "not a number", out: "Rotate: abc", wantErr: true},
		{name: "odd angle", out: "Rotate: 45", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOSD(tt.out)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseLangList(t *testing.T) {
	out := "List of available languages in \"/usr/share/tesseract-ocr/5/tessdata/\" (3):\neng\nosd\nspa\n"
	got := parseLangList(out)
	want := []string{"eng", "osd", "spa"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNewEngine_Defaults(t *testing.T) {
	e := NewEngine(Options{})
	if e.Language() != "spa" {
		t.Errorf("language: got %q, want spa", e.Language())
	}
	if e.opts.TesseractCmd != "tesseract" {
		t.Errorf("command: got %q, want tesseract", e.opts.TesseractCmd)
	}
}

func TestDetectRotation_UsesCommandLine(t *testing.T) {
	runner := &fakeRunner{out: "Rotate: 270\n"}
	e := NewEngine(Options{TesseractCmd: "/opt/tess", TessdataPrefix: "/data"})
	e.runner = runner

	got, err := e.DetectRotation(context.Background(), createImageWithText("HELLO", 1))
	if err != nil {
		t.Fatalf("DetectRotation failed: %v", err)
	}
	if got != 270 {
		t.Errorf("rotation: got %d, want 270", got)
	}
	if runner.gotName != "/opt/tess" {
		t.Errorf("command: got %q", runner.gotName)
	}
	wantArgs := "--tessdata-dir /data stdin stdout --psm 0"
	if strings.Join(runner.gotArgs, " ") != wantArgs {
		t.Errorf("args: got %q, want %q", strings.Join(runner.gotArgs, " "), wantArgs)
	}
	if len(runner.gotStdin) == 0 || !strings.HasPrefix(string(runner.gotStdin), "\x89PNG") {
		t.Error("stdin should carry a PNG image")
	}
}

func TestDetectRotation_CommandFailure(t *testing.T) {
	e := NewEngine(Options{})
	e.runner = &fakeRunner{err: errors.New("exit status 1")}
	if _, err := e.DetectRotation(context.Background(), createImageWithText("X", 1)); err == nil {
		t.Error("expected error when the command fails")
	}
}

func TestPageSegMode_Mapping(t *testing.T) {
	if ModeSingleLine.gosseract() != gosseract.PSM_SINGLE_LINE {
		t.Error("single line mode mismatch")
	}
	if ModeBlock.gosseract() != gosseract.PSM_SINGLE_BLOCK {
		t.Error("block mode mismatch")
	}
}

func TestRecognize_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewEngine(Options{})
	if _, err := e.Recognize(ctx, createImageWithText("A", 1), ModeSingleLine, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestRecognize_RealText(t *testing.T) {
	requireTesseract(t)

	e := NewEngine(Options{Language: "eng"})
	text, err := e.Recognize(context.Background(), createImageWithText("HELLO 2024", 4), ModeSingleLine, "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 ")
	if err != nil {
		t.Skipf("Tesseract not usable: %v", err)
	}
	if !strings.Contains(strings.ToUpper(text), "HELLO") {
		t.Errorf("expected HELLO in %q", text)
	}
}

func TestInfo(t *testing.T) {
	requireTesseract(t)

	info := NewEngine(Options{Language: "eng"}).Info(context.Background())
	if info.Backend != "gosseract" {
		t.Errorf("backend: got %q", info.Backend)
	}
	if !info.OSDAvailable {
		t.Errorf("tesseract is on PATH but OSD command reported unavailable: %s", info.Error)
	}
}

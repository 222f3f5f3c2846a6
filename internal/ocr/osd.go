package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"
)

// commandRunner executes an external command, feeding stdin and returning stdout.
type commandRunner interface {
	Run(ctx context.Context, name string, stdin []byte, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// DetectRotation runs Tesseract orientation and script detection on an image and
// returns the clockwise rotation in degrees (0, 90, 180 or 270) needed to make
// its text upright.
//
// gosseract does not expose orientation detection, so this pipes a PNG through
// `tesseract stdin stdout --psm 0`. The osd.traineddata model must be installed.
func (e *Engine) DetectRotation(ctx context.Context, img image.Image) (int, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return 0, fmt.Errorf("encode image: %w", err)
	}

	out, err := e.runner.Run(ctx, e.opts.TesseractCmd, buf.Bytes(), e.cliArgs("stdin", "stdout", "--psm", "0")...)
	if err != nil {
		return 0, fmt.Errorf("orientation detection failed: %w", err)
	}
	return ParseOSD(string(out))
}

// ParseOSD extracts the "Rotate:" value from Tesseract OSD output such as:
//
//	Page number: 0
//	Orientation in degrees: 270
//	Rotate: 90
//	Orientation confidence: 3.22
func ParseOSD(out string) (int, error) {
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		value, ok := strings.CutPrefix(line, "Rotate:")
		if !ok {
			continue
		}
		deg, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("invalid rotate value %q: %w", value, err)
		}
		switch deg {
		case 0, 90, 180, 270:
			return deg, nil
		default:
			return 0, fmt.Errorf("unexpected rotate value %d", deg)
		}
	}
	return 0, fmt.Errorf("no rotate value in OSD output")
}

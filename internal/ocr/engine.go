package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// PageSegMode selects how Tesseract segments the input image.
type PageSegMode int

const (
	// ModeBlock treats the image as a single uniform block of text.
	ModeBlock PageSegMode = 6
	// ModeSingleLine treats the image as a single text line.
	ModeSingleLine PageSegMode = 7
)

func (m PageSegMode) gosseract() gosseract.PageSegMode {
	switch m {
	case ModeSingleLine:
		return gosseract.PSM_SINGLE_LINE
	case ModeBlock:
		return gosseract.PSM_SINGLE_BLOCK
	default:
		return gosseract.PageSegMode(m)
	}
}

// Options configures an Engine.
type Options struct {
	// Language is the Tesseract language code, e.g. "spa".
	Language string
	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string
	// TesseractCmd is the tesseract executable used for orientation detection.
	TesseractCmd string
}

// Engine runs Tesseract through gosseract for text and through the tesseract
// command line for orientation detection.
//
// gosseract clients are not safe for concurrent use, so Engine creates one per
// call. Engine itself is safe for concurrent use.
type Engine struct {
	opts          Options
	clientFactory func() *gosseract.Client
	runner        commandRunner
}

// NewEngine creates an Engine. Empty options fall back to language "spa" and
// the "tesseract" executable on PATH.
func NewEngine(opts Options) *Engine {
	if opts.Language == "" {
		opts.Language = "spa"
	}
	if opts.TesseractCmd == "" {
		opts.TesseractCmd = "tesseract"
	}
	return &Engine{
		opts:          opts,
		clientFactory: gosseract.NewClient,
		runner:        execRunner{},
	}
}

// Language returns the configured Tesseract language.
func (e *Engine) Language() string {
	return e.opts.Language
}

// Recognize performs OCR on an image and returns the raw recognised text.
//
// Parameters:
//   - img: The (already preprocessed) image to read.
//   - mode: Page segmentation mode, ModeSingleLine or ModeBlock.
//   - whitelist: Characters Tesseract may emit. Empty allows everything.
//
// Returns an error if the image cannot be encoded or Tesseract fails. The
// context is checked before the (non-interruptible) recognition starts.
func (e *Engine) Recognize(ctx context.Context, img image.Image, mode PageSegMode, whitelist string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	client := e.clientFactory()
	defer client.Close()

	if e.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.opts.TessdataPrefix); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(e.opts.Language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := client.SetPageSegMode(mode.gosseract()); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}
	if whitelist != "" {
		if err := client.SetWhitelist(whitelist); err != nil {
			return "", fmt.Errorf("set whitelist: %w", err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognition failed: %w", err)
	}
	return text, nil
}

// Info contains information about the OCR subsystem.
type Info struct {
	Available      bool     `json:"available"`
	Version        string   `json:"version,omitempty"`
	Error          string   `json:"error,omitempty"`
	Backend        string   `json:"backend"`
	Language       string   `json:"language"`
	TessdataPath   string   `json:"tessdata_path,omitempty"`
	OSDCommand     string   `json:"osd_command"`
	OSDAvailable   bool     `json:"osd_available"`
	InstalledLangs []string `json:"installed_languages,omitempty"`
}

// Info reports whether Tesseract can be used and which languages are installed.
func (e *Engine) Info(ctx context.Context) Info {
	info := Info{
		Backend:      "gosseract",
		Language:     e.opts.Language,
		TessdataPath: e.opts.TessdataPrefix,
		OSDCommand:   e.opts.TesseractCmd,
	}

	client := e.clientFactory()
	info.Version = client.Version()
	client.Close()
	info.Available = info.Version != ""
	if !info.Available {
		info.Error = "tesseract library did not report a version"
	}

	out, err := e.runner.Run(ctx, e.opts.TesseractCmd, nil, e.cliArgs("--list-langs")...)
	if err != nil {
		if info.Error == "" {
			info.Error = fmt.Sprintf("tesseract command unavailable: %v", err)
		}
		return info
	}
	info.OSDAvailable = true
	info.InstalledLangs = parseLangList(string(out))
	return info
}

// parseLangList parses `tesseract --list-langs` output, which starts with a
// header line followed by one language code per line.
func parseLangList(out string) []string {
	langs := make([]string, 0)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, " ") || strings.HasSuffix(line, ":") {
			continue
		}
		langs = append(langs, line)
	}
	return langs
}

// cliArgs prefixes command line arguments with --tessdata-dir when a prefix is set.
func (e *Engine) cliArgs(args ...string) []string {
	if e.opts.TessdataPrefix == "" {
		return args
	}
	return append([]string{"--tessdata-dir", e.opts.TessdataPrefix}, args...)
}

// Package extract reads the text inside one card region.
//
// A region is cropped from the rectified image, converted to grayscale and
// binarised with a preprocessing strategy chosen by attempt number, then
// handed to a Recognizer. The recognised text is normalised to the region's
// character whitelist. Recognition failures never propagate: they produce
// empty text and are recorded on the Attempt.
package extract

import (
	"context"
	"image"
	"strings"
	"time"

	"github.com/ironsheep/ine-ocr-mcp/internal/imaging"
	"github.com/ironsheep/ine-ocr-mcp/internal/logging"
	"github.com/ironsheep/ine-ocr-mcp/internal/ocr"
	"github.com/ironsheep/ine-ocr-mcp/internal/roi"
)

// Character whitelists.
const (
	// WhitelistLine is used for the machine-readable id line.
	WhitelistLine = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789<"
	// WhitelistCURP is used for the CURP block.
	WhitelistCURP = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// WhitelistBlock is used for names and addresses.
	WhitelistBlock = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 .,-/#"
)

// Recognizer reads text from a preprocessed image. *ocr.Engine implements it.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, mode ocr.PageSegMode, whitelist string) (string, error)
}

// Request selects how a region is read.
type Request struct {
	Attempt   int
	Mode      ocr.PageSegMode
	Whitelist string
}

// LineRequest reads a single line restricted to WhitelistLine.
func LineRequest(attempt int) Request {
	return Request{Attempt: attempt, Mode: ocr.ModeSingleLine, Whitelist: WhitelistLine}
}

// CURPRequest reads a block restricted to WhitelistCURP.
func CURPRequest(attempt int) Request {
	return Request{Attempt: attempt, Mode: ocr.ModeBlock, Whitelist: WhitelistCURP}
}

// BlockRequest reads a multi-line block restricted to WhitelistBlock.
func BlockRequest(attempt int) Request {
	return Request{Attempt: attempt, Mode: ocr.ModeBlock, Whitelist: WhitelistBlock}
}

// Attempt records one read of one region. Attempts are never persisted.
type Attempt struct {
	Number   int           `json:"attempt"`
	Strategy Strategy      `json:"strategy"`
	Region   roi.ROI       `json:"roi"`
	Text     string        `json:"text"`
	Elapsed  time.Duration `json:"-"`
	// Err is the recognizer failure, if any. Text is empty when set.
	Err error `json:"-"`
}

// Engine crops, preprocesses and recognises regions.
type Engine struct {
	recognizer Recognizer
	logger     *logging.Logger
	now        func() time.Time
}

// NewEngine creates an Engine around a Recognizer. A nil logger discards
// log output.
func NewEngine(r Recognizer, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{recognizer: r, logger: logger, now: time.Now}
}

// Prepare crops region from img and applies the preprocessing for attempt.
// The result is a binary image at least 1x1.
func Prepare(img image.Image, region roi.ROI, attempt int) *image.Gray {
	return Preprocess(imaging.ToGray(region.Crop(img)), attempt)
}

// Extract reads the text inside region.
func (e *Engine) Extract(ctx context.Context, img image.Image, region roi.ROI, req Request) Attempt {
	start := e.now()
	att := Attempt{
		Number:   max(req.Attempt, 1),
		Strategy: StrategyFor(req.Attempt),
		Region:   region,
	}

	prepared := Prepare(img, region, req.Attempt)

	if e.recognizer == nil {
		att.Err = errNoRecognizer
	} else {
		raw, err := e.recognizer.Recognize(ctx, prepared, req.Mode, req.Whitelist)
		if err != nil {
			att.Err = err
		} else {
			att.Text = Normalize(raw, req.Whitelist)
		}
	}
	if att.Err != nil {
		e.logger.Warn("recognition failed, using empty text", "roi", region.String(), "attempt", att.Number, "error", att.Err)
	}

	att.Elapsed = e.now().Sub(start)
	e.logger.Debug("region read", "roi", region.String(), "attempt", att.Number, "strategy", string(att.Strategy), "chars", len(att.Text))
	return att
}

// Normalize uppercases and trims text, collapses runs of spaces and drops
// every character outside whitelist, space and newline.
func Normalize(text, whitelist string) string {
	text = strings.TrimSpace(strings.ToUpper(text))
	for strings.Contains(text, "  ") {
		text = strings.ReplaceAll(text, "  ", " ")
	}

	allowed := whitelist + " \n"
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(allowed, r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

type extractError string

func (e extractError) Error() string { return string(e) }

const errNoRecognizer = extractError("no text recognizer configured")

// Package pipeline orchestrates INE card extraction.
//
// Process runs the stages in a fixed order: decode, quality assessment and
// rectification of both sides, classification and alignment of the back,
// a single front pass, then the retry loop over back-side parsing. It never
// fails: every degradation is reported as a warning, a null value or a low
// confidence on the returned Result.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/ine-ocr-mcp/internal/align"
	"github.com/ironsheep/ine-ocr-mcp/internal/card"
	"github.com/ironsheep/ine-ocr-mcp/internal/classify"
	"github.com/ironsheep/ine-ocr-mcp/internal/confidence"
	"github.com/ironsheep/ine-ocr-mcp/internal/config"
	"github.com/ironsheep/ine-ocr-mcp/internal/curp"
	"github.com/ironsheep/ine-ocr-mcp/internal/extract"
	"github.com/ironsheep/ine-ocr-mcp/internal/imaging"
	"github.com/ironsheep/ine-ocr-mcp/internal/logging"
	"github.com/ironsheep/ine-ocr-mcp/internal/parse"
	"github.com/ironsheep/ine-ocr-mcp/internal/quality"
	"github.com/ironsheep/ine-ocr-mcp/internal/rectify"
	"github.com/ironsheep/ine-ocr-mcp/internal/roi"
)

// Rectifier flattens a card photograph. *rectify.Rectifier implements it.
type Rectifier interface {
	Rectify(ctx context.Context, img image.Image) (image.Image, bool)
}

// Classifier identifies the card variant from its back. *classify.Classifier
// implements it.
type Classifier interface {
	Classify(img image.Image) classify.Classification
}

// Options configures a Pipeline. Only Recognizer is required for real
// extraction; everything else has a default.
type Options struct {
	Config       *config.Config
	Templates    *roi.Templates
	Recognizer   extract.Recognizer
	Orientation  rectify.OrientationDetector
	Rectifier    Rectifier
	Classifier   Classifier
	Expectations align.Expectations
	Logger       *logging.Logger
	Clock        func() time.Time
	NewID        func() string
}

// Pipeline is safe for concurrent use: it holds only read-only collaborators.
type Pipeline struct {
	cfg          *config.Config
	templates    *roi.Templates
	rectifier    Rectifier
	classifier   Classifier
	expectations align.Expectations
	extractor    *extract.Engine
	front        *parse.FrontParser
	back         *parse.BackParser
	logger       *logging.Logger
	now          func() time.Time
	newID        func() string
}

// New builds a Pipeline, filling unset options with defaults.
func New(opts Options) (*Pipeline, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	templates := opts.Templates
	if templates == nil {
		t, err := roi.Default()
		if err != nil {
			return nil, fmt.Errorf("failed to load default roi templates: %w", err)
		}
		templates = t
	}

	p := &Pipeline{
		cfg:          cfg,
		templates:    templates,
		rectifier:    opts.Rectifier,
		classifier:   opts.Classifier,
		expectations: opts.Expectations,
		logger:       logger,
		now:          opts.Clock,
		newID:        opts.NewID,
	}
	if p.rectifier == nil {
		p.rectifier = rectify.New(opts.Orientation, logger.With("rectify"))
	}
	if p.classifier == nil {
		p.classifier = classify.New()
	}
	if p.expectations == nil {
		p.expectations = align.DefaultExpectations()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}

	p.extractor = extract.NewEngine(opts.Recognizer, logger.With("extract"))
	p.front = parse.NewFrontParser(templates, p.extractor, logger.With("front"))
	p.back = parse.NewBackParser(templates, p.extractor, logger.With("back"))
	return p, nil
}

// Templates returns the region templates in use.
func (p *Pipeline) Templates() *roi.Templates {
	return p.templates
}

// Analysis is the pre-extraction view of one side: its quality, the
// rectified image and, for the back, the variant and alignment.
type Analysis struct {
	Side           card.Side
	Image          image.Image
	Quality        quality.Metrics
	Classification classify.Classification
	Correction     roi.Correction
	// ContextScore is derived from the back classification; on the front it
	// only reflects PerspectiveOK.
	ContextScore   float64
}

// Analyze assesses and rectifies one side. The back is also classified and
// aligned; the front keeps the identity correction.
func (p *Pipeline) Analyze(ctx context.Context, side card.Side, img image.Image) Analysis {
	a := Analysis{
		Side:           side,
		Quality:        quality.Assess(img),
		Classification: classify.Unknown(),
		Correction:     roi.Identity(),
	}

	var ok bool
	a.Image, ok = p.rectifier.Rectify(ctx, img)
	a.Quality.PerspectiveOK = ok

	if side == card.Back {
		a.Classification = p.classifier.Classify(a.Image)
		a.Correction = p.expectations.Compute(a.Image.Bounds(), a.Classification.Variant, a.Classification.Boxes)
	}
	a.ContextScore = confidence.Context(a.Classification.Variant, ok)
	return a
}

// Warnings returns the capture warnings for the side: quality thresholds
// followed by a failed perspective warp.
func (a Analysis) Warnings() []string {
	var w card.Warnings
	w.Add(quality.Warnings(a.Quality, a.Side)...)
	if !a.Quality.PerspectiveOK {
		w.Add(card.SideWarning(a.Side, card.WarnPerspectiveFailed))
	}
	return w.List()
}

// Regions returns the runtime regions of an analysed side for an attempt.
func (p *Pipeline) Regions(a Analysis, attempt int) map[string]roi.ROI {
	if a.Side == card.Front {
		return p.templates.Front()
	}
	return p.back.Regions(attempt, a.Classification.Variant, a.Correction)
}

// RequestFor returns how a field's region is read.
func RequestFor(field string, attempt int) extract.Request {
	switch field {
	case roi.FieldIDINE:
		return extract.LineRequest(attempt)
	case roi.FieldCURP:
		return extract.CURPRequest(attempt)
	default:
		return extract.BlockRequest(attempt)
	}
}

// ReadField reads one field of an analysed side. It returns the attempt,
// the preprocessed crop handed to the recognizer, and false when the side
// has no such field.
func (p *Pipeline) ReadField(ctx context.Context, a Analysis, field string, attempt int) (extract.Attempt, *image.Gray, bool) {
	r, ok := p.Regions(a, attempt)[field]
	if !ok {
		return extract.Attempt{}, nil, false
	}
	req := RequestFor(field, attempt)
	return p.extractor.Extract(ctx, a.Image, r, req), extract.Prepare(a.Image, r, req.Attempt), true
}

// Process extracts every field from the encoded front and back images.
func (p *Pipeline) Process(ctx context.Context, front, back []byte) *Result {
	start := p.now()
	res := EmptyResult(p.newID())
	log := p.logger

	frontImg, _, errFront := imaging.Decode(front)
	backImg, _, errBack := imaging.Decode(back)
	if errFront != nil || errBack != nil {
		log.Warn("image decode failed", "request_id", res.RequestID, "front_error", errFront, "back_error", errBack)
		return p.decodeFailed(res, start)
	}
	return p.run(ctx, start, res, frontImg, backImg)
}

// ProcessImages is Process for images that are already decoded. A nil or
// empty image is reported like an undecodable one.
func (p *Pipeline) ProcessImages(ctx context.Context, front, back image.Image) *Result {
	start := p.now()
	res := EmptyResult(p.newID())
	if isEmpty(front) || isEmpty(back) {
		p.logger.Warn("empty input image", "request_id", res.RequestID)
		return p.decodeFailed(res, start)
	}
	return p.run(ctx, start, res, front, back)
}

func (p *Pipeline) decodeFailed(res *Result, start time.Time) *Result {
	res.Warnings = []string{card.WarnImageDecodeFailed}
	res.ProcessingMS = p.since(start)
	return res
}

func isEmpty(img image.Image) bool {
	return img == nil || img.Bounds().Empty()
}

func (p *Pipeline) run(ctx context.Context, start time.Time, res *Result, frontImg, backImg image.Image) *Result {
	log := p.logger
	f := p.Analyze(ctx, card.Front, frontImg)
	b := p.Analyze(ctx, card.Back, backImg)

	var warns card.Warnings
	warns.Add(quality.Warnings(f.Quality, card.Front)...)
	warns.Add(quality.Warnings(b.Quality, card.Back)...)
	if !b.Quality.PerspectiveOK {
		warns.Add(card.SideWarning(card.Back, card.WarnPerspectiveFailed))
	}
	if !f.Quality.PerspectiveOK {
		warns.Add(card.SideWarning(card.Front, card.WarnPerspectiveFailed))
	}
	log.Debug("sides analysed", "request_id", res.RequestID, "variant", string(b.Classification.Variant), "strategy", b.Classification.Strategy,
		"back_perspective", b.Quality.PerspectiveOK, "front_perspective", f.Quality.PerspectiveOK, "correction", fmt.Sprintf("%+v", b.Correction))

	ctxScore := b.ContextScore
	frontQ := f.Quality.Score()
	backQ := b.Quality.Score()

	fr := p.front.Parse(ctx, f.Image)

	out := RunAttempts(Budget{
		MaxAttempts: p.cfg.MaxAttempts(),
		Limit:       p.cfg.TimeBudget,
		Start:       start,
		Now:         p.now,
	}, func(n int) (parse.BackResult, float64) {
		r := p.back.Parse(ctx, b.Image, n, b.Classification, b.Correction)
		if r.IDINE == "" {
			return r, 0
		}
		return r, confidence.Blend(confidence.IDINE(r.IDINE, r.Corrections), backQ, ctxScore)
	})
	warns.Add(out.Warnings...)

	best := out.Best
	if best.IDINE == "" {
		warns.Add(card.WarnIDNotFound)
	}

	var fecha, sexo string
	if curp.IsValid(best.CURP) {
		fecha = curp.BirthDate(best.CURP)
		sexo = curp.Sex(best.CURP)
	}

	res.ModelID = b.Classification.Variant
	res.ContextScore = ctxScore
	res.Quality = Quality{Front: f.Quality, Back: b.Quality}
	res.Attempts = out.Attempts
	res.Beneficiarios = Beneficiario{
		Nombre:          confidence.Score(fr.Nombre, confidence.Name(fr.Nombre), frontQ, ctxScore),
		ApellidoPaterno: confidence.Score(fr.ApellidoPaterno, confidence.Name(fr.ApellidoPaterno), frontQ, ctxScore),
		ApellidoMaterno: confidence.Score(fr.ApellidoMaterno, confidence.Name(fr.ApellidoMaterno), frontQ, ctxScore),
		CURP:            confidence.Score(best.CURP, confidence.CURP(best.CURP), backQ, ctxScore),
		FechaNacimiento: confidence.Score(fecha, confidence.Presence(fecha), backQ, ctxScore),
		Sexo:            confidence.Score(sexo, confidence.Presence(sexo), backQ, ctxScore),
		IDINE:           confidence.Score(best.IDINE, confidence.IDINE(best.IDINE, best.Corrections), backQ, ctxScore),
	}
	res.Domicilio = Domicilio{
		Calle:        confidence.Score(fr.Calle, confidence.Address(fr.Calle), frontQ, ctxScore),
		Colonia:      confidence.Score(fr.Colonia, confidence.Address(fr.Colonia), frontQ, ctxScore),
		CodigoPostal: confidence.Score(fr.CodigoPostal, confidence.PostalCode(fr.CodigoPostal), frontQ, ctxScore),
		Seccional:    confidence.Score(fr.Seccion, confidence.Seccion(fr.Seccion), frontQ, ctxScore),
	}
	res.Warnings = warns.List()
	res.ProcessingMS = p.since(start)

	log.Info("extraction complete", "request_id", res.RequestID, "model_id", string(res.ModelID), "attempts", res.Attempts,
		"ms", res.ProcessingMS, "warnings", len(res.Warnings))
	return res
}

func (p *Pipeline) since(start time.Time) int64 {
	return p.now().Sub(start).Milliseconds()
}

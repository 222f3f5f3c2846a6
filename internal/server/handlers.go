package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/ine-ocr-mcp/internal/card"
	"github.com/ironsheep/ine-ocr-mcp/internal/classify"
	"github.com/ironsheep/ine-ocr-mcp/internal/extract"
	"github.com/ironsheep/ine-ocr-mcp/internal/imaging"
	"github.com/ironsheep/ine-ocr-mcp/internal/ocr"
	"github.com/ironsheep/ine-ocr-mcp/internal/quality"
	"github.com/ironsheep/ine-ocr-mcp/internal/roi"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "ine_extract", "ine_crop_field").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Input defects return code -32602 with the RequestError as data. Any other
// tool failure returns code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, rpcInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			s.logger.Info("rejected request", "tool", params.Name, "error_code", reqErr.Code, "which", reqErr.Which)
			return s.errorResponse(req.ID, rpcInvalidParams, reqErr.Message, reqErr)
		}
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, rpcToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "ine_extract":
		return s.handleExtract(ctx, args)

	// Debugging aids
	case "ine_assess_quality":
		return s.handleAssessQuality(ctx, args)
	case "ine_classify_back":
		return s.handleClassifyBack(ctx, args)
	case "ine_roi_overlay":
		return s.handleROIOverlay(ctx, args)
	case "ine_crop_field":
		return s.handleCropField(ctx, args)

	case "ocr_info":
		return s.handleOCRInfo(ctx)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return requestErrorf(CodeInvalidArgument, "", "invalid arguments: %v", err)
	}
	return nil
}

// === Image inputs ===

// imageInput names an image either by file path or by base64 content. A
// data URI prefix on the base64 content is ignored.
type imageInput struct {
	Path   string `json:"path,omitempty"`
	Base64 string `json:"base64,omitempty"`
}

func (s *Server) checkSize(which string, n int64) error {
	if n > s.cfg.MaxImageSize {
		return requestErrorf(CodeImageTooLarge, which, "image is %d bytes, limit is %d", n, s.cfg.MaxImageSize)
	}
	if n < s.cfg.MinImageSize {
		return requestErrorf(CodeImageTooSmall, which, "image is %d bytes, minimum is %d", n, s.cfg.MinImageSize)
	}
	return nil
}

// loadImage validates and decodes one image input. Path inputs go through the
// image cache; the returned release evicts them again and is never nil, so
// callers defer it before checking err.
func (s *Server) loadImage(which string, in imageInput) (image.Image, func(), error) {
	switch {
	case in.Path != "" && in.Base64 != "":
		return nil, noRelease, requestErrorf(CodeInvalidArgument, which, "give either path or base64, not both")
	case in.Path != "":
		return s.loadPath(which, in.Path)
	case in.Base64 != "":
		img, err := s.loadBase64(which, in.Base64)
		return img, noRelease, err
	default:
		return nil, noRelease, requestErrorf(CodeInvalidArgument, which, "image is required")
	}
}

func noRelease() {}

func (s *Server) loadPath(which, path string) (image.Image, func(), error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, noRelease, requestErrorf(CodeInvalidArgument, which, "cannot read image: %v", err)
	}
	if info.IsDir() {
		return nil, noRelease, requestErrorf(CodeInvalidArgument, which, "%s is a directory", path)
	}
	if err := s.checkSize(which, info.Size()); err != nil {
		return nil, noRelease, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
	default:
		return nil, noRelease, requestErrorf(CodeUnsupportedMediaType, which, "only JPEG and PNG images are accepted")
	}

	img, err := s.cache.Load(path)
	if err != nil {
		return nil, noRelease, requestErrorf(CodeImageDecodeFailed, which, "%v", err)
	}
	return img, func() { s.cache.Evict(path) }, nil
}

func (s *Server) loadBase64(which, content string) (image.Image, error) {
	if i := strings.Index(content, ","); strings.HasPrefix(content, "data:") && i >= 0 {
		content = content[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content))
	if err != nil {
		return nil, requestErrorf(CodeInvalidArgument, which, "invalid base64: %v", err)
	}
	if err := s.checkSize(which, int64(len(data))); err != nil {
		return nil, err
	}

	format, err := imaging.DetectFormat(data)
	if err != nil || (format != "jpeg" && format != "png") {
		return nil, requestErrorf(CodeUnsupportedMediaType, which, "only JPEG and PNG images are accepted")
	}

	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, requestErrorf(CodeImageDecodeFailed, which, "%v", err)
	}
	return img, nil
}

func isDecodeFailure(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Code == CodeImageDecodeFailed
}

func parseSide(s string) (card.Side, error) {
	side, ok := card.ParseSide(s)
	if !ok {
		return "", requestErrorf(CodeInvalidArgument, "side", "side must be front or back, got %q", s)
	}
	return side, nil
}

func (s *Server) checkAttempt(attempt int) (int, error) {
	if attempt == 0 {
		return 1, nil
	}
	if attempt < 1 || attempt > s.cfg.MaxAttempts() {
		return 0, requestErrorf(CodeInvalidArgument, "attempt", "attempt must be between 1 and %d", s.cfg.MaxAttempts())
	}
	return attempt, nil
}

func (s *Server) requirePipeline() error {
	if s.pipeline == nil {
		return errors.New("extraction pipeline is not configured")
	}
	return nil
}

// === Extraction ===

type extractArgs struct {
	Front imageInput `json:"front"`
	Back  imageInput `json:"back"`
}

// handleExtract runs the full extraction. An image that passes validation but
// fails to decode is not an error: the result carries image_decode_failed.
func (s *Server) handleExtract(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a extractArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.requirePipeline(); err != nil {
		return nil, err
	}

	front, release, err := s.loadImage("front", a.Front)
	defer release()
	if err != nil && !isDecodeFailure(err) {
		return nil, err
	}
	back, release, err := s.loadImage("back", a.Back)
	defer release()
	if err != nil && !isDecodeFailure(err) {
		return nil, err
	}

	return s.pipeline.ProcessImages(ctx, front, back), nil
}

// === Debugging aids ===

type sideImageArgs struct {
	Image imageInput `json:"image"`
	Side  string     `json:"side"`
}

type qualityResult struct {
	Side     card.Side       `json:"side"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Quality  quality.Metrics `json:"quality"`
	Warnings []string        `json:"warnings"`
}

func (s *Server) handleAssessQuality(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sideImageArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.requirePipeline(); err != nil {
		return nil, err
	}
	side, err := parseSide(a.Side)
	if err != nil {
		return nil, err
	}
	img, release, err := s.loadImage(string(side), a.Image)
	defer release()
	if err != nil {
		return nil, err
	}

	an := s.pipeline.Analyze(ctx, side, img)
	b := img.Bounds()
	return &qualityResult{
		Side:     side,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Quality:  an.Quality,
		Warnings: an.Warnings(),
	}, nil
}

type classifyArgs struct {
	Image imageInput `json:"image"`
}

type classifyResult struct {
	classify.Classification
	Correction    roi.Correction `json:"correction"`
	PerspectiveOK bool           `json:"perspective_ok"`
	ContextScore  float64        `json:"context_score"`
	Warnings      []string       `json:"warnings"`
}

func (s *Server) handleClassifyBack(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a classifyArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.requirePipeline(); err != nil {
		return nil, err
	}
	img, release, err := s.loadImage(string(card.Back), a.Image)
	defer release()
	if err != nil {
		return nil, err
	}

	an := s.pipeline.Analyze(ctx, card.Back, img)
	var warns card.Warnings
	warns.Add(an.Warnings()...)
	if !an.Classification.Variant.Known() {
		warns.Add(card.WarnModelUnknown)
	}
	return &classifyResult{
		Classification: an.Classification,
		Correction:     an.Correction,
		PerspectiveOK:  an.Quality.PerspectiveOK,
		ContextScore:   an.ContextScore,
		Warnings:       warns.List(),
	}, nil
}

type roiOverlayArgs struct {
	Image     imageInput `json:"image"`
	Side      string     `json:"side"`
	Attempt   int        `json:"attempt"`
	Color     string     `json:"color"`
	Thickness int        `json:"thickness"`
}

type roiOverlayResult struct {
	*imaging.CropResult
	Side    card.Side          `json:"side"`
	ModelID card.Variant       `json:"model_id"`
	Attempt int                `json:"attempt"`
	Regions map[string]roi.ROI `json:"regions"`
}

func (s *Server) handleROIOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a roiOverlayArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.requirePipeline(); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = "#FF0000"
	}
	if a.Thickness == 0 {
		a.Thickness = 2
	}
	side, err := parseSide(a.Side)
	if err != nil {
		return nil, err
	}
	attempt, err := s.checkAttempt(a.Attempt)
	if err != nil {
		return nil, err
	}
	img, release, err := s.loadImage(string(side), a.Image)
	defer release()
	if err != nil {
		return nil, err
	}

	an := s.pipeline.Analyze(ctx, side, img)
	regions := s.pipeline.Regions(an, attempt)
	b := an.Image.Bounds()

	boxes := make([]imaging.LabeledRect, 0, len(regions))
	for _, name := range roi.FieldSet(regions).Names() {
		boxes = append(boxes, imaging.LabeledRect{
			Label: name,
			Rect:  regions[name].Pixels(b.Dx(), b.Dy()),
		})
	}

	encoded, err := imaging.EncodeResult(imaging.RegionOverlay(an.Image, boxes, a.Color, a.Thickness))
	if err != nil {
		return nil, err
	}
	return &roiOverlayResult{
		CropResult: encoded,
		Side:       side,
		ModelID:    an.Classification.Variant,
		Attempt:    attempt,
		Regions:    regions,
	}, nil
}

type cropFieldArgs struct {
	Image   imageInput `json:"image"`
	Side    string     `json:"side"`
	Field   string     `json:"field"`
	Attempt int        `json:"attempt"`
	Scale   float64    `json:"scale"`
}

type cropFieldResult struct {
	extract.Attempt
	Field     string              `json:"field"`
	Side      card.Side           `json:"side"`
	Image     *imaging.CropResult `json:"image"`
	OCRError  string              `json:"ocr_error,omitempty"`
	ElapsedMS int64               `json:"elapsed_ms"`
}

func (s *Server) handleCropField(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a cropFieldArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.requirePipeline(); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Scale < 0 || a.Scale > 4 {
		return nil, requestErrorf(CodeInvalidArgument, "scale", "scale must be in (0, 4]")
	}
	side, err := parseSide(a.Side)
	if err != nil {
		return nil, err
	}
	attempt, err := s.checkAttempt(a.Attempt)
	if err != nil {
		return nil, err
	}
	img, release, err := s.loadImage(string(side), a.Image)
	defer release()
	if err != nil {
		return nil, err
	}

	an := s.pipeline.Analyze(ctx, side, img)
	att, prepared, ok := s.pipeline.ReadField(ctx, an, a.Field, attempt)
	if !ok {
		names := roi.FieldSet(s.pipeline.Regions(an, attempt)).Names()
		return nil, requestErrorf(CodeInvalidArgument, "field", "%s side has no field %q (fields: %s)",
			side, a.Field, strings.Join(names, ", "))
	}

	var out image.Image = prepared
	if a.Scale != 1.0 {
		b := prepared.Bounds()
		scaled, err := imaging.Crop(prepared, b.Min.X, b.Min.Y, b.Max.X, b.Max.Y, a.Scale)
		if err != nil {
			return nil, err
		}
		out = scaled
	}
	encoded, err := imaging.EncodeResult(out)
	if err != nil {
		return nil, err
	}

	res := &cropFieldResult{
		Attempt:   att,
		Field:     a.Field,
		Side:      side,
		Image:     encoded,
		ElapsedMS: att.Elapsed.Milliseconds(),
	}
	if att.Err != nil {
		res.OCRError = att.Err.Error()
	}
	return res, nil
}

// === OCR status ===

func (s *Server) handleOCRInfo(ctx context.Context) (interface{}, error) {
	if s.ocr == nil {
		return ocr.Info{Available: false, Error: "OCR engine not configured"}, nil
	}
	return s.ocr.Info(ctx), nil
}

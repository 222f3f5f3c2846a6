package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// imageSchema describes an image given by path or base64 content.
func imageSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Absolute path to a JPEG or PNG file",
			},
			"base64": map[string]interface{}{
				"type":        "string",
				"description": "Base64-encoded JPEG or PNG content. A data URI prefix is accepted",
			},
		},
	}
}

var sideSchema = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"front", "back"},
	"description": "Which side of the card the image shows",
}

var attemptSchema = map[string]interface{}{
	"type":        "integer",
	"description": "Extraction attempt (1 = adaptive threshold, 2 = CLAHE + sharpen + Otsu, 3 = upscale + denoise + Otsu). Attempts after the first also widen the id_ine region. Default 1",
	"default":     1,
	"minimum":     1,
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: "ine_extract",
			Description: "Extract the holder's data from photographs of both sides of a Mexican INE voter card. " +
				"Returns every field with a confidence score and review flag, capture quality per side, the detected card model and warning codes. " +
				"Images must be JPEG or PNG within the configured size limits.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"front": imageSchema("Photograph of the front of the card"),
					"back":  imageSchema("Photograph of the back of the card"),
				},
				"required": []string{"front", "back"},
			},
		},

		// Debugging aids
		{
			Name:        "ine_assess_quality",
			Description: "Measure blur, glare and exposure of one card photograph and report the quality grade, whether the card outline could be rectified and the resulting warnings.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image": imageSchema("Card photograph"),
					"side":  sideSchema,
				},
				"required": []string{"image", "side"},
			},
		},
		{
			Name:        "ine_classify_back",
			Description: "Detect the security feature on the back of the card (QR cluster or PDF417 barcode), report the card model, the feature boxes and the ROI alignment derived from them.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image": imageSchema("Photograph of the back of the card"),
				},
				"required": []string{"image"},
			},
		},
		{
			Name:        "ine_roi_overlay",
			Description: "Rectify a card photograph and draw the field regions used for extraction on it. Returns a base64-encoded PNG and the normalised regions.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image":   imageSchema("Card photograph"),
					"side":    sideSchema,
					"attempt": attemptSchema,
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as hex (#RRGGBB or #RRGGBBAA). Default #FF0000",
						"default":     "#FF0000",
					},
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Outline thickness in pixels. Default 2",
						"default":     2,
					},
				},
				"required": []string{"image", "side"},
			},
		},
		{
			Name:        "ine_crop_field",
			Description: "Show exactly what the recognizer sees for one field: the preprocessed crop as a base64-encoded PNG together with the recognized text.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image": imageSchema("Card photograph"),
					"side":  sideSchema,
					"field": map[string]interface{}{
						"type":        "string",
						"description": "Field name: apellidos, nombre, domicilio or seccion on the front; id_ine or curp on the back",
					},
					"attempt": attemptSchema,
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor for the returned crop. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"image", "side", "field"},
			},
		},

		{
			Name:        "ocr_info",
			Description: "Report whether Tesseract is available, its version, the configured language and the installed language packs.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

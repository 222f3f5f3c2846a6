// Package server implements the MCP (Model Context Protocol) server for INE
// card extraction.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Extraction:
//   - ine_extract: Extract every field from the front and back photographs
//
// Debugging aids:
//   - ine_assess_quality: Blur, glare, exposure and rectification of one side
//   - ine_classify_back: Card model, security feature boxes and ROI alignment
//   - ine_roi_overlay: Field regions drawn over the rectified side
//   - ine_crop_field: Preprocessed crop and recognized text for one field
//
// Status:
//   - ocr_info: Tesseract availability and installed languages
//
// Images are given either as a file path or as base64 content. Path inputs
// are cached for the duration of the tool call that loaded them.
//
// # Error Handling
//
// Input defects are rejected before any processing with code -32602 and a
// RequestError as data:
//
//	{"error_code": "IMAGE_TOO_LARGE", "message": "...", "which": "front"}
//
// Other tool failures return code -32000 with the Go error string as data.
// Degraded photographs are never errors: ine_extract always returns a
// result, with warnings and low confidences where reading failed.
//
// # Usage
//
//	srv := server.New(cfg, p, engine, logger, version)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/ine-ocr-mcp/internal/config"
	"github.com/ironsheep/ine-ocr-mcp/internal/imaging"
	"github.com/ironsheep/ine-ocr-mcp/internal/logging"
	"github.com/ironsheep/ine-ocr-mcp/internal/ocr"
	"github.com/ironsheep/ine-ocr-mcp/internal/pipeline"
)

// ServerName is reported in the initialize handshake.
const ServerName = "ine-ocr-mcp"

// OCRInfo reports the state of the text recognition backend. *ocr.Engine
// implements it.
type OCRInfo interface {
	Info(ctx context.Context) ocr.Info
}

// Server handles MCP protocol communication
type Server struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	ocr      OCRInfo
	cache    *imaging.ImageCache
	logger   *logging.Logger
	version  string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance. A nil config uses the defaults, a
// nil info provider reports OCR as unavailable and a nil logger discards
// output.
func New(cfg *config.Config, p *pipeline.Pipeline, info OCRInfo, logger *logging.Logger, version string) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		cfg:      cfg,
		pipeline: p,
		ocr:      info,
		cache:    imaging.NewImageCache(),
		logger:   logger,
		version:  version,
	}
}

// Run serves requests from stdin until it is closed, writing responses to
// stdout.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to
// w. Requests are handled one at a time.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Base64 card photographs make for long lines.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, int(4*s.cfg.MaxImageSize)+1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", "error", err)
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", "error", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    rpcMethodNotFound,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": s.version,
			},
		},
	}
}

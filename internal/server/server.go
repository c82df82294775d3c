package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ironsheep/chroma-alpha/internal/imaging"
	"github.com/ironsheep/chroma-alpha/internal/logger"
	"github.com/ironsheep/chroma-alpha/internal/metrics"
)

// JSON-RPC 2.0 error codes used by the server.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailure    = -32000
)

// protocolVersion is the MCP revision implemented by the server.
const protocolVersion = "2024-11-05"

// maxRequestBytes bounds one JSON-RPC line on stdin.
const maxRequestBytes = 4 * 1024 * 1024

// Options configures a Server. Zero fields get usable defaults.
type Options struct {
	// Pipeline runs the keying stages; nil means a pipeline without limits.
	Pipeline *imaging.Pipeline

	// Cache holds decoded images by path; nil creates an unbounded cache.
	Cache *imaging.ImageCache

	// Metrics records chromakey_process runs; nil disables recording.
	Metrics *metrics.Metrics

	// Defaults fill in keying arguments a tool call omits.
	Defaults imaging.Options

	// Version is reported in the initialize handshake.
	Version string
}

// Server handles MCP protocol communication
type Server struct {
	pipeline *imaging.Pipeline
	cache    *imaging.ImageCache
	metrics  *metrics.Metrics
	defaults imaging.Options
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

// New creates a new MCP server instance
func New(opts Options) *Server {
	s := &Server{
		pipeline: opts.Pipeline,
		cache:    opts.Cache,
		metrics:  opts.Metrics,
		defaults: opts.Defaults,
		version:  opts.Version,
	}
	if s.pipeline == nil {
		s.pipeline = imaging.NewPipeline(imaging.PipelineOptions{})
	}
	if s.cache == nil {
		s.cache = imaging.NewImageCache(0)
	}
	if s.defaults.KeyColor == "" {
		s.defaults = imaging.DefaultOptions()
	}
	if s.version == "" {
		s.version = "dev"
	}
	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads newline-delimited JSON-RPC requests from r and writes one
// response line per request to w until r is exhausted or ctx is done.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxRequestBytes)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp *MCPResponse
		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			logger.Warn(ctx, "failed to parse request", zap.Error(err))
			resp = s.errorResponse(nil, codeParseError, "Parse error", err.Error())
		} else {
			resp = s.handleRequest(ctx, &req)
		}

		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				logger.Error(ctx, "failed to encode response", zap.Error(err))
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers.
// Notifications (requests without an id) never get a response.
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	if req.ID == nil {
		logger.Debug(ctx, "notification received", zap.String("method", req.Method))
		return nil
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
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
		return s.errorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "chroma-alpha",
				"version": s.version,
			},
		},
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/chroma-alpha/internal/imaging"
	"github.com/ironsheep/chroma-alpha/internal/logger"
	"github.com/ironsheep/chroma-alpha/internal/metrics"
)

var (
	// errInvalidArguments is returned when tool arguments cannot be decoded
	// or a required argument is missing.
	errInvalidArguments = errors.New("invalid arguments")

	// errUnknownTool is returned for a tools/call naming no known tool.
	errUnknownTool = errors.New("unknown tool")
)

// defaultSuggestCount is the number of key color candidates returned when
// chromakey_suggest_key is called without a count.
const defaultSuggestCount = 5

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "chromakey_process").
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
// Malformed or missing arguments and unknown tools return a JSON-RPC error
// with code -32602; failures while running a tool return code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	ctx = logger.WithFields(ctx, zap.String("tool", params.Name))
	start := time.Now()

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, errInvalidArguments) || errors.Is(err, errUnknownTool) {
			logger.Warn(ctx, "rejected tool call", zap.Error(err))
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		logger.Warn(ctx, "tool failed", zap.Error(err))
		return s.errorResponse(req.ID, codeToolFailure, "Tool execution failed", err.Error())
	}
	logger.Debug(ctx, "tool finished", zap.Duration("elapsed", time.Since(start)))

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
	case "image_load":
		return s.handleImageLoad(args)
	case "image_sample_color":
		return s.handleImageSampleColor(args)
	case "chromakey_suggest_key":
		return s.handleSuggestKey(args)
	case "chromakey_process":
		return s.handleChromakeyProcess(ctx, args)
	default:
		return nil, errors.Wrapf(errUnknownTool, "%q", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	resp := &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
		},
	}
	if data != "" {
		resp.Error.Data = data
	}
	return resp
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments into v. Absent arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(args)) == 0 || bytes.Equal(bytes.TrimSpace(args), []byte("null")) {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return errors.Wrapf(errInvalidArguments, "%v", err)
	}
	return nil
}

func requirePath(path string) error {
	if path == "" {
		return errors.Wrap(errInvalidArguments, "path is required")
	}
	return nil
}

// === Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type imageSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img.Image, a.X, a.Y)
}

// === Chroma Key Handlers ===

type suggestKeyArgs struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

func (s *Server) handleSuggestKey(args json.RawMessage) (interface{}, error) {
	var a suggestKeyArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = defaultSuggestCount
	}
	if a.Count < 0 {
		return nil, errors.Wrapf(errInvalidArguments, "count %d must be positive", a.Count)
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SuggestKeyColors(img.Image, a.Count)
}

// chromakeyProcessArgs uses pointers so that an explicit zero (tolerance 0
// is exact-match keying) is told apart from an omitted argument.
type chromakeyProcessArgs struct {
	Path          string   `json:"path"`
	HexColor      *string  `json:"hex_color"`
	Tolerance     *float64 `json:"tolerance"`
	ChokePixels   *int     `json:"choke_pixels"`
	FeatherPixels *int     `json:"feather_pixels"`
	OutputPath    string   `json:"output_path"`
}

func (a chromakeyProcessArgs) options(defaults imaging.Options) imaging.Options {
	opts := defaults
	if a.HexColor != nil {
		opts.KeyColor = *a.HexColor
	}
	if a.Tolerance != nil {
		opts.Tolerance = *a.Tolerance
	}
	if a.ChokePixels != nil {
		opts.ChokePixels = *a.ChokePixels
	}
	if a.FeatherPixels != nil {
		opts.FeatherPixels = *a.FeatherPixels
	}
	return opts
}

func (s *Server) handleChromakeyProcess(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chromakeyProcessArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	opts := a.options(s.defaults)

	start := time.Now()
	result, pixels, err := s.chromakey(ctx, a.Path, a.OutputPath, opts)
	s.metrics.Observe(metrics.SurfaceMCP, err, time.Since(start), pixels)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// chromakey keys the image at path and either writes it to outputPath or
// returns it inline as base64.
func (s *Server) chromakey(ctx context.Context, path, outputPath string, opts imaging.Options) (*imaging.KeyImageResult, int, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, 0, err
	}

	res, err := s.pipeline.Key(ctx, img.Image, opts)
	if err != nil {
		return nil, 0, err
	}
	pixels := img.Width * img.Height

	if outputPath == "" {
		out, err := imaging.NewKeyImageResult(res, s.pipeline.Compression())
		if err != nil {
			return nil, 0, err
		}
		return out, pixels, nil
	}

	var buf bytes.Buffer
	if err := imaging.EncodePNG(&buf, res.RGBA, s.pipeline.Compression()); err != nil {
		return nil, 0, err
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return nil, 0, fmt.Errorf("failed to write output: %w", err)
	}
	logger.Info(ctx, "keyed image written",
		zap.String("input", path),
		zap.String("output", outputPath),
		zap.Int("bytes", buf.Len()),
	)

	return &imaging.KeyImageResult{
		Width:      img.Width,
		Height:     img.Height,
		OutputPath: outputPath,
		MimeType:   "image/png",
		KeyColor:   res.Key.Hex(),
		Mask:       res.Stats,
	}, pixels, nil
}

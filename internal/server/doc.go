// Package server implements the MCP (Model Context Protocol) server for chroma keying.
//
// The server speaks JSON-RPC 2.0 over stdio:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Logs go to stderr through the logger package so they never interleave
// with protocol output.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// Notifications (any message without an id, e.g. notifications/initialized
// or notifications/cancelled) are never answered.
//
// # Available Tools
//
//   - image_load: Load image and get metadata
//   - image_sample_color: Get color at pixel
//   - chromakey_suggest_key: Propose key colors from the image border
//   - chromakey_process: Key out a backdrop and return or write an RGBA PNG
//
// Keying arguments a call omits fall back to the configured defaults.
// An explicit tolerance of 0 is honored and keys exact matches only.
//
// # Image Caching
//
// Decoded images are cached by path and reused across tool calls. The cache
// enforces the same pixel limit as the keying pipeline.
//
// # Error Handling
//
//   - -32700: the request line is not valid JSON
//   - -32601: unknown method
//   - -32602: malformed tools/call params, bad tool arguments or unknown tool
//   - -32000: the tool ran and failed (unreadable file, bad key color, too many pixels)
//
// The error data field carries the Go error string.
package server

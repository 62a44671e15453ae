// Package server implements the MCP (Model Context Protocol) server that
// exposes moon detection and enhancement to MCP-compatible clients.
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
//   - image_info: Load a photo and report its metadata
//   - detect_moon: Locate the lunar disk and score detection confidence
//   - enhance_moon: Run the confidence-gated enhancement pipeline; falls
//     back to conservative global edits when detection confidence is too
//     low to trust the masks
//
// # Caching
//
// Decoded photos and detection results are cached by path for the lifetime
// of the process, so a detect call followed by several enhance calls at
// different presets reads and analyzes the file once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000 (tool execution failure) or standard JSON-RPC codes, a
// human-readable message, and the Go error string as data. A moon that is
// not found is not an error: detect_moon reports it in the result body.
package server

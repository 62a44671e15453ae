// Package cli implements the moonshine command line interface: moon
// detection, enhancement, the MCP server mode, and version reporting.
//
// All diagnostics go to stderr; stdout carries only command output (JSON
// results, or the MCP protocol in serve mode), so the CLI composes with
// pipes and MCP clients alike.
package cli

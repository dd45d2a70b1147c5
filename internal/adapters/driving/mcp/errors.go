// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants ingest documents and ask grounded questions
// over the local index.
package mcp

import "errors"

// Required-port errors surfaced at construction time.
var (
	ErrMissingRetrieverService = errors.New("mcp: retriever service is required")
	ErrMissingAnswerService    = errors.New("mcp: answer service is required")
)

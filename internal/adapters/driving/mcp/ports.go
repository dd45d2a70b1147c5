package mcp

import (
	"github.com/scribelabs/askdoc/internal/core/ports/driven"
	"github.com/scribelabs/askdoc/internal/core/ports/driving"
)

// Ports aggregates the port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retriever handles ingestion and similarity retrieval.
	Retriever driving.RetrieverService

	// Answer composes grounded answers from retrieval results.
	Answer driving.AnswerService

	// Documents exposes stored documents as MCP resources. Optional.
	Documents driven.DocumentStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retriever == nil {
		return ErrMissingRetrieverService
	}
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	// Documents is optional: resources degrade to empty listings.
	return nil
}

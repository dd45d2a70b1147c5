package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/core/ports/driving"
)

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	DocumentID string `json:"document_id" jsonschema:"the ID of a stored document to chunk, embed and index"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID      string `json:"document_id"`
	SegmentsCreated int    `json:"segments_created"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query       string   `json:"query" jsonschema:"the question to answer from the indexed documents"`
	K           int      `json:"k,omitempty" jsonschema:"maximum number of context segments to retrieve (default 5)"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"restrict retrieval to these document IDs"`
	Style       string   `json:"style,omitempty" jsonschema:"answer style: concise, detailed, academic or simple"`
	Context     string   `json:"context,omitempty" jsonschema:"optional summary of prior conversation turns"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string           `json:"answer"`
	Style     string           `json:"style"`
	Citations []CitationOutput `json:"citations"`
}

// CitationOutput is a single citation in an ask response.
type CitationOutput struct {
	SegmentID  string  `json:"segment_id"`
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
}

// StatsInput is the input schema for the index_stats tool.
type StatsInput struct{}

// StatsOutput is the output schema for the index_stats tool.
type StatsOutput struct {
	SegmentCount  int    `json:"segment_count"`
	DocumentCount int    `json:"document_count"`
	Backend       string `json:"index_backend"`
	ModelVersion  string `json:"model_version"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Chunk, embed and index a stored document",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question grounded in the indexed documents, with citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_stats",
		Description: "Report vector index size and identity",
	}, s.handleStats)
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	n, err := s.ports.Retriever.Ingest(ctx, input.DocumentID)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		DocumentID:      input.DocumentID,
		SegmentsCreated: n,
	}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	style, err := domain.ParseAnswerStyle(input.Style)
	if err != nil {
		return nil, AskOutput{}, err
	}

	result, err := s.ports.Retriever.Query(ctx, input.Query, domain.QueryOptions{
		K:           input.K,
		DocumentIDs: input.DocumentIDs,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	answer, err := s.ports.Answer.Compose(ctx, input.Query, result, driving.ComposeOptions{
		Style:      style,
		PriorTurns: input.Context,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:    answer.Text,
		Style:     string(answer.Style),
		Citations: make([]CitationOutput, len(answer.Citations)),
	}
	for i, c := range answer.Citations {
		output.Citations[i] = CitationOutput{
			SegmentID:  c.SegmentID,
			DocumentID: c.DocumentID,
			Score:      c.Score,
		}
	}

	return nil, output, nil
}

// handleStats handles the index_stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Retriever.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}

	return nil, StatsOutput{
		SegmentCount:  stats.SegmentCount,
		DocumentCount: stats.DocumentCount,
		Backend:       stats.Backend,
		ModelVersion:  stats.ModelVersion,
	}, nil
}

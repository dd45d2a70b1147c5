package driving

import (
	"context"

	"github.com/scribelabs/askdoc/internal/core/domain"
)

// ComposeOptions configures answer generation.
type ComposeOptions struct {
	// Style selects the answer tone from the fixed style set.
	Style domain.AnswerStyle

	// PriorTurns is an optional summary of earlier conversation turns.
	// It is prepended to the prompt unmodified; the core does not
	// manage turn history.
	PriorTurns string
}

// AnswerService composes grounded answers from retrieval results.
type AnswerService interface {
	// Compose builds a bounded prompt from the query and hits, invokes
	// the LLM and returns the answer with citations for exactly the
	// segments the model saw.
	Compose(ctx context.Context, queryText string, result domain.RetrievalResult, opts ComposeOptions) (*domain.Answer, error)
}

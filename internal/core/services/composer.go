package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/core/ports/driven"
	"github.com/scribelabs/askdoc/internal/core/ports/driving"
	"github.com/scribelabs/askdoc/internal/logger"
)

// Ensure ComposerService implements the interface.
var _ driving.AnswerService = (*ComposerService)(nil)

// Default composition parameters.
const (
	// DefaultPromptBudget is the maximum prompt length in characters.
	DefaultPromptBudget = 12000

	// DefaultTemperature is the sampling temperature.
	DefaultTemperature = 0.7
)

// styleInstructions maps each answer style to its prompt instruction.
var styleInstructions = map[domain.AnswerStyle]string{
	domain.StyleConcise:  "Answer concisely in a few sentences, using only the provided context.",
	domain.StyleDetailed: "Answer thoroughly with all relevant details from the provided context.",
	domain.StyleAcademic: "Answer in a formal academic register, citing the context precisely.",
	domain.StyleSimple:   "Answer in plain language a non-expert can follow, using only the provided context.",
}

// ComposerOptions tunes answer composition.
type ComposerOptions struct {
	// PromptBudget is the maximum prompt length in characters.
	// Zero means the default.
	PromptBudget int

	// Temperature is the sampling temperature. Zero means the default.
	Temperature float64

	// MaxTokens bounds the generated answer length. Zero leaves the
	// model default in place.
	MaxTokens int
}

// ComposerService builds grounded prompts and generates answers.
type ComposerService struct {
	docStore driven.DocumentStore
	llm      driven.LLMService
	opts     ComposerOptions
}

// NewComposerService creates a composer service.
func NewComposerService(docStore driven.DocumentStore, llm driven.LLMService, opts ComposerOptions) *ComposerService {
	if opts.PromptBudget <= 0 {
		opts.PromptBudget = DefaultPromptBudget
	}
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultTemperature
	}

	return &ComposerService{
		docStore: docStore,
		llm:      llm,
		opts:     opts,
	}
}

// promptSegment is a hydrated hit that survived budget selection.
type promptSegment struct {
	hit  domain.RetrievalHit
	text string
}

// Compose builds a bounded prompt from the query and hits, invokes the
// LLM and returns the answer with citations for exactly the segments
// the model saw. On a transient LLM failure it retries once with half
// the segments before giving up with domain.ErrAnswerGeneration.
func (s *ComposerService) Compose(
	ctx context.Context, queryText string, result domain.RetrievalResult, opts driving.ComposeOptions,
) (*domain.Answer, error) {
	logger.Section("Compose")

	if strings.TrimSpace(queryText) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	style := opts.Style
	if style == "" {
		style = domain.StyleConcise
	}
	if _, ok := styleInstructions[style]; !ok {
		return nil, fmt.Errorf("%w: unknown answer style %q", domain.ErrInvalidInput, style)
	}

	segments, err := s.hydrate(ctx, result.Hits)
	if err != nil {
		return nil, err
	}
	logger.Debug("Hydrated %d of %d hits", len(segments), len(result.Hits))

	included := s.fitToBudget(segments, queryText, style, opts.PriorTurns)
	logger.Debug("Prompt includes %d segments after budget", len(included))

	text, included, err := s.generate(ctx, queryText, included, style, opts.PriorTurns)
	if err != nil {
		return nil, err
	}

	citations := make([]domain.Citation, len(included))
	for i, seg := range included {
		citations[i] = domain.Citation{
			SegmentID:  seg.hit.SegmentID,
			DocumentID: seg.hit.DocumentID,
			Score:      seg.hit.Score,
		}
	}

	return &domain.Answer{
		Text:        text,
		Citations:   citations,
		Style:       style,
		Temperature: s.opts.Temperature,
	}, nil
}

// generate invokes the LLM, retrying once with half the segments on a
// transient failure. Returns the answer text and the segments that were
// actually in the final prompt.
func (s *ComposerService) generate(
	ctx context.Context, queryText string, included []promptSegment,
	style domain.AnswerStyle, priorTurns string,
) (string, []promptSegment, error) {
	prompt := s.buildPrompt(queryText, included, style, priorTurns)
	logger.Debug("Prompt length: %d chars", len(prompt))

	genOpts := driven.GenerateOptions{
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	}

	text, err := s.llm.Generate(ctx, prompt, genOpts)
	if err == nil {
		return text, included, nil
	}
	if !retryableGeneration(err) || len(included) < 2 {
		return "", nil, fmt.Errorf("%w: %v", domain.ErrAnswerGeneration, err)
	}

	// Retry once with the lower-similarity half of the context dropped.
	logger.Warn("Generation failed (%v), retrying with shorter prompt", err)
	half := included[:(len(included)+1)/2]
	prompt = s.buildPrompt(queryText, half, style, priorTurns)

	text, err = s.llm.Generate(ctx, prompt, genOpts)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", domain.ErrAnswerGeneration, err)
	}
	return text, half, nil
}

// retryableGeneration reports whether a shorter prompt is worth trying.
func retryableGeneration(err error) bool {
	return errors.Is(err, domain.ErrLLMTimeout) ||
		errors.Is(err, domain.ErrLLMUnavailable) ||
		errors.Is(err, domain.ErrMalformedResponse)
}

// hydrate loads segment text for each hit, skipping segments deleted
// since retrieval.
func (s *ComposerService) hydrate(ctx context.Context, hits []domain.RetrievalHit) ([]promptSegment, error) {
	segments := make([]promptSegment, 0, len(hits))
	for _, hit := range hits {
		seg, err := s.docStore.GetSegment(ctx, hit.SegmentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get segment %s: %w", hit.SegmentID, err)
		}
		segments = append(segments, promptSegment{hit: hit, text: seg.Text})
	}
	return segments, nil
}

// fitToBudget selects the segments that fit the prompt budget. Hits
// arrive in descending similarity order; the lowest-similarity
// segments are dropped first. The last kept segment may be truncated,
// but only at a sentence boundary.
func (s *ComposerService) fitToBudget(
	segments []promptSegment, queryText string, style domain.AnswerStyle, priorTurns string,
) []promptSegment {
	overhead := len(s.buildPrompt(queryText, nil, style, priorTurns))
	budget := s.opts.PromptBudget - overhead
	if budget <= 0 {
		return nil
	}

	var included []promptSegment
	used := 0
	for _, seg := range segments {
		cost := len(seg.text) + segmentOverhead
		if used+cost <= budget {
			included = append(included, seg)
			used += cost
			continue
		}

		// Partial room left: keep whole sentences that fit, drop the rest.
		remaining := budget - used - segmentOverhead
		if truncated := truncateAtSentence(seg.text, remaining); truncated != "" {
			seg.text = truncated
			included = append(included, seg)
		}
		break
	}

	return included
}

// segmentOverhead approximates the per-segment framing in the prompt.
const segmentOverhead = 16

// buildPrompt assembles the final prompt. Context segments appear in
// descending similarity order, numbered so the model can refer to them.
func (s *ComposerService) buildPrompt(
	queryText string, included []promptSegment, style domain.AnswerStyle, priorTurns string,
) string {
	var b strings.Builder

	if priorTurns != "" {
		b.WriteString("Previous conversation:\n")
		b.WriteString(priorTurns)
		b.WriteString("\n\n")
	}

	b.WriteString(styleInstructions[style])
	b.WriteString("\n\nContext:\n")

	for i, seg := range included {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, seg.text)
	}

	b.WriteString("Question: ")
	b.WriteString(queryText)

	return b.String()
}

// truncateAtSentence returns the longest prefix of text made of whole
// sentences that fits in limit characters. Returns "" when not even
// the first sentence fits.
func truncateAtSentence(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(text) <= limit {
		return text
	}

	var b strings.Builder
	for _, sentence := range splitSentences(text) {
		// +1 for the joining space.
		cost := len(sentence)
		if b.Len() > 0 {
			cost++
		}
		if b.Len()+cost > limit {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(sentence)
	}
	return b.String()
}

// splitSentences splits content into sentences by common terminators.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

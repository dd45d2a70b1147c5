package domain

// RetrievalHit is a single ranked candidate segment for a query.
type RetrievalHit struct {
	// SegmentID is the matched segment.
	SegmentID string

	// DocumentID is the segment's owning document.
	DocumentID string

	// Score is the similarity between the query and segment vectors.
	// Inner product on unit-normalised vectors, i.e. cosine similarity.
	Score float64
}

// RetrievalResult is the ordered candidate list produced for one query.
// It is ephemeral: scoped to a single request, never persisted.
type RetrievalResult struct {
	// Hits are ordered by descending similarity.
	Hits []RetrievalHit
}

// QueryOptions configures a retrieval query.
type QueryOptions struct {
	// K is the maximum number of hits to return.
	K int

	// DocumentIDs restricts the search to these documents.
	// Empty means the whole index.
	DocumentIDs []string
}

// AnswerStyle selects the tone of a generated answer.
type AnswerStyle string

// Supported answer styles.
const (
	StyleConcise  AnswerStyle = "concise"
	StyleDetailed AnswerStyle = "detailed"
	StyleAcademic AnswerStyle = "academic"
	StyleSimple   AnswerStyle = "simple"
)

// ParseAnswerStyle validates a style string.
// Returns ErrInvalidInput for anything outside the fixed set.
func ParseAnswerStyle(s string) (AnswerStyle, error) {
	switch AnswerStyle(s) {
	case StyleConcise, StyleDetailed, StyleAcademic, StyleSimple:
		return AnswerStyle(s), nil
	case "":
		return StyleConcise, nil
	default:
		return "", ErrInvalidInput
	}
}

// Citation points an answer back at a segment the model actually saw.
type Citation struct {
	// SegmentID is the cited segment.
	SegmentID string

	// DocumentID is the segment's owning document.
	DocumentID string

	// Score is the retrieval similarity of the cited segment.
	Score float64
}

// Answer is a generated answer with provenance.
// Ephemeral: the core does not persist answers.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Citations lists the segments included in the final prompt,
	// ordered by descending similarity. Segments dropped during prompt
	// truncation never appear here.
	Citations []Citation

	// Style is the style the answer was generated with.
	Style AnswerStyle

	// Temperature is the sampling temperature used.
	Temperature float64
}

// IndexStats describes the state of the vector index for observability.
type IndexStats struct {
	// SegmentCount is the number of indexed segments.
	SegmentCount int

	// DocumentCount is the number of distinct documents with at least
	// one indexed segment.
	DocumentCount int

	// Backend names the index implementation ("bruteforce", "ivf").
	Backend string

	// ModelVersion is the embedding model version the index was built with.
	ModelVersion string
}

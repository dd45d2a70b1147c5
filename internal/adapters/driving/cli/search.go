package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scribelabs/askdoc/internal/core/domain"
)

var (
	searchK    int
	searchDocs []string
	searchJSON bool
)

const snippetLength = 160

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the indexed documents without generating an answer",
	Long: `Retrieves the most relevant segments for the query and prints them
ranked by similarity. Useful for inspecting what "ask" would use as context.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "k", "k", 5, "number of segments to retrieve")
	searchCmd.Flags().StringSliceVar(&searchDocs, "docs", nil, "restrict search to these document IDs")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

type searchResult struct {
	SegmentID  string  `json:"segment_id"`
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrieverService == nil {
		return errors.New("services not configured")
	}

	ctx := cmd.Context()
	result, err := retrieverService.Query(ctx, query, domain.QueryOptions{
		K:           searchK,
		DocumentIDs: searchDocs,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	results := make([]searchResult, 0, len(result.Hits))
	for _, hit := range result.Hits {
		r := searchResult{
			SegmentID:  hit.SegmentID,
			DocumentID: hit.DocumentID,
			Score:      hit.Score,
		}
		if documentStore != nil {
			seg, err := documentStore.GetSegment(ctx, hit.SegmentID)
			if err == nil {
				r.Snippet = snippet(seg.Text)
			} else if !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("loading segment %s: %w", hit.SegmentID, err)
			}
		}
		results = append(results, r)
	}

	if searchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No results.")
		return nil
	}

	for i, r := range results {
		cmd.Printf("[%d] %.2f  document %s, segment %s\n", i+1, r.Score, r.DocumentID, r.SegmentID)
		if r.Snippet != "" {
			cmd.Printf("    %s\n", r.Snippet)
		}
	}
	return nil
}

// snippet collapses whitespace and trims text for single-line display.
func snippet(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if len(collapsed) <= snippetLength {
		return collapsed
	}
	return collapsed[:snippetLength] + "..."
}

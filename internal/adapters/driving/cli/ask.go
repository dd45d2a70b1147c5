package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/core/ports/driving"
)

var (
	askK       int
	askStyle   string
	askContext string
	askDocs    []string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the indexed documents",
	Long: `Retrieves the most relevant segments for the question and generates
a grounded answer with citations back to the exact passages used.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askK, "k", "k", 5, "number of context segments to retrieve")
	askCmd.Flags().StringVar(&askStyle, "style", "", "answer style: concise, detailed, academic or simple")
	askCmd.Flags().StringVar(&askContext, "context", "", "summary of prior conversation turns")
	askCmd.Flags().StringSliceVar(&askDocs, "docs", nil, "restrict retrieval to these document IDs")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	if retrieverService == nil || answerService == nil {
		return errors.New("services not configured")
	}

	style, err := domain.ParseAnswerStyle(askStyle)
	if err != nil {
		return fmt.Errorf("invalid --style %q: %w", askStyle, err)
	}

	ctx := cmd.Context()
	result, err := retrieverService.Query(ctx, question, domain.QueryOptions{
		K:           askK,
		DocumentIDs: askDocs,
	})
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	answer, err := answerService.Compose(ctx, question, result, driving.ComposeOptions{
		Style:      style,
		PriorTurns: askContext,
	})
	if err != nil {
		return fmt.Errorf("answer generation failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	return outputAnswerText(cmd, answer)
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer) error {
	cmd.Println(answer.Text)

	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, c := range answer.Citations {
			cmd.Printf("  [%d] document %s, segment %s (%.2f)\n", i+1, c.DocumentID, c.SegmentID, c.Score)
		}
	}

	return nil
}

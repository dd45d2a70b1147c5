package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector index statistics",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output stats as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if retrieverService == nil {
		return errors.New("services not configured")
	}

	stats, err := retrieverService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading index stats: %w", err)
	}

	if statsJSON {
		data, err := json.MarshalIndent(map[string]any{
			"segment_count":  stats.SegmentCount,
			"document_count": stats.DocumentCount,
			"index_backend":  stats.Backend,
			"model_version":  stats.ModelVersion,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Segments:  %d\n", stats.SegmentCount)
	cmd.Printf("Documents: %d\n", stats.DocumentCount)
	cmd.Printf("Backend:   %s\n", stats.Backend)
	cmd.Printf("Model:     %s\n", stats.ModelVersion)
	return nil
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var listOwner string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listOwner, "owner", "", "only list documents for this owner")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if documentStore == nil {
		return errors.New("services not configured")
	}

	docs, err := documentStore.ListDocuments(cmd.Context(), listOwner)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents stored.")
		return nil
	}

	for _, doc := range docs {
		title := doc.Title
		if title == "" {
			title = "(untitled)"
		}
		cmd.Printf("  %s  %s\n", doc.ID, title)
	}
	return nil
}

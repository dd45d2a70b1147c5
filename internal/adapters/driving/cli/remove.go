package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove [document-id]",
	Short: "Remove a document and its index entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	if documentStore == nil {
		return errors.New("services not configured")
	}

	id := args[0]

	// Index entries follow via the store's deletion subscription.
	if err := documentStore.DeleteDocument(cmd.Context(), id); err != nil {
		return fmt.Errorf("removing document %s: %w", id, err)
	}

	cmd.Printf("Removed document %s\n", id)
	return nil
}

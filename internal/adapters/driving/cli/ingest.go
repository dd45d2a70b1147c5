package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/scribelabs/askdoc/internal/core/domain"
)

var (
	ingestOwner string
	ingestTitle string
	ingestID    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a plain-text document",
	Long: `Reads a plain-text file, stores it as a document and indexes it for
retrieval. Re-ingesting with the same --id replaces the document's
segments and vectors without duplicates.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestOwner, "owner", "", "document owner for scoped listing")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (default: file name)")
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document ID (default: random)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if retrieverService == nil || documentStore == nil {
		return errors.New("services not configured")
	}

	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return fmt.Errorf("%w: %s has no text content", domain.ErrInvalidInput, path)
	}

	title := ingestTitle
	if title == "" {
		title = filepath.Base(path)
	}
	id := ingestID
	if id == "" {
		id = uuid.NewString()
	}

	ctx := cmd.Context()
	doc := &domain.Document{
		ID:      id,
		Owner:   ingestOwner,
		Title:   title,
		Content: string(content),
		Metadata: map[string]any{
			"source_path": path,
		},
	}
	if err := documentStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	n, err := retrieverService.Ingest(ctx, id)
	if err != nil {
		return fmt.Errorf("ingesting document: %w", err)
	}

	cmd.Printf("Ingested %s as %s (%d segments)\n", path, id, n)
	return nil
}

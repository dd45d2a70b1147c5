package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/logger"
)

var watchOwner string

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and keep it ingested",
	Long: `Watches a directory for changes. New and modified files are
re-ingested; deleted files are removed from the store and index.
Document IDs are derived from the file path, so edits replace the
existing segments instead of accumulating duplicates.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchOwner, "owner", "", "owner recorded on ingested documents")
	rootCmd.AddCommand(watchCmd)
}

// documentIDForPath derives a stable document ID from a file path.
func documentIDForPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String()
}

// watchable filters out directories, hidden files and obvious non-text.
func watchable(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".rst", "":
		return true
	default:
		return false
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	if retrieverService == nil || documentStore == nil {
		return errors.New("services not configured")
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	// Ingest what's already there so the index starts complete.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	ctx := cmd.Context()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if watchable(path) {
			ingestWatchedFile(ctx, cmd, path)
		}
	}

	cmd.Printf("Watching %s (ctrl-c to stop)\n", dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watchable(event.Name) {
				continue
			}

			switch {
			case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
				ingestWatchedFile(ctx, cmd, event.Name)

			case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
				removeWatchedFile(ctx, cmd, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

func ingestWatchedFile(ctx context.Context, cmd *cobra.Command, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Skipping %s: %v", path, err)
		return
	}
	if strings.TrimSpace(string(content)) == "" {
		logger.Debug("Skipping %s: no text content", path)
		return
	}

	id := documentIDForPath(path)
	doc := &domain.Document{
		ID:      id,
		Owner:   watchOwner,
		Title:   filepath.Base(path),
		Content: string(content),
		Metadata: map[string]any{
			"source_path": path,
		},
	}
	if err := documentStore.SaveDocument(ctx, doc); err != nil {
		logger.Error("Saving %s failed: %v", path, err)
		return
	}

	n, err := retrieverService.Ingest(ctx, id)
	if err != nil {
		logger.Error("Ingesting %s failed: %v", path, err)
		return
	}
	cmd.Printf("Ingested %s (%d segments)\n", path, n)
}

func removeWatchedFile(ctx context.Context, cmd *cobra.Command, path string) {
	id := documentIDForPath(path)
	if err := documentStore.DeleteDocument(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return
		}
		logger.Error("Removing %s failed: %v", path, err)
		return
	}
	cmd.Printf("Removed %s\n", path)
}

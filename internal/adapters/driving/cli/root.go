// Package cli implements the command-line interface.
package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/scribelabs/askdoc/internal/core/ports/driven"
	"github.com/scribelabs/askdoc/internal/core/ports/driving"
	"github.com/scribelabs/askdoc/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services injected by the composition root before Execute.
var (
	retrieverService driving.RetrieverService
	answerService    driving.AnswerService
	documentStore    driven.DocumentStore
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "askdoc",
	Short: "Ask questions about your documents",
	Long: `askdoc ingests plain-text documents, indexes them for semantic
search and answers questions grounded in their content, with citations
back to the exact passages used.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Services bundles everything the commands need.
type Services struct {
	Retriever driving.RetrieverService
	Answer    driving.AnswerService
	Documents driven.DocumentStore
}

// SetServices injects the service implementations.
// Must be called before Execute.
func SetServices(s Services) {
	retrieverService = s.Retriever
	answerService = s.Answer
	documentStore = s.Documents
}

// SetQueryDefaults applies the configured default k to the query
// commands. Must be called before Execute; an explicit --k still wins.
func SetQueryDefaults(k int) {
	if k <= 0 {
		return
	}
	for _, cmd := range []*cobra.Command{askCmd, searchCmd} {
		f := cmd.Flags().Lookup("k")
		f.DefValue = strconv.Itoa(k)
		_ = f.Value.Set(f.DefValue)
	}
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context, so
// long-running commands stop on cancellation.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

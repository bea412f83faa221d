// Package cli provides the command-line interface for govqa.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mehulvora/govqa-go/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string
	userFlag  string

	// API client, created before every command runs
	api *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "govqa",
	Short: "Ask questions over scanned government documents",
	Long: `Govqa is a terminal client for the govqa server: a RAG pipeline over
scanned government documents with year-precise, citation-bearing answers.

Conversations are keyed by a user ID. The CLI remembers yours in a local
session file, so repeated questions continue the same conversation.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		api = client.New(serverURL)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "server URL (default $GOVQA_SERVER_URL or http://localhost:8000)")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "conversation user ID (default from session file)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(statsCmd)
}

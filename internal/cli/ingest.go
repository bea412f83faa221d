package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var ingestNoWait bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <dump-file>",
	Short: "Index an OCR text dump on the server",
	Long: `Start a server-side ingestion of a page-marked OCR text dump.

The path is resolved on the SERVER, not this machine. Ingestion runs as a
background job; by default the command follows it with a progress bar.

Examples:
  govqa ingest /data/combined_output.txt
  govqa ingest /data/combined_output.txt --no-wait`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestNoWait, "no-wait", false, "start the job and return immediately")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !filepath.IsAbs(path) {
		fmt.Printf("Note: %q is relative and will be resolved on the server.\n", path)
	}

	jobID, err := api.StartIngest(context.Background(), path)
	if err != nil {
		return fmt.Errorf("start ingestion: %w", err)
	}

	if ingestNoWait {
		fmt.Printf("Ingestion started. Job ID: %s\nUse 'govqa jobs %s' to check status.\n", jobID, jobID)
		return nil
	}

	return runJobProgress(api, jobID)
}

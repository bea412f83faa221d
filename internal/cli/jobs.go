package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mehulvora/govqa-go/internal/jobs"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs [job-id]",
	Short: "List server jobs or show one job",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if len(args) == 1 {
			job, err := api.GetJob(ctx, args[0])
			if err != nil {
				return fmt.Errorf("fetch job: %w", err)
			}
			printJob(*job)
			return nil
		}

		all, err := api.ListJobs(ctx)
		if err != nil {
			return fmt.Errorf("list jobs: %w", err)
		}
		if len(all) == 0 {
			fmt.Println("No jobs.")
			return nil
		}
		for _, job := range all {
			printJob(job)
		}
		return nil
	},
}

func printJob(job jobs.Job) {
	line := fmt.Sprintf("%s  %-9s %-10s %d/%d  started %s",
		job.ID, job.Status, job.Kind, job.Progress, job.Total,
		job.StartedAt.Format(time.RFC3339))
	if job.Error != "" {
		line += "  error: " + job.Error
	}
	fmt.Println(line)
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List indexed documents and their chunk counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := api.ListDocs(context.Background())
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		if len(docs) == 0 {
			fmt.Println("No documents indexed. Run 'govqa ingest' first.")
			return nil
		}
		for _, d := range docs {
			fmt.Printf("%-40s %d chunks\n", d.DocName, d.Count)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server runtime statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := api.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("fetch stats: %w", err)
		}
		fmt.Println(string(raw))
		return nil
	},
}

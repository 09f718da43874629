package aidoccli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidoc-labs/aidoc-go/internal/api"
	"github.com/aidoc-labs/aidoc-go/internal/jobsync"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect background ingestion jobs",
}

var (
	jobsLimit         int
	jobsOffset        int
	jobsWatchInterval time.Duration
)

var jobsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recent ingestion jobs",
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		jobs, err := client.ListIngestionJobs(cmd.Context(), jobsLimit, jobsOffset)
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		if err := writeOutput(cmd, jobs); err != nil {
			exitWithError(cmd, err)
			return
		}
		if outputFormat == "json" {
			return
		}
		tw := newTable()
		fmt.Fprintf(tw, "ID\tDOCUMENT\tSTATUS\tSTARTED\tFINISHED\n")
		for _, job := range jobs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				shortID(job.ID),
				shortID(job.DocumentID),
				coloredStatus(job.Status),
				formatTimestamp(job.StartedAt),
				formatTimestamp(job.FinishedAt))
		}
		flushTable(tw)
	},
}

var jobsGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Describe an ingestion job",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		job, err := client.GetIngestionJob(cmd.Context(), args[0])
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		if err := writeOutput(cmd, job); err != nil {
			exitWithError(cmd, err)
			return
		}
		if outputFormat == "json" {
			return
		}
		printIngestionJob(job)
	},
}

var jobsWatchCmd = &cobra.Command{
	Use:   "watch <job-id...>",
	Short: "Poll ingestion jobs until they finish",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		seeds := make([]jobsync.Job, 0, len(args))
		for _, id := range args {
			seeds = append(seeds, jobsync.Job{ID: id, Kind: jobsync.KindIngestion})
		}
		if err := watchJobs(cmd, client, seeds, jobsWatchInterval); err != nil {
			exitWithError(cmd, err)
		}
	},
}

func init() {
	jobsListCmd.Flags().IntVar(&jobsLimit, "limit", 20, "Maximum jobs to return")
	jobsListCmd.Flags().IntVar(&jobsOffset, "offset", 0, "Offset into the job list")
	jobsWatchCmd.Flags().DurationVar(&jobsWatchInterval, "interval", 0, "Poll interval (default from AIDOC_POLL_INTERVAL)")
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsGetCmd)
	jobsCmd.AddCommand(jobsWatchCmd)
}

func printIngestionJob(job *api.IngestionJob) {
	tw := newTable()
	fmt.Fprintf(tw, "Field\tValue\n")
	fmt.Fprintf(tw, "ID\t%s\n", job.ID)
	fmt.Fprintf(tw, "Document\t%s\n", job.DocumentID)
	fmt.Fprintf(tw, "Status\t%s\n", coloredStatus(job.Status))
	fmt.Fprintf(tw, "Created\t%s\n", formatTimestamp(job.CreatedAt))
	fmt.Fprintf(tw, "Started\t%s\n", formatTimestamp(job.StartedAt))
	fmt.Fprintf(tw, "Finished\t%s\n", formatTimestamp(job.FinishedAt))
	if job.Error != "" {
		fmt.Fprintf(tw, "Error\t%s\n", job.Error)
	}
	flushTable(tw)
}

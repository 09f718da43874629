package aidoccli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidoc-labs/aidoc-go/internal/api"
	"github.com/aidoc-labs/aidoc-go/internal/jobsync"
)

var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Run and inspect analysis tasks over your documents",
}

var (
	analysisTaskType      string
	analysisQuestion      string
	analysisDocumentIDs   []string
	analysisMaxChunks     int
	analysisFollow        bool
	analysisLimit         int
	analysisOffset        int
	analysisWatchInterval time.Duration
)

var analysisRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an analysis task",
	Long: `Run starts a background analysis over the selected documents. Task types
are defined by the backend; summary and question answering ship by default.
The command returns the job id immediately unless --follow is set.`,
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		job, err := client.StartAnalysis(cmd.Context(), api.AnalysisRequest{
			TaskType:        analysisTaskType,
			Question:        analysisQuestion,
			DocumentIDs:     analysisDocumentIDs,
			MaxChunksPerDoc: analysisMaxChunks,
		})
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Analysis job %s started (%s).\n", shortID(job.ID), job.TaskType)
		if !analysisFollow {
			fmt.Fprintf(cmd.OutOrStdout(), "Follow it with: aidoc analysis watch %s\n", job.ID)
			return
		}
		seed := jobsync.Job{ID: job.ID, Kind: jobsync.KindAnalysis, TaskType: job.TaskType, Status: job.Status}
		if err := watchJobs(cmd, client, []jobsync.Job{seed}, analysisWatchInterval); err != nil {
			exitWithError(cmd, err)
			return
		}
		final, err := client.GetAnalysisJob(cmd.Context(), job.ID)
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		printAnalysisJob(cmd, final)
	},
}

var analysisListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recent analysis jobs",
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		jobs, err := client.ListAnalysisJobs(cmd.Context(), analysisLimit, analysisOffset)
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
		fmt.Fprintf(tw, "ID\tTASK\tSTATUS\tDOCS\tFINISHED\n")
		for _, job := range jobs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
				shortID(job.ID),
				job.TaskType,
				coloredStatus(job.Status),
				len(job.DocumentIDs),
				formatTimestamp(job.FinishedAt))
		}
		flushTable(tw)
	},
}

var analysisGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Describe an analysis job and its result",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		job, err := client.GetAnalysisJob(cmd.Context(), args[0])
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
		printAnalysisJob(cmd, job)
	},
}

var analysisWatchCmd = &cobra.Command{
	Use:   "watch <job-id...>",
	Short: "Poll analysis jobs until they finish",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		seeds := make([]jobsync.Job, 0, len(args))
		for _, id := range args {
			seeds = append(seeds, jobsync.Job{ID: id, Kind: jobsync.KindAnalysis})
		}
		if err := watchJobs(cmd, client, seeds, analysisWatchInterval); err != nil {
			exitWithError(cmd, err)
		}
	},
}

func init() {
	analysisRunCmd.Flags().StringVar(&analysisTaskType, "type", "summary", "Task type to run")
	analysisRunCmd.Flags().StringVar(&analysisQuestion, "question", "", "Question for question-style tasks")
	analysisRunCmd.Flags().StringArrayVar(&analysisDocumentIDs, "document", nil, "Document ids to analyze (repeatable, all when omitted)")
	analysisRunCmd.Flags().IntVar(&analysisMaxChunks, "max-chunks", 0, "Maximum chunks per document")
	analysisRunCmd.Flags().BoolVar(&analysisFollow, "follow", false, "Watch the job and print the result when done")
	analysisRunCmd.Flags().DurationVar(&analysisWatchInterval, "interval", 0, "Poll interval when following")
	analysisListCmd.Flags().IntVar(&analysisLimit, "limit", 20, "Maximum jobs to return")
	analysisListCmd.Flags().IntVar(&analysisOffset, "offset", 0, "Offset into the job list")
	analysisWatchCmd.Flags().DurationVar(&analysisWatchInterval, "interval", 0, "Poll interval")
	analysisCmd.AddCommand(analysisRunCmd)
	analysisCmd.AddCommand(analysisListCmd)
	analysisCmd.AddCommand(analysisGetCmd)
	analysisCmd.AddCommand(analysisWatchCmd)
}

func printAnalysisJob(cmd *cobra.Command, job *api.AnalysisJob) {
	tw := newTable()
	fmt.Fprintf(tw, "Field\tValue\n")
	fmt.Fprintf(tw, "ID\t%s\n", job.ID)
	fmt.Fprintf(tw, "Task\t%s\n", job.TaskType)
	fmt.Fprintf(tw, "Status\t%s\n", coloredStatus(job.Status))
	if job.Question != "" {
		fmt.Fprintf(tw, "Question\t%s\n", job.Question)
	}
	fmt.Fprintf(tw, "Documents\t%d\n", len(job.DocumentIDs))
	fmt.Fprintf(tw, "Created\t%s\n", formatTimestamp(job.CreatedAt))
	fmt.Fprintf(tw, "Finished\t%s\n", formatTimestamp(job.FinishedAt))
	if job.Error != "" {
		fmt.Fprintf(tw, "Error\t%s\n", job.Error)
	}
	flushTable(tw)
	if len(job.Result) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "\nResult:")
		_ = printJSON(job.Result)
	}
}

package aidoccli

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidoc-labs/aidoc-go/internal/api"
	"github.com/aidoc-labs/aidoc-go/internal/events"
	"github.com/aidoc-labs/aidoc-go/internal/jobsync"
)

// busSink publishes scheduler callbacks onto the event bus, keeping poll
// passes decoupled from terminal rendering.
type busSink struct {
	bus *events.Bus
}

func (s *busSink) OnJobUpdate(job jobsync.Job) {
	s.bus.Publish(events.Event{Type: events.TypeJobUpdated, Data: job})
}

func (s *busSink) OnJobSyncError(err *jobsync.FetchError) {
	s.bus.Publish(events.Event{Type: events.TypeJobSyncFailed, Data: err.Error()})
}

// watchJobs polls the seeded jobs until every one is terminal, printing a
// line per change. Ctrl-C stops watching; the server-side jobs keep going.
func watchJobs(cmd *cobra.Command, client *api.Client, seeds []jobsync.Job, interval time.Duration) error {
	if interval <= 0 {
		interval = envConfig.PollInterval
	}
	maybeServeMetrics()

	bus := events.NewBus()
	sched := jobsync.New(jobsync.Options{
		Fetcher:  &jobsync.ClientFetcher{Client: client},
		Sink:     &busSink{bus: bus},
		Interval: interval,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	go sched.Run(ctx)

	sub, unsubscribe := bus.Subscribe(ctx)
	defer unsubscribe()

	for _, seed := range seeds {
		sched.Register(seed)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %d job(s), polling every %s...\n", len(seeds), interval)
	if sched.ActiveCount() == 0 {
		printJobSummary(cmd, sched.Jobs())
		return nil
	}

	check := time.NewTicker(time.Second)
	defer check.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(cmd.OutOrStdout(), "Stopped watching; jobs continue on the server.")
			return nil
		case evt, ok := <-sub:
			if !ok {
				return nil
			}
			printWatchEvent(cmd, evt)
			if sched.ActiveCount() == 0 {
				printJobSummary(cmd, sched.Jobs())
				return nil
			}
		case <-check.C:
			if sched.ActiveCount() == 0 {
				printJobSummary(cmd, sched.Jobs())
				return nil
			}
		}
	}
}

func printWatchEvent(cmd *cobra.Command, evt events.Event) {
	switch evt.Type {
	case events.TypeJobUpdated:
		job, ok := evt.Data.(jobsync.Job)
		if !ok {
			return
		}
		line := fmt.Sprintf("[%s] %s %s %s",
			evt.Timestamp.Local().Format("15:04:05"),
			job.Kind,
			shortID(job.ID),
			coloredStatus(job.Status))
		if job.Error != "" {
			line += " " + job.Error
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	case events.TypeJobSyncFailed:
		printErrorLine("sync: %v", evt.Data)
	}
}

func printJobSummary(cmd *cobra.Command, jobs []jobsync.Job) {
	failed := 0
	for _, job := range jobs {
		if job.Status == api.JobFailed {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Done: %d job(s), %d failed.\n", len(jobs), failed)
		for _, job := range jobs {
			if job.Status == api.JobFailed && job.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %s: %s\n", job.Kind, shortID(job.ID), job.Error)
			}
		}
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Done: %d job(s) completed.\n", len(jobs))
}

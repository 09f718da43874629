package aidoccli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidoc-labs/aidoc-go/internal/api"
	"github.com/aidoc-labs/aidoc-go/internal/stream"
)

var (
	askConversationID string
	askTopK           int
	askDocumentIDs    []string
	askMinScore       float64
	askSync           bool
	askShowSources    bool
	askIdleTimeout    time.Duration
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about your documents",
	Long: `Ask sends a question to the backend and streams the answer to stdout as
it is generated. Press Ctrl-C to stop a stream; text received so far is
kept. Use --conversation to continue an earlier thread.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		req := api.QueryRequest{
			Question:       args[0],
			ConversationID: askConversationID,
			TopK:           askTopK,
			DocumentIDs:    askDocumentIDs,
			MinScore:       askMinScore,
		}
		if req.TopK == 0 {
			req.TopK = envConfig.TopK
		}
		if req.MinScore == 0 {
			req.MinScore = envConfig.MinScore
		}
		if askSync {
			runSyncAsk(cmd, client, req)
			return
		}
		runStreamingAsk(cmd, client, req)
	},
}

func init() {
	askCmd.Flags().StringVar(&askConversationID, "conversation", "", "Continue an existing conversation")
	askCmd.Flags().IntVar(&askTopK, "top-k", 0, "Number of chunks to retrieve")
	askCmd.Flags().StringArrayVar(&askDocumentIDs, "document", nil, "Restrict retrieval to these document ids (repeatable)")
	askCmd.Flags().Float64Var(&askMinScore, "min-score", 0, "Minimum retrieval score")
	askCmd.Flags().BoolVar(&askSync, "sync", false, "Wait for the whole answer instead of streaming")
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "Print the citations behind the answer")
	askCmd.Flags().DurationVar(&askIdleTimeout, "idle-timeout", 0, "Fail when the stream stalls this long")
}

// askSink renders stream events as they arrive and mirrors them into the
// transcript.
type askSink struct {
	out        io.Writer
	transcript *stream.Transcript
	sources    []api.Source
}

func (s *askSink) OnSources(sources []api.Source) {
	s.sources = sources
}

func (s *askSink) OnChunk(delta string) {
	fmt.Fprint(s.out, delta)
	s.transcript.AppendDelta(delta)
}

func (s *askSink) OnDone(conversationID string) {
	fmt.Fprintln(s.out)
	s.transcript.Adopt(conversationID)
}

func runStreamingAsk(cmd *cobra.Command, client *api.Client, req api.QueryRequest) {
	idle := askIdleTimeout
	if idle <= 0 {
		idle = envConfig.StreamIdleTimeout
	}

	transcript := stream.NewTranscript(req.ConversationID)
	transcript.Begin(req.Question)

	sink := &askSink{out: cmd.OutOrStdout(), transcript: transcript}
	session := stream.New(stream.Options{
		Opener:      client,
		Sink:        sink,
		IdleTimeout: idle,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		session.Cancel()
	}()

	err := session.Run(ctx, req)
	switch {
	case err == nil:
		resolveConversation(cmd, client, transcript, session.ConversationID())
	case errors.Is(err, context.Canceled):
		transcript.Abandon()
		fmt.Fprintln(cmd.OutOrStdout(), "\n(cancelled)")
	default:
		transcript.Abandon()
		exitWithError(cmd, err)
		if partial := session.Answer(); partial != "" {
			printErrorLine("The partial answer above is incomplete.")
		}
	}
	if askShowSources {
		printSources(session.Sources())
	}
}

// resolveConversation replaces the local transcript with the server's copy
// so ids and timestamps come from the system of record.
func resolveConversation(cmd *cobra.Command, client *api.Client, transcript *stream.Transcript, conversationID string) {
	transcript.Adopt(conversationID)
	if conversationID == "" {
		return
	}
	messages, err := client.ListMessages(cmd.Context(), conversationID)
	if err != nil {
		printErrorLine("warning: could not refresh conversation %s: %v", conversationID, err)
		return
	}
	transcript.ResolveAuthoritative(messages)
	fmt.Fprintf(cmd.OutOrStdout(), "\nConversation %s (%d messages). Continue with: aidoc ask --conversation %s ...\n",
		shortID(conversationID), len(transcript.Messages()), conversationID)
}

func runSyncAsk(cmd *cobra.Command, client *api.Client, req api.QueryRequest) {
	resp, err := client.Ask(cmd.Context(), req)
	if err != nil {
		exitWithError(cmd, err)
		return
	}
	if outputFormat == "json" {
		_ = printJSON(resp)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), resp.Answer)
	if askShowSources {
		printSources(resp.Sources)
	}
}

func printSources(sources []api.Source) {
	if len(sources) == 0 {
		fmt.Println("No sources reported.")
		return
	}
	tw := newTable()
	fmt.Fprintf(tw, "DOCUMENT\tCHUNK\tSCORE\tTITLE\n")
	for _, source := range sources {
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%s\n",
			shortID(source.DocumentID),
			source.ChunkID,
			source.Score,
			source.DocumentTitle)
	}
	flushTable(tw)
}

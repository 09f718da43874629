package aidoccli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidoc-labs/aidoc-go/internal/api"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "Browse past question threads",
}

var (
	conversationsLimit  int
	conversationsOffset int
)

var conversationsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your conversations, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		conversations, err := client.ListConversations(cmd.Context(), conversationsLimit, conversationsOffset)
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		if err := writeOutput(cmd, conversations); err != nil {
			exitWithError(cmd, err)
			return
		}
		if outputFormat == "json" {
			return
		}
		tw := newTable()
		fmt.Fprintf(tw, "ID\tTITLE\tUPDATED\n")
		for _, conversation := range conversations {
			title := conversation.Title
			if title == "" {
				title = "(untitled)"
			}
			updated := "-"
			if conversation.UpdatedAt != nil {
				updated = relativeTime(conversation.UpdatedAt.Time)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", shortID(conversation.ID), title, updated)
		}
		flushTable(tw)
	},
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Print a conversation's messages",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		messages, err := client.ListMessages(cmd.Context(), args[0])
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		if err := writeOutput(cmd, messages); err != nil {
			exitWithError(cmd, err)
			return
		}
		if outputFormat == "json" {
			return
		}
		for _, message := range messages {
			label := message.Role
			if message.Role == api.RoleUser {
				label = statusYellow("you")
			} else if message.Role == api.RoleAssistant {
				label = statusGreen("assistant")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n%s\n\n", label, formatTimestamp(message.CreatedAt), message.Content)
		}
	},
}

var conversationsRenameCmd = &cobra.Command{
	Use:   "rename <conversation-id> <title>",
	Short: "Set a conversation title",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		conversation, err := client.RenameConversation(cmd.Context(), args[0], args[1])
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Conversation %s renamed to %q.\n", shortID(conversation.ID), conversation.Title)
	},
}

func init() {
	conversationsListCmd.Flags().IntVar(&conversationsLimit, "limit", 20, "Maximum conversations to return (server clamps to 200)")
	conversationsListCmd.Flags().IntVar(&conversationsOffset, "offset", 0, "Offset into the conversation list")
	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsShowCmd)
	conversationsCmd.AddCommand(conversationsRenameCmd)
}

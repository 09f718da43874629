package aidoccli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend health and readiness",
	Run: func(cmd *cobra.Command, args []string) {
		client, resolved, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		health, err := client.Health(cmd.Context())
		if err != nil {
			exitWithError(cmd, fmt.Errorf("backend unreachable: %w", err))
			return
		}
		ready, err := client.Readiness(cmd.Context())
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		if outputFormat == "json" {
			if err := printJSON(ready); err != nil {
				exitWithError(cmd, err)
			}
			return
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Server:  %s\n", resolved.Server)
		fmt.Fprintf(out, "Health:  %s\n", coloredProbe(health.Status))
		fmt.Fprintf(out, "Ready:   %s\n\n", coloredProbe(ready.Status))

		names := make([]string, 0, len(ready.Checks))
		for name := range ready.Checks {
			names = append(names, name)
		}
		sort.Strings(names)

		tw := newTable()
		fmt.Fprintf(tw, "COMPONENT\tSTATUS\tDETAIL\n")
		for _, name := range names {
			check := ready.Checks[name]
			detail := check.Detail
			if detail == "" {
				detail = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", name, coloredProbe(check.Status), detail)
		}
		flushTable(tw)
	},
}

func coloredProbe(status string) string {
	switch status {
	case "ok":
		return statusGreen(status)
	case "error":
		return statusRed(status)
	default:
		return statusYellow(status)
	}
}

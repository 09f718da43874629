package aidoccli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidoc-labs/aidoc-go/internal/api"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Obtain and inspect access tokens",
}

var (
	loginExpiresMinutes int
	loginSave           bool
)

var authLoginCmd = &cobra.Command{
	Use:   "login <user-id>",
	Short: "Obtain a bearer token for a user",
	Long: `Login asks the backend for a bearer token and, unless --save=false,
stores it in the active context so later commands authenticate with it.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, resolved, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		token, err := client.Login(cmd.Context(), args[0], loginExpiresMinutes)
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		if !loginSave {
			fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
			return
		}
		cfg, err := LoadConfig(cfgFile)
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		name := resolved.Name
		if name == "environment" {
			name = "default"
		}
		ctx, ok := cfg.Contexts[name]
		if !ok {
			// Logging in without a configured context creates one.
			ctx = Context{Name: name, Server: resolved.Server}
		}
		ctx.Token = token.AccessToken
		ctx.UserID = args[0]
		setContext(cfg, ctx, true)
		if err := SaveConfig(cfg, cfgFile); err != nil {
			exitWithError(cmd, err)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s; token saved to context %q.\n", args[0], name)
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active identity and token expiry",
	Run: func(cmd *cobra.Command, args []string) {
		resolved, err := resolvedContext()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Server:  %s\n", resolved.Server)
		if resolved.Token == "" {
			if resolved.UserID != "" {
				fmt.Fprintf(out, "Identity: %s (X-User-Id header, no token)\n", resolved.UserID)
			} else {
				fmt.Fprintln(out, "Identity: none configured; run 'aidoc auth login <user-id>'")
			}
			return
		}
		details, err := api.InspectToken(resolved.Token)
		if err != nil {
			exitWithError(cmd, fmt.Errorf("stored token is not a readable JWT: %w", err))
			return
		}
		fmt.Fprintf(out, "Subject: %s\n", details.Subject)
		if len(details.Audience) > 0 {
			fmt.Fprintf(out, "Audience: %s\n", strings.Join(details.Audience, ", "))
		}
		switch {
		case details.ExpiresAt.IsZero():
			fmt.Fprintln(out, "Expiry:  none")
		case details.Expired():
			fmt.Fprintf(out, "Expiry:  %s (%s)\n", details.ExpiresAt.Format(time.RFC3339), statusRed("expired"))
		default:
			fmt.Fprintf(out, "Expiry:  %s (in %s)\n", details.ExpiresAt.Format(time.RFC3339), humanDuration(time.Until(details.ExpiresAt)))
		}
	},
}

func init() {
	authLoginCmd.Flags().IntVar(&loginExpiresMinutes, "expires", 0, "Token lifetime in minutes (server default when 0)")
	authLoginCmd.Flags().BoolVar(&loginSave, "save", true, "Save the token into the active context")
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
}

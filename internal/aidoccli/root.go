package aidoccli

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidoc-labs/aidoc-go/config"
	"github.com/aidoc-labs/aidoc-go/internal/api"
	"github.com/aidoc-labs/aidoc-go/internal/logutil"
	"github.com/aidoc-labs/aidoc-go/internal/metrics"
)

var (
	cfgFile       string
	contextName   string
	overrideURL   string
	overrideToken string
	overrideUser  string
	outputFormat  string

	appConfig *Config
	envConfig *config.Config
)

// Execute runs the CLI.
func Execute() error {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	return rootCmd.Execute()
}

var rootCmd = &cobra.Command{
	Use:   "aidoc",
	Short: "Query and manage documents in the AI Document Interview System",
	Long: `aidoc is the command line client for the AI Document Interview System.
It streams answers to questions about your documents, uploads new material,
and follows background ingestion and analysis jobs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envConfig == nil {
			envConfig = config.Load()
			logutil.Init(envConfig.LogLevel, envConfig.LogFile)
		}
		// Config commands load/save the file manually.
		if strings.HasPrefix(cmd.CommandPath(), "aidoc config") {
			return nil
		}
		if appConfig == nil {
			var err error
			appConfig, err = LoadConfig(cfgFile)
			if err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath(), "Path to the aidoc config file")
	rootCmd.PersistentFlags().StringVar(&contextName, "context", "", "Context name to use (overrides current)")
	rootCmd.PersistentFlags().StringVar(&overrideURL, "server", "", "Override API server URL")
	rootCmd.PersistentFlags().StringVar(&overrideToken, "token", "", "Override API token")
	rootCmd.PersistentFlags().StringVar(&overrideUser, "user", "", "Override user id for the identity fallback header")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table|json")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(analysisCmd)
	rootCmd.AddCommand(conversationsCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(configCmd)
}

// resolvedContext merges config state with flag overrides. Without any
// configured context the environment settings stand in for one.
func resolvedContext() (*Context, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	ctxName := contextName
	if ctxName == "" {
		ctxName = appConfig.CurrentContext
	}
	var ctx Context
	if ctxName != "" {
		found, ok := appConfig.Contexts[ctxName]
		if !ok {
			return nil, fmt.Errorf("context %q not found; use 'aidoc config set-context'", ctxName)
		}
		ctx = found
	} else {
		ctx = Context{
			Name:   "environment",
			Server: envConfig.ServerURL,
			Token:  envConfig.APIToken,
			UserID: envConfig.UserID,
		}
	}
	if overrideURL != "" {
		ctx.Server = overrideURL
	}
	if overrideToken != "" {
		ctx.Token = overrideToken
	}
	if overrideUser != "" {
		ctx.UserID = overrideUser
	}
	if ctx.Server == "" {
		return nil, fmt.Errorf("no server configured; set AIDOC_SERVER_URL or run 'aidoc config set-context'")
	}
	return &ctx, nil
}

func mustClient() (*api.Client, *Context, error) {
	ctx, err := resolvedContext()
	if err != nil {
		return nil, nil, err
	}
	client := api.New(api.Options{
		BaseURL:               ctx.Server,
		Token:                 ctx.Token,
		UserID:                ctx.UserID,
		Timeout:               envConfig.RequestTimeout,
		InsecureSkipTLSVerify: envConfig.InsecureSkipTLSVerify,
	})
	return client, ctx, nil
}

func writeOutput(cmd *cobra.Command, data interface{}) error {
	switch strings.ToLower(outputFormat) {
	case "json":
		return printJSON(data)
	case "table", "":
		// Table is handled by the caller.
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

func exitWithError(cmd *cobra.Command, err error) {
	cmd.SilenceUsage = true
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// maybeServeMetrics exposes the Prometheus endpoint for long-running watch
// commands when AIDOC_METRICS_ADDR is set.
func maybeServeMetrics() {
	if envConfig == nil || envConfig.MetricsAddr == "" {
		return
	}
	addr := envConfig.MetricsAddr
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			logutil.Warn("metrics endpoint stopped", map[string]interface{}{
				"addr":  addr,
				"error": err.Error(),
			})
		}
	}()
}

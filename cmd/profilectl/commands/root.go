package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/goprofiles/internal/cli"
	"github.com/TimurManjosov/goprofiles/internal/client"
)

var (
	// Global flags
	baseURL string
	apiKey  string
	env     string
	format  string
	quiet   bool
	verbose bool
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "profilectl",
	Short: "CLI tool for inspecting and managing context-aware profiles",
	Long: `profilectl talks to a goprofiles service.

It lists the registered profiles of every tier, resolves a data source and its
records the way a result grid would, and manages declarative profile
definitions.

Examples:
  profilectl profiles
  profilectl resolve --query "FROM logs-nginx.error-* | LIMIT 10" --record rec.json
  profilectl definitions apply -f acme.yaml
  profilectl definitions export -o definitions.yaml`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the goprofiles API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Admin API key")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "Config environment to use (defaults to default_env)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
}

func newClient() (*client.Client, error) {
	envCfg, err := cli.GetEnvConfig(env, baseURL, apiKey)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if verbose {
		fmt.Printf("Using %s\n", envCfg.BaseURL)
	}
	return client.NewClient(envCfg.BaseURL, envCfg.APIKey), nil
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func outputFormat() (cli.OutputFormat, error) {
	return cli.ParseFormat(format)
}

// standardizer — CLI для управления стандартизацией через API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"standardizer/internal/cli"
)

// version подставляется при сборке через ldflags.
var version = "dev"

func main() {
	var (
		apiURL   string
		apiKey   string
		jsonMode bool
	)

	rootCmd := &cobra.Command{
		Use:           "standardizer",
		Short:         "Manage product standardization",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", envOr("STANDARDIZER_API_URL", "http://localhost:8080"), "Standardizer API base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("STANDARDIZER_API_KEY"), "API key (X-API-Key header)")
	rootCmd.PersistentFlags().BoolVar(&jsonMode, "json", false, "Output as JSON")

	clientFn := func() *cli.Client {
		return cli.NewClient(apiURL, apiKey)
	}
	outputFn := func() *cli.Output {
		return cli.NewOutput(jsonMode)
	}

	rootCmd.AddCommand(
		cli.NewStatsCmd(clientFn, outputFn),
		cli.NewStuckCmd(clientFn, outputFn),
		cli.NewProductsCmd(clientFn, outputFn),
		cli.NewStandardsCmd(outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

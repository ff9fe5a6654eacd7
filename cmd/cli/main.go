// Package main implements the sitesearch CLI for querying a site's search
// index and generating it from Markdown posts.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	config   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:          "sitesearch",
		Short:        "Search a static site's article index",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.config, "config", os.Getenv("SITESEARCH_CONFIG"), "YAML config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (overrides config)")

	root.AddCommand(newSearchCmd(flags))
	root.AddCommand(newEntriesCmd(flags))
	root.AddCommand(newGenerateCmd())
	return root
}

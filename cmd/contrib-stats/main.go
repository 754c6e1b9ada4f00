// Package main provides the entry point for the contrib-stats CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oss-pulse/contrib-stats/cmd/contrib-stats/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "contrib-stats",
		Short: "GitHub contribution statistics aggregator",
		Long: `contrib-stats turns raw GitHub activity caches into dashboard-ready
contribution statistics: contributor growth histories, monthly and yearly
leaderboards, and star histories.

Commands:
  contributors          Build contributor history documents
  rankings              Build monthly/yearly leaderboards
  stars                 Build star history documents
  run                   Build all documents in one pass
  convert-contributors  Convert contributor history JSON to CSV
  convert-stars         Convert star history JSON to CSV
  repos                 Refresh the tracked-repository selection
  serve                 Serve documents, health, and metrics over HTTP`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "config.yaml", "path to YAML config file")

	rootCmd.AddCommand(commands.NewContributorsCommand())
	rootCmd.AddCommand(commands.NewRankingsCommand())
	rootCmd.AddCommand(commands.NewStarsCommand())
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewConvertContributorsCommand())
	rootCmd.AddCommand(commands.NewConvertStarsCommand())
	rootCmd.AddCommand(commands.NewReposCommand())
	rootCmd.AddCommand(commands.NewServeCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package cmd

import (
	"github.com/spf13/cobra"
	"media-ingest/config"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "media-ingest",
		Short:        "content-addressed media ingestion service",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(server(config), migrate(config), sweep(config))
	return rootCmd
}

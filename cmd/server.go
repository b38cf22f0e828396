package cmd

import (
	"github.com/spf13/cobra"
	"media-ingest/config"
	server2 "media-ingest/server"
)

func server(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "start http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server2.RunHttp(config)
		},
	}
}

func migrate(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update the media table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server2.RunMigrate(config)
		},
	}
}

package cmd

import (
	"github.com/spf13/cobra"
	"media-ingest/config"
	server2 "media-ingest/server"
	"media-ingest/service"
)

func sweep(config *config.Config) *cobra.Command {
	var (
		project string
		remove  bool
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "find stored files no media record points at",
		Long: "Lists blobs that no media record references, such as files left behind by\n" +
			"failed uploads or deletes. Blobs younger than --grace are ignored.",
		RunE: func(cmd *cobra.Command, args []string) error {
			grace, err := cmd.Flags().GetDuration("grace")
			if err != nil {
				return err
			}
			return server2.RunSweep(config, project, remove, grace)
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "only sweep this project")
	cmd.Flags().BoolVar(&remove, "delete", false, "delete the orphans that were found")
	cmd.Flags().Duration("grace", service.DefaultSweepGrace, "skip blobs modified within this window")
	return cmd
}

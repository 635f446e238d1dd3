package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var snapshotFlag string
	var jsonFlag bool

	ctx := newCommandContext(&configFlag, &snapshotFlag, &jsonFlag)

	rootCmd := &cobra.Command{
		Use:           "seasonmatch",
		Short:         "Find the most similar season in baseball history",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&snapshotFlag, "snapshot", "", "Serve searches from a snapshot file instead of the stats API")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Write JSON instead of a table")

	rootCmd.AddCommand(newSimilarCommand(ctx))
	rootCmd.AddCommand(newPlayersCommand(ctx))
	rootCmd.AddCommand(newSnapshotCommand(ctx))

	return rootCmd
}

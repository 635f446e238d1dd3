package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newSnapshotCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage offline corpus snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newSnapshotBuildCommand(ctx))
	return cmd
}

func newSnapshotBuildCommand(ctx *commandContext) *cobra.Command {
	var seasons []int
	var out string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Fetch every player of the given seasons into a snapshot file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.service(cmd)
			if err != nil {
				return err
			}
			defer ctx.close()
			file, err := svc.BuildSnapshot(cmd.Context(), seasons...)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				return file.Encode(cmd.OutOrStdout())
			}

			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return fmt.Errorf("create snapshot dir: %w", err)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create snapshot: %w", err)
			}
			if err := file.Encode(f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close snapshot: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().IntSliceVarP(&seasons, "season", "s", nil, "Season to include (repeatable)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (default: stdout)")
	return cmd
}

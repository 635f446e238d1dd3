package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/seasonmatch/internal/domain/types"
)

func newSimilarCommand(ctx *commandContext) *cobra.Command {
	var season int

	cmd := &cobra.Command{
		Use:   "similar <player-id>",
		Short: "Show the season closest to a player's season",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if season < 0 {
				return fmt.Errorf("invalid season %d", season)
			}
			svc, err := ctx.service(cmd)
			if err != nil {
				return err
			}
			defer ctx.close()
			if season == 0 {
				season = svc.DefaultSeason()
			}

			res, searchErr := svc.Similar(cmd.Context(), args[0], season)
			out := types.NewSimilarityResult(res)
			if ctx.json() {
				if err := writeJSON(cmd, out); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderResult(out))
			}
			return searchErr
		},
	}
	cmd.Flags().IntVarP(&season, "season", "s", 0, "Season to compare (default: default_season from config)")
	return cmd
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/seasonmatch/internal/domain/types"
)

func newPlayersCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "players <name>",
		Short: "Look players up by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("invalid limit %d", limit)
			}
			svc, err := ctx.service(cmd)
			if err != nil {
				return err
			}
			defer ctx.close()
			ids, err := svc.SearchPlayers(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			players := types.NewPlayerSummaries(ids)
			if ctx.json() {
				return writeJSON(cmd, players)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPlayers(players))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of players")
	return cmd
}

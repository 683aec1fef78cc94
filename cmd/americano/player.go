package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vgurov/americano/internal/tourneyapi"
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "Manage tournament players",
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list <tournament-id>",
		Args:  cobra.ExactArgs(1),
		Short: "List players in rank order with buckets",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			rsp, err := makeClient().ListPlayers(ctx, &tourneyapi.ListPlayersRequest{TournamentID: args[0]})
			if err != nil {
				return err
			}
			return printJSON(rsp.Players)
		},
	}

	strengthCmd := &cobra.Command{
		Use:   "strength <player-id> <value>",
		Args:  cobra.ExactArgs(2),
		Short: "Set a player's strength",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("bad strength %q", args[1])
			}
			ctx, cancel := cmdContext()
			defer cancel()
			_, err = makeClient().SetStrength(ctx, &tourneyapi.SetStrengthRequest{
				PlayerID: args[0],
				Strength: value,
			})
			return err
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed <player-id> [team-index]",
		Args:  cobra.RangeArgs(1, 2),
		Short: "Pin a player to a team, or clear the pin",
		RunE: func(cmd *cobra.Command, args []string) error {
			var target *int
			if len(args) == 2 {
				value, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("bad team index %q", args[1])
				}
				target = &value
			}
			ctx, cancel := cmdContext()
			defer cancel()
			_, err := makeClient().SetSeed(ctx, &tourneyapi.SetSeedRequest{
				PlayerID:      args[0],
				SeedTeamIndex: target,
			})
			return err
		},
	}

	playerCmd.AddCommand(listCmd, strengthCmd, seedCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vgurov/americano/internal/tourneyapi"
)

var tournamentCmd = &cobra.Command{
	Use:   "tournament",
	Short: "Manage tournaments",
}

func init() {
	createCmd := &cobra.Command{
		Use:   "create",
		Args:  cobra.ExactArgs(0),
		Short: "Create a tournament",
	}
	cp := createCmd.Flags()
	name := cp.String("name", "", "tournament name (generated if empty)")
	mode := cp.String("mode", "solo", "registration mode: solo or team")
	points := cp.IntSlice("points", nil, "per-court points, court 1 first (default 5,4,3,2)")
	createCmd.RunE = func(cmd *cobra.Command, _args []string) error {
		req := &tourneyapi.CreateTournamentRequest{Name: *name, Mode: *mode}
		if len(*points) != 0 {
			if len(*points) != 4 {
				return fmt.Errorf("--points wants exactly 4 values")
			}
			var arr [4]int
			copy(arr[:], *points)
			req.Points = &arr
		}
		ctx, cancel := cmdContext()
		defer cancel()
		rsp, err := makeClient().CreateTournament(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(rsp.Tournament)
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Args:  cobra.ExactArgs(0),
		Short: "List tournaments",
		RunE: func(cmd *cobra.Command, _args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			rsp, err := makeClient().ListTournaments(ctx, &tourneyapi.ListTournamentsRequest{})
			if err != nil {
				return err
			}
			return printJSON(rsp.Tournaments)
		},
	}

	modeCmd := &cobra.Command{
		Use:   "mode <tournament-id> <solo|team>",
		Args:  cobra.ExactArgs(2),
		Short: "Change registration mode of a draft tournament",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			_, err := makeClient().SetMode(ctx, &tourneyapi.SetModeRequest{
				TournamentID: args[0],
				Mode:         args[1],
			})
			return err
		},
	}

	stateCmd := &cobra.Command{
		Use:   "state <tournament-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Show standings and stage history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			rsp, err := makeClient().State(ctx, &tourneyapi.StateRequest{TournamentID: args[0]})
			if err != nil {
				return err
			}
			return printJSON(rsp)
		},
	}

	finishCmd := &cobra.Command{
		Use:   "finish <tournament-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Finish a live tournament whose last stage is fully scored",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			_, err := makeClient().Finish(ctx, &tourneyapi.FinishRequest{TournamentID: args[0]})
			return err
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel <tournament-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Cancel a tournament and its open registrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			_, err := makeClient().Cancel(ctx, &tourneyapi.CancelRequest{TournamentID: args[0]})
			return err
		},
	}

	tournamentCmd.AddCommand(createCmd, listCmd, modeCmd, stateCmd, finishCmd, cancelCmd)
}

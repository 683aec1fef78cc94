package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vgurov/americano/internal/tourneyapi"
)

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Form and reset teams",
}

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Run stages and record results",
}

var overridesCmd = &cobra.Command{
	Use:   "overrides",
	Short: "Per-stage points overrides",
}

func init() {
	formCmd := &cobra.Command{
		Use:   "form <tournament-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Form the eight teams from accepted, paid players",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			_, err := makeClient().FormTeams(ctx, &tourneyapi.FormTeamsRequest{TournamentID: args[0]})
			return err
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset <tournament-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Discard formed teams while still in draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			_, err := makeClient().ResetTeams(ctx, &tourneyapi.ResetTeamsRequest{TournamentID: args[0]})
			return err
		},
	}
	teamsCmd.AddCommand(formCmd, resetCmd)

	startCmd := &cobra.Command{
		Use:   "start <tournament-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Start the next stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			rsp, err := makeClient().StartStage(ctx, &tourneyapi.StartStageRequest{TournamentID: args[0]})
			if err != nil {
				return err
			}
			fmt.Printf("started stage %d\n", rsp.StageNumber)
			return nil
		},
	}

	resultCmd := &cobra.Command{
		Use:   "result <game-id> <winner-team-id>",
		Args:  cobra.ExactArgs(2),
		Short: "Record a game result",
	}
	score := resultCmd.Flags().String("score", "", "free-form score text")
	resultCmd.RunE = func(cmd *cobra.Command, args []string) error {
		var scoreText *string
		if *score != "" {
			scoreText = score
		}
		ctx, cancel := cmdContext()
		defer cancel()
		rsp, err := makeClient().RecordResult(ctx, &tourneyapi.RecordResultRequest{
			GameID:       args[0],
			WinnerTeamID: args[1],
			ScoreText:    scoreText,
		})
		if err != nil {
			return err
		}
		if rsp.StageComplete {
			fmt.Println("stage complete")
		}
		return nil
	}
	stageCmd.AddCommand(startCmd, resultCmd)

	getCmd := &cobra.Command{
		Use:   "get <tournament-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Show points overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			rsp, err := makeClient().GetOverrides(ctx, &tourneyapi.GetOverridesRequest{TournamentID: args[0]})
			if err != nil {
				return err
			}
			return printJSON(rsp.Overrides)
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <tournament-id> <stage:c1,c2,c3,c4>...",
		Args:  cobra.MinimumNArgs(1),
		Short: "Replace all points overrides (no rows clears them)",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([]tourneyapi.OverrideRow, 0, len(args)-1)
			for _, arg := range args[1:] {
				var row tourneyapi.OverrideRow
				n, err := fmt.Sscanf(arg, "%d:%d,%d,%d,%d",
					&row.StageNumber, &row.PointsC1, &row.PointsC2, &row.PointsC3, &row.PointsC4)
				if err != nil || n != 5 {
					return fmt.Errorf("bad override %q, want stage:c1,c2,c3,c4", arg)
				}
				rows = append(rows, row)
			}
			ctx, cancel := cmdContext()
			defer cancel()
			_, err := makeClient().SaveOverrides(ctx, &tourneyapi.SaveOverridesRequest{
				TournamentID: args[0],
				Overrides:    rows,
			})
			return err
		},
	}
	overridesCmd.AddCommand(getCmd, setCmd)
}

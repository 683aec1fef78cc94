package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vgurov/americano/internal/tourneyapi"
)

var regCmd = &cobra.Command{
	Use:   "reg",
	Short: "Manage registrations",
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list <tournament-id>",
		Args:  cobra.ExactArgs(1),
		Short: "List registrations with payment slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			rsp, err := makeClient().ListRegistrations(ctx, &tourneyapi.ListRegistrationsRequest{TournamentID: args[0]})
			if err != nil {
				return err
			}
			return printJSON(rsp)
		},
	}

	decideCmd := &cobra.Command{
		Use:   "decide <registration-id> <accept|reject|unaccept>",
		Args:  cobra.ExactArgs(2),
		Short: "Accept, reject or roll back a registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			_, err := makeClient().DecideRegistration(ctx, &tourneyapi.DecideRegistrationRequest{
				RegistrationID: args[0],
				Action:         args[1],
			})
			return err
		},
	}

	payCmd := &cobra.Command{
		Use:   "pay <registration-id> <slot>",
		Args:  cobra.ExactArgs(2),
		Short: "Mark a payment slot paid",
	}
	unpay := payCmd.Flags().Bool("undo", false, "mark the slot unpaid instead")
	payCmd.RunE = func(cmd *cobra.Command, args []string) error {
		var slot int
		if _, err := fmt.Sscanf(args[1], "%d", &slot); err != nil {
			return fmt.Errorf("bad slot %q", args[1])
		}
		ctx, cancel := cmdContext()
		defer cancel()
		_, err := makeClient().SetPaid(ctx, &tourneyapi.SetPaidRequest{
			RegistrationID: args[0],
			Slot:           slot,
			Paid:           !*unpay,
		})
		return err
	}

	applyCmd := &cobra.Command{
		Use:   "apply <tournament-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Submit a registration on someone's behalf",
	}
	ap := applyCmd.Flags()
	solo := ap.String("solo", "", "player name (solo mode)")
	phone := ap.String("phone", "", "contact phone")
	strength := ap.Int("strength", 0, "claimed strength")
	team := ap.StringSlice("team", nil, "three player names (team mode)")
	applyCmd.RunE = func(cmd *cobra.Command, args []string) error {
		req := &tourneyapi.ApplyRequest{
			TournamentID: args[0],
			SoloPlayer:   *solo,
			Phone:        *phone,
			Strength:     *strength,
		}
		if len(*team) != 0 {
			if len(*team) != 3 {
				return fmt.Errorf("--team wants exactly 3 names")
			}
			req.TeamPlayer1, req.TeamPlayer2, req.TeamPlayer3 = (*team)[0], (*team)[1], (*team)[2]
		}
		ctx, cancel := cmdContext()
		defer cancel()
		rsp, err := makeClient().CreateRegistration(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(rsp)
	}

	withdrawCmd := &cobra.Command{
		Use:   "withdraw <tournament-id> <confirmation-code>",
		Args:  cobra.ExactArgs(2),
		Short: "Withdraw a registration by confirmation code",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			_, err := makeClient().Withdraw(ctx, &tourneyapi.WithdrawRequest{
				TournamentID:     args[0],
				ConfirmationCode: args[1],
			})
			return err
		},
	}

	regCmd.AddCommand(listCmd, decideCmd, payCmd, applyCmd, withdrawCmd)
}

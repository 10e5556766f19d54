package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Play blackjack at your table",
	}

	cmd.AddCommand(newTableShowCmd())
	cmd.AddCommand(newTableBetCmd())
	cmd.AddCommand(newTableActionCmd("hit", "Draw one more card", "/api/v1/table/hit"))
	cmd.AddCommand(newTableActionCmd("stand", "Stop drawing and let the dealer play", "/api/v1/table/stand"))
	cmd.AddCommand(newTableActionCmd("double", "Double the bet, draw one card and stand", "/api/v1/table/double"))
	cmd.AddCommand(newTableActionCmd("new-round", "Clear a finished round so you can bet again", "/api/v1/table/new-round"))

	return cmd
}

func newTableShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current round",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Table

			if err := client.Get("/api/v1/table", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newTableBetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bet <amount>",
		Short: "Place a bet and deal a new round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: must be a whole number", args[0])
			}

			var result Table
			if err := client.Post("/api/v1/table/bet", map[string]int64{"amount": amount}, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newTableActionCmd(use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Table

			if err := client.Post(path, nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

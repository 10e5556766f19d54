package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Cashier and admin commands",
	}

	cmd.AddCommand(newAdminLoginCmd())
	cmd.AddCommand(newAdminCreditCmd())
	cmd.AddCommand(newAdminQuickCreditCmd())
	cmd.AddCommand(newAdminSetBalanceCmd())
	cmd.AddCommand(newAdminSetAdminCmd())
	cmd.AddCommand(newAdminPlayersCmd())
	cmd.AddCommand(newAdminTransactionsCmd())
	cmd.AddCommand(newAdminClearTransactionsCmd())
	cmd.AddCommand(newAdminStatsCmd())
	cmd.AddCommand(newAdminPaymentMethodsCmd())
	cmd.AddCommand(newAdminExportCmd())

	return cmd
}

func newAdminLoginCmd() *cobra.Command {
	var operator, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login as a cashier with the shared operator password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return signIn(cmd, "/api/v1/admin/login", map[string]string{
				"operator": operator,
				"password": pass,
			})
		},
	}

	cmd.Flags().StringVar(&operator, "operator", "", "Operator name recorded on transactions (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Operator password (required)")
	_ = cmd.MarkFlagRequired("operator")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newAdminCreditCmd() *cobra.Command {
	var user, method string
	var amount int64

	cmd := &cobra.Command{
		Use:   "credit",
		Short: "Sell credits to a player",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"username": user, "amount": amount, "payment_method": method}
			var result CreditResult

			if err := client.Post("/api/v1/admin/credits", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Player username (required)")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Credits to add, 1 to 1000 (required)")
	cmd.Flags().StringVar(&method, "method", "Cash", "Payment method: Cash, Credit Card, Debit Card, Venmo, PayPal, Zelle, Gift Card")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newAdminQuickCreditCmd() *cobra.Command {
	var user string
	var amount int64

	cmd := &cobra.Command{
		Use:   "quick-credit",
		Short: "Add credits to a player without a payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"username": user, "amount": amount}
			var result CreditResult

			if err := client.Post("/api/v1/admin/quick-credit", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Player username (required)")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Credits to add, 1 to 1000 (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newAdminSetBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-balance <username> <balance>",
		Short: "Overwrite a player's balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid balance %q: must be a whole number", args[1])
			}

			var result CreditResult
			path := "/api/v1/admin/players/" + url.PathEscape(args[0]) + "/balance"
			if err := client.Put(path, map[string]int64{"balance": balance}, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newAdminSetAdminCmd() *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "set-admin <username>",
		Short: "Grant (or with --revoke remove) admin privileges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Profile
			path := "/api/v1/admin/players/" + url.PathEscape(args[0]) + "/admin"
			if err := client.Put(path, map[string]bool{"is_admin": !revoke}, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&revoke, "revoke", false, "Remove admin privileges instead of granting them")
	return cmd
}

func newAdminPlayersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "players",
		Short: "List every player by balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Players

			if err := client.Get("/api/v1/admin/players", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newAdminTransactionsCmd() *cobra.Command {
	var user, method, window string

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Show recent transactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if user != "" {
				q.Set("username", user)
			}
			if method != "" {
				q.Set("payment_method", method)
			}
			if window != "" {
				q.Set("window", window)
			}

			path := "/api/v1/admin/transactions"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var result History
			if err := client.Get(path, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Only this player")
	cmd.Flags().StringVar(&method, "method", "", "Only this payment method")
	cmd.Flags().StringVar(&window, "window", "", "Time window: all, today, week")

	return cmd
}

func newAdminClearTransactionsCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear-transactions",
		Short: "Delete the whole transaction history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear history without --yes")
			}
			if err := client.Delete("/api/v1/admin/transactions"); err != nil {
				return err
			}

			output(cmd).PrintMessage("Transaction history cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the clear")
	return cmd
}

func newAdminStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show casino statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Stats

			if err := client.Get("/api/v1/admin/stats", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newAdminPaymentMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "payment-methods",
		Short: "Show totals per payment method",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MethodTotals

			if err := client.Get("/api/v1/admin/payment-methods", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newAdminExportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export profiles and transactions as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result json.RawMessage

			if err := client.Get("/api/v1/admin/export", &result); err != nil {
				return err
			}

			if file == "" {
				_, err := cmd.OutOrStdout().Write(append(result, '\n'))
				return err
			}
			if err := os.WriteFile(file, result, 0600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}

			output(cmd).PrintMessage("Export written to " + file)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Write to this file instead of stdout")
	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player account commands",
	}

	cmd.AddCommand(newPlayerRegisterCmd())
	cmd.AddCommand(newPlayerLoginCmd())
	cmd.AddCommand(newPlayerMeCmd())
	cmd.AddCommand(newPlayerLogoutCmd())

	return cmd
}

// signIn posts credentials, keeps the issued session token for later
// commands and prints the result.
func signIn(cmd *cobra.Command, path string, req any) error {
	var result AuthResult
	if err := client.Post(path, req, &result); err != nil {
		return err
	}
	if err := cfg.SaveToken(result.SessionToken); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	output(cmd).Print(result)
	return nil
}

func newPlayerRegisterCmd() *cobra.Command {
	var user, pass, confirm string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account with the starting balance and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return signIn(cmd, "/api/v1/players/register", map[string]string{
				"username":         user,
				"password":         pass,
				"confirm_password": confirm,
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password, at least 4 characters (required)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "Repeat the password to catch typos")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newPlayerLoginCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return signIn(cmd, "/api/v1/players/login", map[string]string{
				"username": user,
				"password": pass,
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newPlayerMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show your balance and record",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result AuthResult
			if err := client.Get("/api/v1/players/me", &result); err != nil {
				return err
			}

			// Operator sessions have no profile
			if result.Profile == nil {
				output(cmd).Print(result)
				return nil
			}
			output(cmd).Print(*result.Profile)
			return nil
		},
	}
}

func newPlayerLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session and forget the saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/players/logout", nil, nil); err != nil {
				return err
			}
			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			output(cmd).PrintMessage("Logged out")
			return nil
		},
	}
}

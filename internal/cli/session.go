package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var pass string

	cmd := &cobra.Command{
		Use:   "login <email-or-username>",
		Short: "Sign in with an existing account",
		Long: `Sign in and save the session token for later commands.

A bare username is completed to an address at the default domain.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"identifier": args[0],
				"password":   pass,
			}
			var result SessionResult

			if err := client.Post("/api/v1/session", req, &result); err != nil {
				return err
			}
			return saveSession(cmd, result)
		},
	}

	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newRegisterCmd() *cobra.Command {
	var pass string

	cmd := &cobra.Command{
		Use:   "register <email-or-username>",
		Short: "Create a runner account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"identifier": args[0],
				"password":   pass,
			}

			// A pending account is answered with a message instead of a session
			var result struct {
				SessionResult
				Message string `json:"message"`
			}
			if err := client.Post("/api/v1/register", req, &result); err != nil {
				return err
			}
			if result.SessionToken == "" {
				output(cmd).PrintMessage(result.Message)
				return nil
			}
			return saveSession(cmd, result.SessionResult)
		},
	}

	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := client.Delete("/api/v1/session")
			var statusErr *StatusError
			if err != nil && !(errors.As(err, &statusErr) && statusErr.Status == http.StatusUnauthorized) {
				return err
			}

			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}
			output(cmd).PrintMessage("Signed out")
			return nil
		},
	}
}

func newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Identity

			if err := client.Get("/api/v1/me", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func saveSession(cmd *cobra.Command, result SessionResult) error {
	if err := cfg.SaveToken(result.SessionToken); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	client.SetToken(result.SessionToken)

	output(cmd).Print(result)
	return nil
}

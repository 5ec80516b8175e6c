package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subvault-dev/subvault-cli/internal/domain"
)

func newTokenCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a validated auth token, recovering it from the store if expired",
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch result := app.coordinator.AuthToken(cmd.Context()).(type) {
			case domain.AuthTokenSuccess:
				_, err := fmt.Fprintln(cmd.OutOrStdout(), result.Token)
				return err
			case domain.AuthTokenExpired:
				return errors.New("auth token is expired and could not be recovered from the store")
			default:
				return errors.New("no valid auth token available")
			}
		},
	}
}

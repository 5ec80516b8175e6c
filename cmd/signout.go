package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSignOutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and clear the locally cached account state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.coordinator.SignOut(cmd.Context())
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return err
		},
	}
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPortalCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "portal",
		Short: "Print the subscription management portal URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := app.coordinator.Portal(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), url)
			return err
		},
	}
}

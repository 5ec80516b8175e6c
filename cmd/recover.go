package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subvault-dev/subvault-cli/internal/domain"
)

func newRecoverCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Restore a subscription from the platform store's purchase history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := app.coordinator.Status(cmd.Context())
			if err != nil {
				return err
			}

			sub, err := app.coordinator.RecoverSubscriptionFromStore(cmd.Context(), status.Account.ExternalID)
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrNoStorePurchase):
					return errors.New("no recoverable purchase found in the store's purchase history")
				case errors.Is(err, domain.ErrExternalIDMismatch):
					return errors.New("the store purchase belongs to a different account; sign out first to recover it")
				default:
					return err
				}
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Subscription %s restored from the store.\n", sub.ProductID)
			return err
		},
	}
}

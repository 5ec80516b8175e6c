package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/subvault-dev/subvault-cli/internal/domain"
)

func newPurchaseCmd(app *app) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "purchase <plan-id>",
		Short: "Purchase a subscription plan through the platform store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			states, unsubscribe := app.coordinator.PurchaseState()
			defer unsubscribe()

			runCtx, stopRun := context.WithCancel(ctx)
			defer stopRun()
			go app.coordinator.Run(runCtx)

			app.coordinator.Purchase(ctx, args[0])

			for {
				select {
				case <-ctx.Done():
					return fmt.Errorf("purchase did not finish: %w", ctx.Err())
				case state := <-states:
					done, err := reportPurchaseState(cmd, state)
					if err != nil {
						return err
					}
					if done {
						return nil
					}
				}
			}
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "how long to wait for the purchase to finish")

	return cmd
}

func reportPurchaseState(cmd *cobra.Command, state domain.PurchaseState) (bool, error) {
	out := cmd.OutOrStdout()

	switch s := state.(type) {
	case domain.PurchasePreFlowInProgress:
		_, _ = fmt.Fprintln(out, "Preparing purchase...")
	case domain.PurchasePreFlowFinished:
		_, _ = fmt.Fprintln(out, "Launching store billing flow...")
	case domain.PurchaseInProgress:
		_, _ = fmt.Fprintln(out, "Confirming purchase with the backend...")
	case domain.PurchaseSuccess:
		_, _ = fmt.Fprintln(out, "Purchase complete. Your subscription is active.")
		return true, nil
	case domain.PurchaseWaiting:
		_, _ = fmt.Fprintln(out, "Purchase registered; confirmation is still pending. Entitlements stay available while we retry in the background.")
		return true, nil
	case domain.PurchaseRecovered:
		_, _ = fmt.Fprintln(out, "An active subscription already exists for this store account; it has been restored instead.")
		return true, nil
	case domain.PurchaseCanceled:
		_, _ = fmt.Fprintln(out, "Purchase canceled.")
		return true, nil
	case domain.PurchaseFailure:
		return true, errors.New("purchase failed: " + s.Message)
	}

	return false, nil
}

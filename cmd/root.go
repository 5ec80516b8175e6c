package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sv",
		Short:         "SubVault CLI (sv): manage your vault subscription and credential imports",
		Long:          "sv (SubVault CLI) keeps the local vault in sync with your subscription backend: check sign-in and entitlement state, run purchase and store-recovery flows, and bulk-import credentials from CSV exports.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newStatusCmd(app),
		newImportCmd(app),
		newPurchaseCmd(app),
		newRecoverCmd(app),
		newSignOutCmd(app),
		newTokenCmd(app),
		newPortalCmd(app),
	)

	return rootCmd
}

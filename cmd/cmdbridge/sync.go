package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newSyncCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile installed wrappers with the config and skills tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.Sync(cmd.Context()); err != nil {
				return err
			}
			records, err := a.Installer.List()
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Synced %d wrappers into %s\n", len(records), a.Installer.BinDir())
			return nil
		},
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cmdbridge/internal/infra/wrapper"
)

func newSearchCmd(opts *cliOptions) *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "search [pattern]",
		Short: "List installed wrappers, optionally filtered by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			pattern := ""
			if len(args) > 0 {
				pattern = args[0]
			}
			records, err := a.Installer.Search(pattern, typ)
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, wrapper.FormatListing(records))
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "all", "wrapper type filter (mcp, skill, all)")
	return cmd
}

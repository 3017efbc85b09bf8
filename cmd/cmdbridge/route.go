package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newRouteCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "route \"<command>\"",
		Short: "Dispatch one command string through the router",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			input := strings.Join(args, " ")
			result, err := a.Router.Route(cmd.Context(), input)
			if err != nil {
				return err
			}
			if result.Stdout != "" {
				fmt.Fprint(os.Stdout, result.Stdout)
			}
			if result.Stderr != "" {
				fmt.Fprint(os.Stderr, result.Stderr)
			}
			if result.ExitCode != 0 {
				return exitSilent(result.ExitCode)
			}
			return nil
		},
	}
}

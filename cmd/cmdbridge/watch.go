package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cmdbridge/internal/domain"
)

func newWatchCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the skills tree and keep wrappers up to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := a.Sync(ctx); err != nil {
				return err
			}

			updates := a.Updater.Subscribe(ctx)
			go func() {
				for event := range updates {
					printUpdate(event)
				}
			}()

			fmt.Fprintf(os.Stdout, "Watching %s (ctrl-c to stop)\n", a.Skills.Root())
			err = a.Watch(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
}

func printUpdate(event domain.UpdateEvent) {
	switch event.Type {
	case domain.UpdateError:
		fmt.Fprintf(os.Stderr, "error  %s/%s: %s\n", event.Skill, event.Script, event.Err)
	default:
		fmt.Fprintf(os.Stdout, "%-9s %s\n", event.Type, event.CommandName)
	}
}

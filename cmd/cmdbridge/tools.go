package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

func newToolsCmd(opts *cliOptions) *cobra.Command {
	tools := &cobra.Command{
		Use:   "tools",
		Short: "Inspect configured tool servers",
	}
	tools.AddCommand(newToolsListCmd(opts))
	return tools
}

func newToolsListCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Connect to every configured server and list its tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			results := a.Manager.ConnectAll(cmd.Context())
			defer a.Manager.DisconnectAll()
			for _, result := range results {
				if !result.Success {
					fmt.Fprintf(os.Stderr, "%s: connect failed: %v\n", result.ServerName, result.Err)
				}
			}

			toolsByServer := a.Manager.ListAllTools(cmd.Context())
			servers := make([]string, 0, len(toolsByServer))
			for server := range toolsByServer {
				servers = append(servers, server)
			}
			sort.Strings(servers)

			for _, server := range servers {
				fmt.Fprintf(os.Stdout, "%s:\n", server)
				for _, tool := range toolsByServer[server] {
					fmt.Fprintf(os.Stdout, "    %-24s %s\n", tool.Name, tool.Description)
				}
			}
			return nil
		},
	}
}

// Package main provides the entry point for the peermark CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for peermark.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "peermark",
		Short: "Annotate web pages with PubPeer comment markers",
		Long: `peermark scans web pages for DOIs, looks them up on PubPeer and
annotates every commented publication with an inline marker and a
summary banner.

Hosts can be opted out once (for the lifetime of a running shell) or
forever (persisted in the local settings database).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	// Add subcommands
	cmd.AddCommand(NewAnnotateCmd())
	cmd.AddCommand(NewHostsCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

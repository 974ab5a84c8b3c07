package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cubewire",
		Short: "Cube 2 network format tools",
		Long: `cubewire inspects and produces data in the Cube 2 network formats.

It canonicalizes address rules, sanitizes chat text, assembles file
packets and serves a file to every peer that connects.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		maskCmd(),
		filterCmd(),
		packCmd(),
		serveCmd(),
	)

	return rootCmd
}

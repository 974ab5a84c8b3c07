package main

import (
	"fmt"

	"github.com/Zereker/cubewire"
	"github.com/spf13/cobra"
)

// maxStringLen is the size of the game's string buffers.
const maxStringLen = 260

func filterCmd() *cobra.Command {
	var (
		whitespace bool
		forceSpace bool
		maxLen     int
	)

	cmd := &cobra.Command{
		Use:   "filter <text>",
		Short: "Strip colour codes and unprintable bytes from text",
		Long: `Print text the way the server sanitizes player supplied strings.

Escape sequences are removed along with the byte after them. Control
whitespace is dropped unless --whitespace is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := cubewire.FilterText(args[0], whitespace, forceSpace, maxLen)
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&whitespace, "whitespace", false, "Keep tabs and newlines")
	cmd.Flags().BoolVar(&forceSpace, "force-space", false, "Turn kept whitespace into spaces")
	cmd.Flags().IntVar(&maxLen, "max", maxStringLen-1, "Maximum output length in bytes")

	return cmd
}

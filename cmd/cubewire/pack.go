package main

import (
	"encoding/hex"
	"fmt"

	"github.com/Zereker/cubewire"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func packCmd() *cobra.Command {
	var (
		file   string
		format string
		ints   []int
		strs   []string
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Assemble a file packet",
		Long: `Build a file packet from a header format and a file, and print its body.

Format directives take their values in order: each 'i' the next --int,
each 's' the next --str. 'l' inserts the file length.

Example:
  cubewire pack --file base.ogz --format i2ls --int 1 --int 2 --str base`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := packArgs(format, ints, strs)
			if err != nil {
				return err
			}

			f, closer, err := cubewire.OpenFile(file)
			if err != nil {
				return err
			}
			defer closer.Close()

			pkt, err := cubewire.MakeFilePacket(f, format, values...)
			if err != nil {
				return errors.Wrapf(err, "pack %s", file)
			}

			out := cmd.OutOrStdout()
			if raw {
				_, err = out.Write(pkt.Body())
				return err
			}
			fmt.Fprintln(out, hex.EncodeToString(pkt.Body()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "File to append to the header")
	cmd.Flags().StringVar(&format, "format", "l", "Header format")
	cmd.Flags().IntSliceVar(&ints, "int", nil, "Value for an 'i' directive (repeatable)")
	cmd.Flags().StringArrayVar(&strs, "str", nil, "Value for an 's' directive (repeatable)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Write the body as raw bytes instead of hex")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// packArgs orders the --int and --str values the way format consumes them.
func packArgs(format string, ints []int, strs []string) ([]any, error) {
	var args []any
	for i := 0; i < len(format); i++ {
		switch format[i] {
		case 'i':
			count := 1
			if i+1 < len(format) && format[i+1] >= '0' && format[i+1] <= '9' {
				i++
				count = int(format[i] - '0')
			}
			for ; count > 0; count-- {
				if len(ints) == 0 {
					return nil, errors.Errorf("format %q needs more --int values", format)
				}
				args = append(args, ints[0])
				ints = ints[1:]
			}
		case 's':
			if len(strs) == 0 {
				return nil, errors.Errorf("format %q needs more --str values", format)
			}
			args = append(args, strs[0])
			strs = strs[1:]
		}
	}

	if len(ints) > 0 || len(strs) > 0 {
		return nil, errors.Errorf("format %q leaves %d --int and %d --str values unused", format, len(ints), len(strs))
	}
	return args, nil
}

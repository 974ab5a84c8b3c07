package main

import (
	"fmt"
	"net"

	"github.com/Zereker/cubewire"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func maskCmd() *cobra.Command {
	var check string

	cmd := &cobra.Command{
		Use:   "mask <rule>...",
		Short: "Print address rules in canonical form",
		Long: `Parse each address rule and print it the way the server stores it.

With --check, each rule is followed by whether the given IPv4 host matches.

Example:
  cubewire mask 192.168.1.0/24 10.1.128.0/17
  cubewire mask --check 10.1.200.3 10.1.128.0/17`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var host net.IP
			if check != "" {
				if host = net.ParseIP(check).To4(); host == nil {
					return errors.Errorf("not an IPv4 address: %q", check)
				}
			}

			out := cmd.OutOrStdout()
			for _, arg := range args {
				rule := cubewire.ParseIPMask(arg)
				if host == nil {
					fmt.Fprintln(out, rule)
					continue
				}

				verdict := "no match"
				if rule.CheckIP(host) {
					verdict = "match"
				}
				fmt.Fprintf(out, "%s\t%s\n", rule, verdict)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&check, "check", "", "IPv4 host to test against each rule")

	return cmd
}

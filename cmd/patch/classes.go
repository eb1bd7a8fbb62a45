package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pipelined.dev/patch"
)

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List registered node classes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range patch.Classes() {
			c, _ := patch.LookupClass(name)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tin: %s\tout: %s\tparams: %s\n",
				name, channels(c.Inputs()), channels(c.Outputs()), params(c.Params()))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classesCmd)
}

func channels(chs []patch.Channel) string {
	idents := make([]string, 0, len(chs))
	for _, ch := range chs {
		if ch.Joint {
			idents = append(idents, ch.Ident+"*")
			continue
		}
		idents = append(idents, ch.Ident)
	}
	return strings.Join(idents, ",")
}

func params(ps []patch.Param) string {
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Name)
	}
	return strings.Join(names, ",")
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pipelined.dev/patch"
	"pipelined.dev/patch/patchfile"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print stored statements of every node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		c := patch.NewContainer(args[0], patch.WithLogger(logger(cmd)))
		if err := patchfile.Load(f, c); err != nil {
			return fmt.Errorf("load %s: %w", args[0], err)
		}
		out := cmd.OutOrStdout()
		for _, n := range c.Nodes() {
			x, y := n.Pos()
			fmt.Fprintf(out, "%s (%s) %g %g\n", n.Name(), n.Class().Name(), x, y)
			for _, s := range n.InputStatements() {
				fmt.Fprintf(out, "  %v\n", s)
			}
			for _, s := range n.AutomationStatements() {
				fmt.Fprintf(out, "  %v\n", s)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pipelined.dev/patch/log"
)

var rootCmd = &cobra.Command{
	Use:   "patch",
	Short: "Patch inspects modular synthesis patches",
	Long:  `Patch loads YAML patch files, checks their wiring against a running engine and prints stored statements.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().Bool("debug", false, "Log engine and linker activity")
}

// logger returns logrus logger writing to command error output.
func logger(cmd *cobra.Command) *logrus.Logger {
	l := log.GetLogger()
	l.SetOutput(cmd.ErrOrStderr())
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pipelined.dev/patch"
	"pipelined.dev/patch/engine"
	"pipelined.dev/patch/metric"
	"pipelined.dev/patch/patchfile"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Check that patches load and wire on a running engine",
	Long:  `Loads every file into its own container, prepares it and creates the requested number of voices. Files are checked concurrently.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		voices, err := cmd.Flags().GetInt("voices")
		if err != nil {
			return err
		}
		if voices < 1 {
			return fmt.Errorf("voices must be positive: %d", voices)
		}
		l := logger(cmd)
		reports := make([]map[string]string, len(args))
		var g errgroup.Group
		for i, path := range args {
			i, path := i, path
			g.Go(func() error {
				r, err := check(path, voices, l)
				if err != nil {
					return fmt.Errorf("check %s: %w", path, err)
				}
				reports[i] = r
				return nil
			})
		}
		err = g.Wait()
		out := cmd.OutOrStdout()
		for i, r := range reports {
			if r == nil {
				continue
			}
			fmt.Fprintf(out, "%s: ok, %s transactions, %s jobs, %s failed\n", args[i],
				r[metric.TransactionCounter], r[metric.JobCounter], r[metric.FailedJobCounter])
		}
		return err
	},
}

func init() {
	checkCmd.Flags().Int("voices", 1, "Number of contexts to create")
	rootCmd.AddCommand(checkCmd)
}

// check loads file and runs its contexts on a dedicated engine.
func check(path string, voices int, l *logrus.Logger) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := metric.New(path)
	e := engine.New(engine.WithLogger(l), engine.WithMetric(m))
	defer e.Close()
	c := patch.NewContainer(path, patch.WithEngine(e), patch.WithLogger(l))
	if err := patchfile.Load(f, c); err != nil {
		return nil, err
	}

	c.Prepare()
	for handle := 1; handle <= voices; handle++ {
		c.CreateContext(handle)
	}
	c.Reset()
	e.Wait()
	report := m.Measure()
	if report[metric.FailedJobCounter] != "0" {
		return report, fmt.Errorf("%s jobs failed", report[metric.FailedJobCounter])
	}
	return report, nil
}

// Command mlbench-report renders packed dataset/metrics records as
// tables, for ad-hoc inspection. Unlike the other five tools it uses
// cobra's subcommand tree rather than flat flag.FlagSet parsing, since
// its two verbs (dataset, trial) take distinct positional arguments.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/llvm-ml-bench/internal/codec"
	"github.com/sarchlab/llvm-ml-bench/internal/report"
)

func main() {
	root := &cobra.Command{
		Use:   "mlbench-report",
		Short: "Render packed llvm-ml-bench records as tables",
	}
	root.AddCommand(newDatasetCmd(), newTrialCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newDatasetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dataset <dataset.cbuf>",
		Short: "Print a table of every entry in a packed dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			entries, err := codec.DecodeDataset(f)
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			report.WriteDataset(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}

func newTrialCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trial <metrics.cbuf>",
		Short: "Print a table of every workload/noise trial in a packed metrics record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			m, err := codec.DecodeMetrics(f)
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			report.WriteTrial(cmd.OutOrStdout(), args[0], m.WorkloadSamples, m.NoiseSamples)
			return nil
		},
	}
}

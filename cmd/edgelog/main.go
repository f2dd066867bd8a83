// Package main implements the edgelog CLI tool.
//
// The edgelog tool reads the traces written by the edgelog runtime:
//
//	edgelog summarize trace.log           # Count edges and edge kinds
//	edgelog summarize -c out.csv a.log b.log
//	edgelog summarize --binary ./server trace.log
//	edgelog cat --relative trace.log.gz   # Decompress, rebase addresses
//
// Both compact and enriched traces are accepted, plain or gzip compressed.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})
	return l
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "edgelog",
		Short: "Inspect control-flow edge traces",
		Long: `edgelog reads the traces written by programs instrumented with the
edgelog runtime (EDGE_LOG_PATH=...). It accepts compact traces
("base_addr,..." header followed by "prev,cur" lines) and enriched traces
("[file:function:line] kind @0xpc" lines), plain or gzip compressed.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug messages")

	root.AddCommand(newSummarizeCmd(), newCatCmd())
	return root
}

package main

import (
	"lgtnav/internal/version"

	"github.com/spf13/cobra"
)

var (
	// rootFlag is the workspace root; defaults to the working directory
	rootFlag string
	// formatFlag selects json, yaml or human output
	formatFlag string
	// verbosity lowers the log threshold once per -v
	verbosity int
	quiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "lgtnav",
	Short: "lgtnav - Logtalk navigation from the command line",
	Long: `lgtnav drives the Logtalk reflection engine to answer navigation queries
(callers, callees, ancestors, descendants, references, type definitions) and
to collect test results and code metrics for a workspace.

Each query runs the engine, reads the result file it leaves in the workspace,
and prints positions recomputed against the current source text.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("lgtnav version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Workspace root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", string(FormatHuman), "Output format (json, yaml, human)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Disable logging")
}

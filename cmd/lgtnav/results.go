package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lgtnav/internal/dispatch"
)

var (
	testsPos   positionFlags
	testsRun   bool
	metricsPos positionFlags
	metricsRun bool
)

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "Show test results for a file",
	Long: `Show test results for a file.

With --run the engine runs the tests for the file's directory first and the
results replace what is cached for every file they mention. Without it, any
result file already left by the engine is collected and the cached results
are shown, marked as possibly outdated when sources changed since the last run.`,
	Example: `  lgtnav tests --file tests/tester.lgt --run
  lgtnav tests --file src/app.lgt --format json`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		op := dispatch.OpTestResults
		if testsRun {
			op = dispatch.OpRunTests
		}
		runResults(op, &testsPos)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show cyclomatic complexity scores for a file",
	Example: `  lgtnav metrics --file src/app.lgt --run
  lgtnav metrics --file src/app.lgt --format yaml`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		op := dispatch.OpMetrics
		if metricsRun {
			op = dispatch.OpRunMetrics
		}
		runResults(op, &metricsPos)
	},
}

func init() {
	testsPos.register(testsCmd, false)
	testsCmd.Flags().BoolVar(&testsRun, "run", false, "Run the tests before showing results")
	metricsPos.register(metricsCmd, false)
	metricsCmd.Flags().BoolVar(&metricsRun, "run", false, "Compute metrics before showing them")
	rootCmd.AddCommand(testsCmd, metricsCmd)
}

func runResults(op dispatch.Operation, pos *positionFlags) {
	s := mustOpenSession()
	defer s.Close()

	ctx, cancel := newContext()
	defer cancel()

	result, err := s.facade.Dispatch(ctx, op, pos.request(s.root))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	printResult(result)
}

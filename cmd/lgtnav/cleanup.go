package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove leftover engine result files from the workspace",
	Args:  cobra.NoArgs,
	Run:   runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()

	removed := s.swept + s.facade.Cleanup()
	printResult(&CleanupResponseCLI{Root: s.root, Removed: removed})
}

// CleanupResponseCLI reports a cleanup pass.
type CleanupResponseCLI struct {
	Root    string `json:"root" yaml:"root"`
	Removed int    `json:"removed" yaml:"removed"`
}

func (r *CleanupResponseCLI) String() string {
	return fmt.Sprintf("Removed %d result file(s) under %s", r.Removed, r.Root)
}

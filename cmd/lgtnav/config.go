package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lgtnav/internal/config"
	"lgtnav/internal/engine"
	"lgtnav/internal/slogutil"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the workspace configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (file, environment and defaults merged)",
	Args:  cobra.NoArgs,
	Run:   runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to .lgtnav/config.json",
	Args:  cobra.NoArgs,
	Run:   runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	root, err := resolveRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadConfig(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	runner := engine.NewExecRunner(cfg.Engine, slogutil.NewDiscardLogger())
	if _, err := runner.LookPath(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: engine command %q not found: %v\n", cfg.Engine.Command, err)
	}
	if OutputFormat(formatFlag) == FormatHuman {
		formatFlag = string(FormatYAML)
	}
	printResult(cfg)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	root, err := resolveRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := slogutil.NewLogger(os.Stderr, slogutil.LevelFromVerbosity(verbosity, quiet))

	path := config.ConfigPath(root)
	if _, err := os.Stat(path); err == nil && !configInitForce {
		fmt.Fprintf(os.Stderr, "Config already exists at %s (use --force to overwrite)\n", path)
		os.Exit(1)
	}
	if err := config.DefaultConfig().Save(root); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		os.Exit(1)
	}
	logger.Info("Wrote default config", "path", path)
	fmt.Println(path)
}

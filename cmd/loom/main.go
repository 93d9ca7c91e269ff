// Package main is loom's CLI entrypoint: interact, check, benchmark and
// translate subcommands over cobra, with zap handling diagnostic logging
// and internal/telemetry handling the structured per-run event trail. A
// package-level rootCmd carries the persistent flags; PersistentPreRunE
// builds the logger and initializes the workspace-scoped trail; main
// runs Execute and exits with the code exitCodeFor assigns the error.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"loom/internal/telemetry"
)

var (
	verbose   bool
	workspace string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "A Programming-By-Navigation synthesizer",
	Long: "loom builds well-typed expressions one hole at a time, guided by a\n" +
		"Datalog inhabitation oracle that tells you, at each step, which\n" +
		"choices still lead somewhere.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		logger = l

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		} else if abs, err := filepath.Abs(ws); err == nil {
			ws = abs
		}
		if err := telemetry.Initialize(ws); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize telemetry: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		telemetry.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory for telemetry logs (default: current directory)")

	rootCmd.AddCommand(interactCmd, checkCmd, benchmarkCmd, translateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

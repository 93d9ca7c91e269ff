package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loom/internal/pbn"
	"loom/internal/validity"
)

var (
	checkLibrary   string
	checkProgram   string
	checkAlgorithm string
	checkConfig    string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether a ground well-typed expression exists",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkLibrary, "library", "", "library TOML file (required)")
	checkCmd.Flags().StringVar(&checkProgram, "program", "", "program TOML file (required)")
	checkCmd.Flags().StringVar(&checkAlgorithm, "algorithm", "oracle", "inhabitation algorithm: \"oracle\" or \"enumerate\"")
	checkCmd.Flags().StringVar(&checkConfig, "config", "", "loom config YAML file (default: built-in defaults)")
	checkCmd.MarkFlagRequired("library")
	checkCmd.MarkFlagRequired("program")
}

func runCheck(cmd *cobra.Command, args []string) error {
	problem, err := loadProblem(checkLibrary, checkProgram)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(checkConfig)
	if err != nil {
		return newExitError(2, err)
	}

	ps, err := buildProviderSet(checkAlgorithm, problem, cfg)
	if err != nil {
		return newExitError(2, err)
	}
	checker := validity.New(problem)
	tm := timerFor(cfg)

	var found bool
	if ps.any != nil {
		_, found, err = ps.any.Any(tm)
	} else {
		_, found, err = pbn.AnyFromProvider(ps.provider, checker, cfg.MaxSketchSize, tm)
	}
	if err != nil {
		return newExitError(2, err)
	}
	if !found {
		fmt.Fprintln(os.Stderr, "no")
		return newExitError(1, fmt.Errorf("no ground well-typed expression exists"))
	}
	fmt.Println("yes")
	return nil
}

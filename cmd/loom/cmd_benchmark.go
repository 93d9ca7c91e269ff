package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"loom/internal/config"
	"loom/internal/pbn"
	"loom/internal/validity"
)

var (
	benchSuite      string
	benchAlgorithms string
	benchReplicates int
	benchTimeout    int
	benchFilter     string
	benchLimit      int
	benchParallel   bool
	benchConfig     string
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Time Any-synthesis across a suite of library/program cases",
	RunE:  runBenchmark,
}

func init() {
	benchmarkCmd.Flags().StringVar(&benchSuite, "suite", "", "comma-separated list of suite directories (required)")
	benchmarkCmd.Flags().StringVar(&benchAlgorithms, "algorithms", "oracle,enumerate", "comma-separated list of algorithms to run")
	benchmarkCmd.Flags().IntVar(&benchReplicates, "replicates", 1, "number of timed repetitions per case/algorithm")
	benchmarkCmd.Flags().IntVar(&benchTimeout, "timeout", 10, "per-run timeout, in seconds")
	benchmarkCmd.Flags().StringVar(&benchFilter, "filter", "", "only run cases whose name contains this substring")
	benchmarkCmd.Flags().IntVar(&benchLimit, "limit", 0, "cap the number of cases run (0 means no cap)")
	benchmarkCmd.Flags().BoolVar(&benchParallel, "parallel", false, "accepted for compatibility; benchmark runs are always sequential (see DESIGN.md)")
	benchmarkCmd.Flags().StringVar(&benchConfig, "config", "", "loom config YAML file (default: built-in defaults)")
	benchmarkCmd.MarkFlagRequired("suite")
}

// benchCase is one library/program pair discovered under a suite
// directory.
type benchCase struct {
	name        string
	libraryPath string
	programPath string
}

// discoverCases finds every case under suiteDir: either suiteDir itself,
// if it directly holds library.toml and program.toml, or its immediate
// subdirectories that do.
func discoverCases(suiteDir string) ([]benchCase, error) {
	if isCaseDir(suiteDir) {
		return []benchCase{{
			name:        filepath.Base(suiteDir),
			libraryPath: filepath.Join(suiteDir, "library.toml"),
			programPath: filepath.Join(suiteDir, "program.toml"),
		}}, nil
	}

	entries, err := os.ReadDir(suiteDir)
	if err != nil {
		return nil, fmt.Errorf("reading suite directory %s: %w", suiteDir, err)
	}
	var cases []benchCase
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(suiteDir, entry.Name())
		if !isCaseDir(dir) {
			continue
		}
		cases = append(cases, benchCase{
			name:        entry.Name(),
			libraryPath: filepath.Join(dir, "library.toml"),
			programPath: filepath.Join(dir, "program.toml"),
		})
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].name < cases[j].name })
	return cases, nil
}

func isCaseDir(dir string) bool {
	_, errL := os.Stat(filepath.Join(dir, "library.toml"))
	_, errP := os.Stat(filepath.Join(dir, "program.toml"))
	return errL == nil && errP == nil
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(benchConfig)
	if err != nil {
		return newExitError(2, err)
	}
	cfg.QueryTimeout = time.Duration(benchTimeout) * time.Second

	var allCases []benchCase
	for _, dir := range strings.Split(benchSuite, ",") {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		cases, err := discoverCases(dir)
		if err != nil {
			return newExitError(2, err)
		}
		allCases = append(allCases, cases...)
	}

	if benchFilter != "" {
		var filtered []benchCase
		for _, c := range allCases {
			if strings.Contains(c.name, benchFilter) {
				filtered = append(filtered, c)
			}
		}
		allCases = filtered
	}
	if benchLimit > 0 && len(allCases) > benchLimit {
		allCases = allCases[:benchLimit]
	}

	algorithms := strings.Split(benchAlgorithms, ",")
	for i := range algorithms {
		algorithms[i] = strings.TrimSpace(algorithms[i])
	}

	// --parallel is accepted but has no effect: every run below is
	// sequential (see DESIGN.md).
	fmt.Printf("%-24s %-12s %8s %8s %10s\n", "case", "algorithm", "ok", "total", "mean_ms")
	for _, c := range allCases {
		for _, algo := range algorithms {
			ok, total, mean, err := runBenchCase(c, algo, cfg)
			if err != nil {
				fmt.Printf("%-24s %-12s error: %v\n", c.name, algo, err)
				continue
			}
			fmt.Printf("%-24s %-12s %8d %8d %10.2f\n", c.name, algo, ok, total, mean)
		}
	}
	return nil
}

func runBenchCase(c benchCase, algo string, cfg config.Config) (ok, total int, meanMS float64, err error) {
	problem, err := loadProblem(c.libraryPath, c.programPath)
	if err != nil {
		return 0, 0, 0, err
	}

	var elapsed time.Duration
	for i := 0; i < benchReplicates; i++ {
		ps, err := buildProviderSet(algo, problem, cfg)
		if err != nil {
			return 0, 0, 0, err
		}
		tm := timerFor(cfg)

		start := time.Now()
		var found bool
		if ps.any != nil {
			_, found, err = ps.any.Any(tm)
		} else {
			checker := validity.New(problem)
			_, found, err = pbn.AnyFromProvider(ps.provider, checker, cfg.MaxSketchSize, tm)
		}
		elapsed += time.Since(start)
		total++
		if err != nil {
			continue
		}
		if found {
			ok++
		}
	}
	if total == 0 {
		return 0, 0, 0, nil
	}
	return ok, total, float64(elapsed.Milliseconds()) / float64(total), nil
}

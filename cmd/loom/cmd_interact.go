package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"loom/internal/config"
	"loom/internal/core"
	"loom/internal/pbn"
	"loom/internal/sketch"
	"loom/internal/synth"
	"loom/internal/timer"
	"loom/internal/validity"
)

var (
	interactLibrary   string
	interactProgram   string
	interactStyle     string
	interactAlgorithm string
	interactJSON      string
	interactQuiet     bool
	interactConfig    string
)

var interactCmd = &cobra.Command{
	Use:   "interact",
	Short: "Navigate a sketch to completion, one step at a time",
	RunE:  runInteract,
}

func init() {
	interactCmd.Flags().StringVar(&interactLibrary, "library", "", "library TOML file (required)")
	interactCmd.Flags().StringVar(&interactProgram, "program", "", "program TOML file (required)")
	interactCmd.Flags().StringVar(&interactStyle, "style", "text", "step presentation style: \"text\" or \"json\"")
	interactCmd.Flags().StringVar(&interactAlgorithm, "algorithm", "oracle", "inhabitation algorithm: \"oracle\" or \"enumerate\"")
	interactCmd.Flags().StringVar(&interactJSON, "json", "", "write the resulting expression as Expression JSON to this path")
	interactCmd.Flags().BoolVar(&interactQuiet, "quiet", false, "skip the interactive prompt, taking the first offered step each time")
	interactCmd.Flags().StringVar(&interactConfig, "config", "", "loom config YAML file (default: built-in defaults)")
	interactCmd.MarkFlagRequired("library")
	interactCmd.MarkFlagRequired("program")
}

func runInteract(cmd *cobra.Command, args []string) error {
	problem, err := loadProblem(interactLibrary, interactProgram)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(interactConfig)
	if err != nil {
		return newExitError(2, err)
	}

	ps, err := buildProviderSet(interactAlgorithm, problem, cfg)
	if err != nil {
		return newExitError(2, err)
	}
	checker := validity.New(problem)
	tm := timerFor(cfg)

	var final sketch.Sketch[core.ParameterizedFunction]
	var found bool
	if interactQuiet {
		final, found, err = pbn.AnyFromProvider(ps.provider, checker, cfg.MaxSketchSize, tm)
	} else {
		final, found, err = interactiveLoop(ps.provider, checker, cfg, tm)
	}
	if err != nil {
		return newExitError(2, err)
	}
	if !found {
		fmt.Fprintln(os.Stderr, "not possible: no ground well-typed expression reachable")
		return newExitError(1, fmt.Errorf("no solution"))
	}

	if err := emitResult(final, interactJSON); err != nil {
		return newExitError(2, err)
	}
	return nil
}

// interactiveLoop implements user-driven loop over stdin:
// at each iteration it presents the provider's offered steps, reads a
// choice, and applies it, until the sketch is ground and accepted or no
// steps remain.
func interactiveLoop(provider synth.StepProvider, checker synth.ValidityChecker, cfg config.Config, tm timer.Timer) (sketch.Sketch[core.ParameterizedFunction], bool, error) {
	ctrl := pbn.New(provider, checker)
	reader := bufio.NewReader(os.Stdin)

	for {
		if err := tm.Tick(); err != nil {
			return sketch.Sketch[core.ParameterizedFunction]{}, false, err
		}
		if ctrl.Done() {
			return ctrl.Sketch(), true, nil
		}
		if sketch.Size(ctrl.Sketch()) >= cfg.MaxSketchSize {
			return sketch.Sketch[core.ParameterizedFunction]{}, false, timer.ErrOutOfMemory
		}

		steps, err := ctrl.Provide(tm)
		if err == pbn.ErrNoSteps {
			return sketch.Sketch[core.ParameterizedFunction]{}, false, nil
		}
		if err != nil {
			return sketch.Sketch[core.ParameterizedFunction]{}, false, err
		}

		presentSteps(steps, interactStyle)
		choice, err := readChoice(reader, len(steps))
		if err != nil {
			return sketch.Sketch[core.ParameterizedFunction]{}, false, err
		}
		if err := ctrl.Apply(steps[choice]); err != nil {
			return sketch.Sketch[core.ParameterizedFunction]{}, false, err
		}
	}
}

func presentSteps(steps []sketch.Step[core.ParameterizedFunction], style string) {
	if style == "json" {
		for i, s := range steps {
			fmt.Printf("%d: %s\n", i, stepJSON(s))
		}
		return
	}
	for i, s := range steps {
		fmt.Printf("%d: %s\n", i, stepText(s))
	}
}

func stepText(s sketch.Step[core.ParameterizedFunction]) string {
	hole, fn := s.Describe()
	return fmt.Sprintf("fill hole %d with %s", hole, fn.String())
}

func stepJSON(s sketch.Step[core.ParameterizedFunction]) string {
	hole, fn := s.Describe()
	return fmt.Sprintf(`{"hole":%d,"function":%q}`, hole, fn.String())
}

func readChoice(reader *bufio.Reader, n int) (int, error) {
	for {
		fmt.Printf("choose a step [0-%d]: ", n-1)
		line, err := reader.ReadString('\n')
		if err != nil {
			return 0, fmt.Errorf("reading choice: %w", err)
		}
		line = strings.TrimSpace(line)
		i, err := strconv.Atoi(line)
		if err != nil || i < 0 || i >= n {
			fmt.Println("invalid choice, try again")
			continue
		}
		return i, nil
	}
}

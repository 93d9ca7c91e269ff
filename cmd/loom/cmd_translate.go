package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loom/internal/frontend"
)

var (
	translatePath string
	translateSize bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Emit the target-code form of a serialized expression",
	RunE:  runTranslate,
}

func init() {
	translateCmd.Flags().StringVar(&translatePath, "path", "", "Expression JSON file (required)")
	translateCmd.Flags().BoolVar(&translateSize, "size", false, "also print the expression's node count")
	translateCmd.MarkFlagRequired("path")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(translatePath)
	if err != nil {
		return newExitError(2, fmt.Errorf("reading %s: %w", translatePath, err))
	}

	code, err := frontend.TranslateExpression(data)
	if err != nil {
		return newExitError(2, err)
	}
	fmt.Println(code)

	if translateSize {
		n, err := frontend.ExpressionSize(data)
		if err != nil {
			return newExitError(2, err)
		}
		fmt.Printf("size: %d\n", n)
	}
	return nil
}

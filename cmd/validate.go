// =============================================================================
// Hoshuko Library Tools - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It runs the roster checks of the
// pipeline and prints what it finds, without writing any file.
//
// COMMAND USAGE:
//   hoshuko validate <file or directory>...
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/ginjaninja78/hoshuko-library-tools/internal/converter"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/validation"
	"github.com/ginjaninja78/hoshuko-library-tools/pkg/utils"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files or directories...]",
	Short: "Check rosters without writing output",
	Long: `The validate command checks that each roster has the required columns and
reports rows with empty values, unknown grade codes or duplicate student
numbers. Nothing is written.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	inputFiles, err := utils.DiscoverInputFiles(args)
	if err != nil {
		return fmt.Errorf("failed to discover input files: %w", err)
	}

	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No roster files selected. Nothing to do.")
		return nil
	}

	conv, err := converter.New(mainConfig, logger)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range inputFiles {
		result := conv.Check(path)
		name := filepath.Base(path)

		if result.Success {
			fmt.Fprintf(out, "✓ %s: %d student(s), %d warning(s)\n",
				name, result.Stats.RecordsCreated, result.Stats.Warnings)
		} else {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", name, result.Error)
		}

		if len(result.Problems) > 0 {
			fmt.Fprintln(out, validation.FormatErrors(result.Problems))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed validation", failed, len(inputFiles))
	}

	return nil
}

// =============================================================================
// Hoshuko Library Tools - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs roster files through
// the pipeline and writes one artifact per file.
//
// COMMAND USAGE:
//   hoshuko process [flags] <file or directory>...
//
// FLAGS:
//   --mode        import (default), cards or list
//   --output-dir  Override output_dir from the configuration
//   --dry-run     Run every step but write nothing
//
// Files are processed concurrently, at most max_concurrency at a time. A
// failed file does not stop the others.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/ginjaninja78/hoshuko-library-tools/internal/converter"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/types"
	"github.com/ginjaninja78/hoshuko-library-tools/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// modeName selects the artifact to produce.
var modeName string

// outputDir overrides the configured output directory when set.
var outputDir string

// dryRun processes files without writing output.
var dryRun bool

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process [files or directories...]",
	Short: "Convert rosters to a library import file, cards or lists",
	Long: `The process command reads each roster, checks its columns and rows, and
writes the artifact for the selected mode to the output directory:

  import  hoshuko-lib-import-<date>.tsv, one library user per student
  cards   hoshuko-cards-<date>.xlsx, barcode and name sides per grade
  list    hoshuko-list-<date>.xlsx, one class list sheet per grade

Directories are searched for .csv, .tsv, .txt, .xlsx and .xlsm files.

Row problems (empty cells, unknown grades, duplicate student numbers) are
written to an error log in the output directory. A roster missing a required
column is skipped.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, args)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(
		&modeName,
		"mode",
		"m",
		types.ModeImport.String(),
		"Output mode: import, cards or list",
	)

	processCmd.Flags().StringVarP(
		&outputDir,
		"output-dir",
		"o",
		"",
		"Directory for generated files (overrides output_dir)",
	)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Simulate processing without writing output files",
	)
}

// =============================================================================
// PROCESS LOGIC
// =============================================================================

// runProcess executes the processing logic.
//
// PROCESSING STEPS:
//   1. Resolve the mode and the input files
//   2. Run every file through the pipeline
//   3. Print per-file results and a summary
//   4. Write the summary log
func runProcess(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	mode, err := types.ParseMode(modeName)
	if err != nil {
		return err
	}

	cfg := *mainConfig
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}

	// =========================================================================
	// STEP 1: DISCOVER INPUT FILES
	// =========================================================================

	inputFiles, err := utils.DiscoverInputFiles(args)
	if err != nil {
		return fmt.Errorf("failed to discover input files: %w", err)
	}

	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No roster files selected. Nothing to do.")
		return nil
	}

	fmt.Fprintf(out, "=== Hoshuko Library Tools: %s ===\n", mode)
	fmt.Fprintf(out, "Found %d file(s) to process\n", len(inputFiles))
	if dryRun {
		fmt.Fprintln(out, "Dry run: no files will be written.")
	}

	// =========================================================================
	// STEP 2: RUN THE PIPELINE
	// =========================================================================

	conv, err := converter.New(&cfg, logger, converter.WithDryRun(dryRun))
	if err != nil {
		return err
	}

	fm := utils.NewFileManager(cfg.OutputDir)
	summary := utils.ProcessingSummary{
		StartTime:  fm.Now(),
		Mode:       mode.String(),
		TotalFiles: len(inputFiles),
	}

	results := conv.RunBatch(cmd.Context(), inputFiles, mode, cfg.MaxConcurrency)

	summary.EndTime = fm.Now()

	// =========================================================================
	// STEP 3: REPORT
	// =========================================================================

	for _, result := range results {
		name := filepath.Base(result.FilePath)

		if !result.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    result.FilePath,
				ErrorMessage: result.Error.Error(),
			})
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, result.Error)
			if result.ErrorLog != "" {
				fmt.Fprintf(out, "    see %s\n", result.ErrorLog)
			}
			continue
		}

		summary.SuccessfulFiles++
		summary.TotalRows += result.Stats.RowsProcessed
		summary.TotalRecords += result.Stats.RecordsCreated
		summary.TotalPages += result.Stats.PagesCreated
		summary.Warnings += result.Stats.Warnings
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   result.FilePath,
			OutputFile:  result.OutputFile,
			Rows:        result.Stats.RowsProcessed,
			Records:     result.Stats.RecordsCreated,
			Pages:       result.Stats.PagesCreated,
			ProcessTime: result.Stats.ProcessingTime,
		})

		fmt.Fprintf(out, "  ✓ %s -> %s\n", name, result.OutputFile)
		switch {
		case result.Stats.Warnings > 0 && result.ErrorLog != "":
			fmt.Fprintf(out, "    %d warning(s), see %s\n", result.Stats.Warnings, result.ErrorLog)
		case result.Stats.Warnings > 0:
			fmt.Fprintf(out, "    %d warning(s)\n", result.Stats.Warnings)
		}
	}

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Students:        %d\n", summary.TotalRecords)
	if mode.Paginated() {
		fmt.Fprintf(out, "Pages:           %d\n", summary.TotalPages)
	}
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))

	// =========================================================================
	// STEP 4: SUMMARY LOG
	// =========================================================================

	if !dryRun && len(inputFiles) > 1 {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
		path, err := fm.WriteSummaryLog(summary)
		if err != nil {
			logger.Warn("failed to write summary log", zap.Error(err))
		} else {
			fmt.Fprintf(out, "Summary:         %s\n", path)
		}
	}

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}

	return nil
}

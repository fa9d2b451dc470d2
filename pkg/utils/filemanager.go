// =============================================================================
// Hoshuko Library Tools - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the pipeline:
//   - Input discovery (files and directories given on the command line)
//   - Output naming from configurable patterns
//   - Collision-free creation of output files
//   - Error log and processing summary generation
//
// OUTPUT NAMING:
//   Patterns may contain these placeholders:
//     {date}      2006-01-02
//     {timestamp} 20060102_150405
//     {uuid}      a random UUID
//     {mode}      import, cards or list
//     {original}  the input file name without its extension
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RosterExtensions lists the input file extensions the pipeline can read.
var RosterExtensions = []string{".csv", ".tsv", ".txt", ".xlsx", ".xlsm"}

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the pipeline.
type FileManager struct {
	// OutputDir is the directory where artifacts and logs are placed.
	OutputDir string

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewFileManager creates a FileManager for outputDir.
func NewFileManager(outputDir string) *FileManager {
	return &FileManager{
		OutputDir: outputDir,
		Now:       time.Now,
	}
}

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

// EnsureDirectories creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureDirectories() error {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// =============================================================================
// INPUT DISCOVERY
// =============================================================================

// DiscoverInputFiles expands command line arguments into roster files.
//
// PARAMETERS:
//   - args: File paths or directories. Directories are walked recursively
//     and contribute every file with a roster extension, in lexical order.
//
// RETURNS:
//   - The files, in argument order. Explicit file paths are kept whatever
//     their extension so the pipeline can report why it cannot read them.
//   - An error if an argument does not exist.
func DiscoverInputFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat input %s: %w", arg, err)
		}

		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if IsRosterFile(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk input directory: %w", err)
		}

		sort.Strings(found)
		files = append(files, found...)
	}

	return files, nil
}

// IsRosterFile reports whether path has a roster extension.
func IsRosterFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range RosterExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// =============================================================================
// OUTPUT NAMING
// =============================================================================

// GenerateOutputFileName fills the placeholders of an output name pattern.
//
// PARAMETERS:
//   - format: The pattern, e.g. "hoshuko-lib-import-{date}.tsv".
//   - params: Extra placeholders, keyed without braces ("mode", "original").
//   - now:    The time used for {date} and {timestamp}.
//
// RETURNS:
//   - The file name. Path separators are replaced so the name stays inside
//     the output directory.
func GenerateOutputFileName(format string, params map[string]string, now time.Time) string {
	replacements := map[string]string{
		"{date}":      now.Format("2006-01-02"),
		"{timestamp}": now.Format("20060102_150405"),
	}

	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Each {uuid} gets its own value.
	for strings.Contains(result, "{uuid}") {
		result = strings.Replace(result, "{uuid}", uuid.New().String(), 1)
	}

	return strings.NewReplacer("/", "_", "\\", "_").Replace(result)
}

// OriginalName returns the base name of path without its extension.
func OriginalName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CreateOutputFile creates name in the output directory without replacing an
// existing file. When name is taken, "-2", "-3", ... is inserted before the
// extension. Creation uses O_EXCL, so concurrent runs never share a file.
//
// RETURNS:
//   - The open file; the caller closes it.
//   - An error if no free name is found or the file cannot be created.
func (fm *FileManager) CreateOutputFile(name string) (*os.File, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for attempt := 1; attempt <= 100; attempt++ {
		candidate := name
		if attempt > 1 {
			candidate = fmt.Sprintf("%s-%d%s", stem, attempt, ext)
		}

		path := filepath.Join(fm.OutputDir, candidate)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return file, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
	}

	return nil, fmt.Errorf("failed to create output file: no free name for %s", name)
}

// =============================================================================
// ERROR LOGGING
// =============================================================================

// ErrorLogEntry represents a single entry in the error log.
type ErrorLogEntry struct {
	Timestamp    time.Time
	FileName     string
	Severity     string
	ErrorType    string
	ErrorMessage string
	RowNumber    int
	FieldName    string
	FieldValue   string
	StudentID    string
}

// WriteErrorLog writes entries to error_log_<timestamp>.txt in the output
// directory.
//
// RETURNS:
//   - The path to the log, or "" when there are no entries.
//   - An error if the log cannot be written.
func (fm *FileManager) WriteErrorLog(entries []ErrorLogEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	now := fm.now()
	logFileName := fmt.Sprintf("error_log_%s.txt", now.Format("20060102_150405"))

	file, err := fm.CreateOutputFile(logFileName)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Hoshuko Library Tools - Error Log\n"+
		"Generated: %s\n"+
		"Total Entries: %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Entry #%d\n"+
			"  Timestamp:   %s\n"+
			"  File:        %s\n"+
			"  Severity:    %s\n"+
			"  Error Type:  %s\n"+
			"  Message:     %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.FileName,
			entry.Severity,
			entry.ErrorType,
			entry.ErrorMessage)

		if entry.RowNumber > 0 {
			fmt.Fprintf(writer, "  Row Number:  %d\n", entry.RowNumber)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(writer, "  Field:       %s\n", entry.FieldName)
		}
		if entry.FieldValue != "" {
			fmt.Fprintf(writer, "  Value:       %s\n", entry.FieldValue)
		}
		if entry.StudentID != "" {
			fmt.Fprintf(writer, "  Student:     %s\n", entry.StudentID)
		}

		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return file.Name(), nil
}

// =============================================================================
// SUMMARY LOGGING
// =============================================================================

// ProcessingSummary contains the outcome of a batch of runs.
type ProcessingSummary struct {
	StartTime       time.Time
	EndTime         time.Time
	Mode            string
	TotalFiles      int
	SuccessfulFiles int
	FailedFiles     int
	TotalRows       int
	TotalRecords    int
	TotalPages      int
	Warnings        int
	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo contains information about a successful run.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	Rows        int
	Records     int
	Pages       int
	ProcessTime time.Duration
}

// FailedFileInfo contains information about a failed run.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes processing_summary_<timestamp>.txt to the output
// directory and returns its path.
func (fm *FileManager) WriteSummaryLog(summary ProcessingSummary) (string, error) {
	summaryFileName := fmt.Sprintf("processing_summary_%s.txt", fm.now().Format("20060102_150405"))

	file, err := fm.CreateOutputFile(summaryFileName)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Hoshuko Library Tools - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Mode:           %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Total Files:    %d\n"+
		"  Successful:     %d\n"+
		"  Failed:         %d\n"+
		"  Total Rows:     %d\n"+
		"  Total Records:  %d\n"+
		"  Total Pages:    %d\n"+
		"  Warnings:       %d\n\n",
		summary.Mode,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.FailedFiles,
		summary.TotalRows,
		summary.TotalRecords,
		summary.TotalPages,
		summary.Warnings)

	if len(summary.ProcessedFiles) > 0 {
		writer.WriteString("Successful Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, pf := range summary.ProcessedFiles {
			fmt.Fprintf(writer, "  Input:        %s\n", pf.InputFile)
			fmt.Fprintf(writer, "  Output:       %s\n", pf.OutputFile)
			fmt.Fprintf(writer, "  Rows:         %d\n", pf.Rows)
			fmt.Fprintf(writer, "  Records:      %d\n", pf.Records)
			fmt.Fprintf(writer, "  Pages:        %d\n", pf.Pages)
			fmt.Fprintf(writer, "  Process Time: %s\n\n", pf.ProcessTime.String())
		}
	}

	if len(summary.FailedFilesList) > 0 {
		writer.WriteString("Failed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(writer, "  File:  %s\n", ff.InputFile)
			fmt.Fprintf(writer, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return file.Name(), nil
}

// =============================================================================
// Hoshuko Library Tools - Converter Module
// =============================================================================
//
// This module contains the roster pipeline. It runs one input file from
// parsing to the written artifact.
//
// PIPELINE:
//   1. Parse the roster (delimited text or XLSX, chosen by extension)
//   2. Check the header row against the required columns
//   3. Apply cell transformation rules
//   4. Normalize rows into student records
//   5. Check the records (empty values, unknown grades, duplicates)
//   6. Emit the artifact for the mode:
//        import -> tab-separated user import file
//        cards  -> paginated card workbook
//        list   -> paginated list workbook
//   7. Write the error log when the checks reported problems
//
// CONCURRENCY:
//   A Converter holds only read-only state after New, so one instance may
//   run several files at once (see RunBatch).
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/hoshuko-library-tools/internal/config"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/csvparser"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/grade"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/sheetwriter"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/tsvwriter"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/types"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/validation"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/xlsxparser"
	"github.com/ginjaninja78/hoshuko-library-tools/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrSchema means the roster lacks required columns.
	ErrSchema = errors.New("roster is missing required columns")

	// ErrParse means the roster could not be read.
	ErrParse = errors.New("failed to read roster")

	// ErrRows means the row checks reported errors.
	ErrRows = errors.New("roster rows failed validation")

	// ErrUnsupportedInput means the file extension is not a roster format.
	ErrUnsupportedInput = errors.New("unsupported input file type")
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// Mode is the output mode of the run.
	Mode types.Mode

	// RunID identifies the run in logs.
	RunID string

	// OutputFile is the path to the generated artifact, empty on failure.
	// On a dry run it is the path that would have been used.
	OutputFile string

	// ErrorLog is the path to the error log, if one was written.
	ErrorLog string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed. Check it against the
	// Err* sentinels with errors.Is.
	Error error

	// MissingFields lists the absent required columns on a schema failure.
	MissingFields []string

	// Problems holds every row check finding, warnings included.
	Problems []*validation.ValidationError

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsProcessed is the number of non-empty data rows read.
	RowsProcessed int

	// RecordsCreated is the number of student records produced.
	RecordsCreated int

	// PagesCreated is the number of printed pages (cards and list modes).
	PagesCreated int

	// Warnings is the number of row check warnings.
	Warnings int

	// Errors is the number of row check errors.
	Errors int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the roster pipeline.
type Converter struct {
	config      *config.MainConfig
	logger      *zap.Logger
	files       *utils.FileManager
	transformer *Transformer
	normalizer  *Normalizer
	validator   *validation.Validator
	dryRun      bool
	now         func() time.Time
}

// Option configures a Converter.
type Option func(*Converter)

// WithDryRun runs every step except writing files.
func WithDryRun(dryRun bool) Option {
	return func(c *Converter) { c.dryRun = dryRun }
}

// WithClock replaces time.Now, for file names and logs.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// WithGradeTable replaces the standard grade tables.
func WithGradeTable(table *grade.Table) Option {
	return func(c *Converter) { c.normalizer = NewNormalizer(c.config.Columns, table) }
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter.
//
// PARAMETERS:
//   - cfg:    The application configuration. Nil means config.Default().
//   - logger: The logger. Nil means zap.NewNop().
//
// RETURNS:
//   - A Converter ready to run files.
//   - An error if the transformation rules cannot be compiled.
func New(cfg *config.MainConfig, logger *zap.Logger, opts ...Option) (*Converter, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	transformer, err := NewTransformer(cfg.TransformationRules)
	if err != nil {
		return nil, fmt.Errorf("failed to build transformer: %w", err)
	}

	c := &Converter{
		config:      cfg,
		logger:      logger,
		transformer: transformer,
		normalizer:  NewNormalizer(cfg.Columns, grade.Standard()),
		validator:   validation.NewValidator(cfg.Columns, validation.OptionsFromConfig(cfg)),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.files = utils.NewFileManager(cfg.OutputDir)
	c.files.Now = c.now

	return c, nil
}

// DryRun reports whether the converter skips writing files.
func (c *Converter) DryRun() bool {
	return c.dryRun
}

// =============================================================================
// MAIN PROCESSING FUNCTIONS
// =============================================================================

// Run executes the pipeline for one file.
//
// PARAMETERS:
//   - path: The roster file.
//   - mode: What to produce.
//
// RETURNS:
//   - A Result; failures are reported in Result.Error, never panicked.
func (c *Converter) Run(path string, mode types.Mode) Result {
	return c.run(path, mode, true)
}

// Check runs the pipeline up to the row checks. It writes no artifact and
// no error log.
func (c *Converter) Check(path string) Result {
	return c.run(path, 0, false)
}

func (c *Converter) run(path string, mode types.Mode, emit bool) (result Result) {
	startTime := c.now()
	result = Result{
		FilePath: path,
		Mode:     mode,
		RunID:    uuid.New().String(),
	}

	log := c.logger.With(
		zap.String("run_id", result.RunID),
		zap.String("file", path),
	)
	if emit {
		log = log.With(zap.Stringer("mode", mode))
	}

	defer func() {
		result.Stats.ProcessingTime = c.now().Sub(startTime)
	}()

	log.Info("processing roster")

	// =========================================================================
	// STEP 1: PARSE
	// =========================================================================

	table, err := c.Load(path)
	if err != nil {
		result.Error = err
		log.Error("failed to read roster", zap.Error(err))
		return result
	}

	result.Stats.RowsProcessed = len(table.Rows)
	log.Debug("parsed roster", zap.Int("rows", len(table.Rows)), zap.Strings("headers", table.Headers))

	// =========================================================================
	// STEP 2: HEADER CHECK
	// =========================================================================

	header := validation.ValidateHeaders(table.Headers, c.config.Columns.Required())
	if !header.IsValid {
		result.MissingFields = header.MissingFields
		result.Error = fmt.Errorf("%w: %s", ErrSchema, strings.Join(header.MissingFields, ", "))
		log.Error("roster failed header check", zap.Strings("missing", header.MissingFields))
		return result
	}

	// =========================================================================
	// STEP 3 + 4: TRANSFORM AND NORMALIZE
	// =========================================================================

	records, err := c.normalize(table)
	if err != nil {
		result.Error = err
		log.Error("failed to transform roster", zap.Error(err))
		return result
	}
	result.Stats.RecordsCreated = len(records)

	// =========================================================================
	// STEP 5: ROW CHECKS
	// =========================================================================

	checked := c.validator.ValidateRecords(records)
	result.Problems = checked.Errors
	result.Stats.Warnings = checked.WarningCount
	result.Stats.Errors = checked.ErrorCount

	for _, problem := range checked.Errors {
		fields := []zap.Field{
			zap.Int("row", problem.RowNumber),
			zap.String("field", problem.Field),
			zap.String("value", problem.Value),
			zap.String("rule", problem.Rule),
		}
		if problem.Severity == validation.SeverityError {
			log.Error(problem.Message, fields...)
		} else {
			log.Warn(problem.Message, fields...)
		}
	}

	if len(checked.Errors) > 0 && emit && !c.dryRun {
		logPath, err := c.writeErrorLog(path, checked.Errors)
		if err != nil {
			log.Warn("failed to write error log", zap.Error(err))
		}
		result.ErrorLog = logPath
	}

	if !checked.IsValid {
		result.Error = fmt.Errorf("%w: %d error(s)", ErrRows, checked.ErrorCount)
		return result
	}

	if !emit {
		result.Success = true
		log.Info("roster is valid", zap.Int("records", len(records)), zap.Int("warnings", checked.WarningCount))
		return result
	}

	// =========================================================================
	// STEP 6: EMIT
	// =========================================================================

	outputPath, pages, err := c.emit(path, mode, records)
	if err != nil {
		result.Error = err
		log.Error("failed to write output", zap.Error(err))
		return result
	}

	result.OutputFile = outputPath
	result.Stats.PagesCreated = pages
	result.Success = true

	log.Info("roster processed",
		zap.String("output", outputPath),
		zap.Int("records", len(records)),
		zap.Int("pages", pages),
		zap.Bool("dry_run", c.dryRun),
	)

	return result
}

// Load parses a roster file, choosing the parser by extension.
func (c *Converter) Load(path string) (*types.Table, error) {
	var (
		table *types.Table
		err   error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		settings := c.config.Input
		// A .tsv file is tab-separated whatever the configured delimiter.
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			settings.Delimiter = "tab"
		}
		table, err = csvparser.Parse(path, settings)
	case ".xlsx", ".xlsm":
		table, err = xlsxparser.Parse(path, c.config.Input)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, filepath.Ext(path))
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	return table, nil
}

// normalize applies the cell rules and builds the student records.
func (c *Converter) normalize(table *types.Table) ([]types.StudentRecord, error) {
	if c.transformer.Empty() {
		return c.normalizer.NormalizeTable(table), nil
	}

	transformed := &types.Table{
		SourceFile: table.SourceFile,
		Headers:    table.Headers,
		Rows:       make([]types.RawRow, len(table.Rows)),
		RowNumbers: table.RowNumbers,
	}

	for i, row := range table.Rows {
		out, err := c.transformer.TransformRow(row)
		if err != nil {
			rowNumber := i + 2
			if i < len(table.RowNumbers) {
				rowNumber = table.RowNumbers[i]
			}
			return nil, fmt.Errorf("failed to apply transformations on row %d: %w", rowNumber, err)
		}
		transformed.Rows[i] = out
	}

	return c.normalizer.NormalizeTable(transformed), nil
}

// =============================================================================
// OUTPUT
// =============================================================================

// emit writes the artifact for mode and returns its path and page count.
func (c *Converter) emit(path string, mode types.Mode, records []types.StudentRecord) (string, int, error) {
	var (
		pattern string
		write   func(io.Writer) error
		pages   int
	)

	switch mode {
	case types.ModeImport:
		pattern = c.config.ImportFileName
		rows := ToDirectoryImportRecords(records)
		write = func(w io.Writer) error { return tsvwriter.Write(w, rows) }

	case types.ModeCards, types.ModeList:
		paged, err := Paginate(records, mode.ChunkSize())
		if err != nil {
			return "", 0, err
		}
		pages = len(paged)
		display := ToDisplayPages(paged)

		pattern = c.config.WorkbookFileName
		if mode == types.ModeCards {
			write = func(w io.Writer) error { return sheetwriter.WriteCards(w, display) }
		} else {
			write = func(w io.Writer) error { return sheetwriter.WriteList(w, display) }
		}

	default:
		return "", 0, fmt.Errorf("unknown mode %s", mode)
	}

	name := utils.GenerateOutputFileName(pattern, map[string]string{
		"mode":     mode.String(),
		"original": utils.OriginalName(path),
	}, c.now())

	if c.dryRun {
		// Render into a discard sink so layout errors still surface.
		if err := write(io.Discard); err != nil {
			return "", pages, err
		}
		return filepath.Join(c.config.OutputDir, name), pages, nil
	}

	if err := c.files.EnsureDirectories(); err != nil {
		return "", pages, err
	}

	file, err := c.files.CreateOutputFile(name)
	if err != nil {
		return "", pages, err
	}

	if err := write(file); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", pages, fmt.Errorf("failed to write %s: %w", file.Name(), err)
	}

	if err := file.Close(); err != nil {
		return "", pages, fmt.Errorf("failed to close %s: %w", file.Name(), err)
	}

	return file.Name(), pages, nil
}

// writeErrorLog records the row check findings for path.
func (c *Converter) writeErrorLog(path string, problems []*validation.ValidationError) (string, error) {
	now := c.now()
	entries := make([]utils.ErrorLogEntry, len(problems))
	for i, p := range problems {
		entries[i] = utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     filepath.Base(path),
			Severity:     p.Severity,
			ErrorType:    p.Rule,
			ErrorMessage: p.Message,
			RowNumber:    p.RowNumber,
			FieldName:    p.Field,
			FieldValue:   p.Value,
			StudentID:    p.StudentID,
		}
	}

	if err := c.files.EnsureDirectories(); err != nil {
		return "", err
	}
	return c.files.WriteErrorLog(entries)
}

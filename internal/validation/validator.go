// =============================================================================
// Hoshuko Library Tools - Validation Engine
// =============================================================================
//
// This module validates a roster at two levels:
//   1. Header-level: every required column must be present. A roster that
//      fails this check is not processed any further.
//   2. Row-level:    each normalized student is checked for empty required
//      values, unknown grade codes and duplicate student numbers.
//
// ERROR HANDLING:
//   - Row problems are collected, not returned one at a time
//   - Each problem carries the source row, field and value
//   - Problems are warnings (the run continues) or errors (the run fails)
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/hoshuko-library-tools/internal/config"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule names reported in ValidationError.Rule.
const (
	RuleMissingColumn = "missing_column"
	RuleEmptyValue    = "empty_value"
	RuleUnknownGrade  = "unknown_grade"
	RuleDuplicateID   = "duplicate_id"
)

// =============================================================================
// HEADER VALIDATION
// =============================================================================

// HeaderResult is the verdict of a header check.
type HeaderResult struct {
	// IsValid is true iff every required column is present.
	IsValid bool

	// MissingFields lists absent required columns in required order.
	MissingFields []string
}

// ValidateHeaders checks that every required column appears in headers.
// Matching is exact: no trimming and no case folding.
//
// PARAMETERS:
//   - headers:  The column names found in the input file.
//   - required: The required column names, in declared order.
//
// RETURNS:
//   - A HeaderResult. Deciding what to block on failure is up to the caller.
func ValidateHeaders(headers []string, required []string) HeaderResult {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}

	result := HeaderResult{IsValid: true, MissingFields: []string{}}
	for _, field := range required {
		if _, ok := present[field]; !ok {
			result.MissingFields = append(result.MissingFields, field)
		}
	}
	result.IsValid = len(result.MissingFields) == 0

	return result
}

// Error describes a failed header check.
func (r HeaderResult) Error() string {
	if r.IsValid {
		return ""
	}
	return fmt.Sprintf("missing required column(s): %s", strings.Join(r.MissingFields, ", "))
}

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single row problem.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Field is the roster column the problem was found in.
	Field string

	// Value is the offending cell value.
	Value string

	// Rule is the check that was violated.
	Rule string

	// Message is a human-readable description.
	Message string

	// StudentID identifies the student, when known.
	StudentID string

	// RowNumber is the source row (header is row 1).
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] Row %d, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.RowNumber,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of row validation.
type ValidationResult struct {
	// IsValid is true if there are no errors.
	IsValid bool

	// Errors contains all problems, warnings included, in row order.
	Errors []*ValidationError

	// ErrorCount is the number of fatal problems.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// RecordsValidated is the number of students checked.
	RecordsValidated int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator performs row-level checks on normalized students.
type Validator struct {
	columns config.Columns
	options ValidationOptions
}

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// RejectUnknownGrades turns unknown grade codes into errors.
	// Default: false (warnings)
	RejectUnknownGrades bool

	// StopOnFirstError stops validation after the first error.
	// Default: false
	StopOnFirstError bool
}

// OptionsFromConfig derives validation options from the configuration.
func OptionsFromConfig(cfg *config.MainConfig) ValidationOptions {
	return ValidationOptions{
		RejectUnknownGrades: cfg.UnknownGradePolicy == config.PolicyReject,
	}
}

// NewValidator creates a Validator that reports problems against columns.
func NewValidator(columns config.Columns, options ValidationOptions) *Validator {
	return &Validator{
		columns: columns,
		options: options,
	}
}

// ValidateRecords checks every student and returns a detailed result.
func (v *Validator) ValidateRecords(records []types.StudentRecord) *ValidationResult {
	result := &ValidationResult{
		IsValid:          true,
		Errors:           make([]*ValidationError, 0),
		RecordsValidated: len(records),
	}

	firstRow := make(map[string]int, len(records))

	for _, record := range records {
		problems := v.ValidateRecord(record)

		if record.ID != "" {
			if row, dup := firstRow[record.ID]; dup {
				problems = append(problems, &ValidationError{
					Severity:  SeverityWarning,
					Field:     v.columns.StudentID,
					Value:     record.ID,
					Rule:      RuleDuplicateID,
					Message:   fmt.Sprintf("Student number already used on row %d", row),
					StudentID: record.ID,
					RowNumber: record.RowNumber,
				})
			} else {
				firstRow[record.ID] = record.RowNumber
			}
		}

		for _, problem := range problems {
			result.Errors = append(result.Errors, problem)

			if problem.Severity == SeverityError {
				result.ErrorCount++
				result.IsValid = false

				if v.options.StopOnFirstError {
					return result
				}
			} else {
				result.WarningCount++
			}
		}
	}

	return result
}

// ValidateRecord checks a single student.
func (v *Validator) ValidateRecord(record types.StudentRecord) []*ValidationError {
	var problems []*ValidationError

	fields := []struct {
		column string
		value  string
	}{
		{v.columns.StudentID, record.ID},
		{v.columns.FullName, record.Name},
		{v.columns.Reading, record.NameReading},
		{v.columns.Grade, record.GradeCode},
	}

	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			problems = append(problems, &ValidationError{
				Severity:  SeverityWarning,
				Field:     f.column,
				Value:     f.value,
				Rule:      RuleEmptyValue,
				Message:   fmt.Sprintf("Required field '%s' is empty", f.column),
				StudentID: record.ID,
				RowNumber: record.RowNumber,
			})
		}
	}

	// An empty grade was already reported above.
	if record.GradeCode != "" && !record.KnownGrade() {
		severity := SeverityWarning
		if v.options.RejectUnknownGrades {
			severity = SeverityError
		}
		problems = append(problems, &ValidationError{
			Severity:  severity,
			Field:     v.columns.Grade,
			Value:     record.GradeCode,
			Rule:      RuleUnknownGrade,
			Message:   "Grade code is not one of 小1-小6, 中1-中3",
			StudentID: record.ID,
			RowNumber: record.RowNumber,
		})
	}

	return problems
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d problem(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

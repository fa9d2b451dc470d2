// =============================================================================
// Hoshuko Library Tools - Row Normalizer
// =============================================================================
//
// The normalizer turns a raw roster row into a StudentRecord. The grade
// tables are injected at construction, so a different school calendar only
// needs a different grade.Table.
//
// An unknown grade code is not an error here. The record keeps the raw code
// with Year 0 and an empty label, and the validator decides what to do.
//
// =============================================================================

package converter

import (
	"github.com/ginjaninja78/hoshuko-library-tools/internal/config"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/grade"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/types"
)

// Normalizer maps raw rows to student records.
type Normalizer struct {
	columns config.Columns
	grades  *grade.Table
}

// NewNormalizer creates a Normalizer that reads the given columns and
// resolves grades against table. A nil table means grade.Standard().
func NewNormalizer(columns config.Columns, table *grade.Table) *Normalizer {
	if table == nil {
		table = grade.Standard()
	}
	return &Normalizer{
		columns: columns,
		grades:  table,
	}
}

// Normalize builds the StudentRecord for one row.
//
// PARAMETERS:
//   - row:       The raw row keyed by header. Missing keys read as "".
//   - rowNumber: The 1-indexed source row, kept for error reporting.
//
// RETURNS:
//   - The record. Columns other than the four mapped ones are ignored.
func (n *Normalizer) Normalize(row types.RawRow, rowNumber int) types.StudentRecord {
	code := row[n.columns.Grade]

	record := types.StudentRecord{
		ID:          row[n.columns.StudentID],
		Name:        row[n.columns.FullName],
		NameReading: row[n.columns.Reading],
		GradeCode:   code,
		IsEntryYear: grade.IsEntry(code),
		RowNumber:   rowNumber,
	}

	if g, ok := n.grades.Lookup(code); ok {
		record.Year = g.Year
		record.GradeLabel = g.Label
	}

	return record
}

// NormalizeTable normalizes every row of a table in order.
func (n *Normalizer) NormalizeTable(table *types.Table) []types.StudentRecord {
	records := make([]types.StudentRecord, len(table.Rows))
	for i, row := range table.Rows {
		rowNumber := i + 2
		if i < len(table.RowNumbers) {
			rowNumber = table.RowNumbers[i]
		}
		records[i] = n.Normalize(row, rowNumber)
	}
	return records
}

// =============================================================================
// Hoshuko Library Tools - Spreadsheet Roster Parser
// =============================================================================
//
// This module reads rosters kept as XLSX workbooks. The layout matches the
// delimited text exports:
//
//   | Column A | Column B | Column C     | Column D |
//   |----------|----------|--------------|----------|
//   | 学籍番号 | 氏名     | ふりがな     | 学年     |
//   | S001     | 田中太郎 | たなかたろう | 小1      |
//
// Row 1 is the header row. The first worksheet is read unless the
// configuration names another one.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/hoshuko-library-tools/internal/config"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/types"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads an XLSX roster file.
//
// PARAMETERS:
//   - filePath: The path to the workbook.
//   - settings: The input settings; only Sheet is used.
//
// RETURNS:
//   - The parsed table with SourceFile set.
//   - An error if the workbook cannot be opened or the sheet is missing.
func Parse(filePath string, settings config.InputSettings) (*types.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	table, err := Read(file, settings)
	if err != nil {
		return nil, err
	}
	table.SourceFile = filePath

	return table, nil
}

// Read parses an XLSX workbook from r.
func Read(r io.Reader, settings config.InputSettings) (*types.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName, err := pickSheet(f, settings.Sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet '%s' is empty", sheetName)
	}

	headers := cleanHeaders(rows[0])
	table := &types.Table{
		Headers:    headers,
		Rows:       make([]types.RawRow, 0, len(rows)-1),
		RowNumbers: make([]int, 0, len(rows)-1),
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]

		// Skip empty rows.
		if len(row) == 0 || isRowEmpty(row) {
			continue
		}

		rawRow := make(types.RawRow, len(headers))
		for col, header := range headers {
			// Leftmost of a repeated header wins.
			if _, seen := rawRow[header]; seen {
				continue
			}
			if col < len(row) {
				rawRow[header] = row[col]
			} else {
				rawRow[header] = ""
			}
		}

		table.Rows = append(table.Rows, rawRow)
		table.RowNumbers = append(table.RowNumbers, i+1)
	}

	return table, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// pickSheet returns the configured sheet, or the first sheet when none is set.
func pickSheet(f *excelize.File, configured string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	if configured == "" {
		return sheets[0], nil
	}

	for _, name := range sheets {
		if name == configured {
			return name, nil
		}
	}

	return "", fmt.Errorf("sheet '%s' not found (have: %s)", configured, strings.Join(sheets, ", "))
}

// cleanHeaders names empty header cells by position. Excel drops trailing
// empty cells, so only interior gaps need a name. A generated name never
// shadows a real header.
func cleanHeaders(headers []string) []string {
	taken := make(map[string]bool, len(headers))
	for _, header := range headers {
		taken[header] = true
	}

	cleaned := make([]string, len(headers))
	for i, header := range headers {
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
			for n := 2; taken[header]; n++ {
				header = fmt.Sprintf("Column_%d_%d", i+1, n)
			}
			taken[header] = true
		}
		cleaned[i] = header
	}
	return cleaned
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

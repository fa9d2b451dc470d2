// =============================================================================
// Hoshuko Library Tools - Delimited Text Parser
// =============================================================================
//
// This module reads roster files exported as delimited text. School office
// exports arrive in several shapes, so the parser handles:
//   - Different delimiters (comma, tab, pipe, semicolon)
//   - UTF-8 with or without a byte order mark
//   - Shift_JIS (legacy Japanese Excel exports)
//   - Quoted fields, ragged rows and blank lines
//
// Headers are kept exactly as written. Required-column matching is exact,
// so a header with a trailing space is a different header.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/hoshuko-library-tools/internal/config"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/types"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEmpty is returned for files that contain no header row.
var ErrEmpty = errors.New("file is empty")

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a delimited text file and returns the parsed table.
//
// PARAMETERS:
//   - filePath: The path to the roster file.
//   - settings: The input settings from the configuration.
//
// RETURNS:
//   - The parsed table with SourceFile set.
//   - An error if the file cannot be read or parsed.
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

// Read parses delimited text from r.
//
// PARSING PROCESS:
//   1. Decode the bytes to UTF-8 according to settings.Encoding
//   2. Configure the CSV reader with the delimiter
//   3. Take the first record as the header row
//   4. Convert every non-blank record to a RawRow keyed by header, numbered
//      by the source line it starts on
func Read(r io.Reader, settings config.InputSettings) (*types.Table, error) {
	decoded, err := decode(r, settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(decoded)
	if err := configureReader(csvReader, settings); err != nil {
		return nil, err
	}

	record, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	headers := cleanHeaders(record)
	table := &types.Table{Headers: headers}

	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if isRowEmpty(record) {
			continue
		}

		// The line the record starts on. Empty lines produce no record and
		// quoted cells may span lines, so a record count would drift.
		line, _ := csvReader.FieldPos(0)

		table.Rows = append(table.Rows, toRawRow(headers, record))
		table.RowNumbers = append(table.RowNumbers, line)
	}

	return table, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.InputSettings) error {
	comma, err := settings.Comma()
	if err != nil {
		return err
	}
	reader.Comma = comma

	// Office exports are not always rectangular.
	reader.FieldsPerRecord = -1

	// Allow quotes that don't follow strict CSV rules, e.g. 田中"太郎".
	reader.LazyQuotes = true

	return nil
}

// decode wraps r in a decoder that yields UTF-8.
func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch encoding {
	case config.EncodingShiftJIS:
		return transform.NewReader(r, japanese.ShiftJIS.NewDecoder()), nil

	case config.EncodingUTF8:
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil

	case config.EncodingAuto, "":
		// Rosters are small; sniff the whole file.
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		if utf8.Valid(data) {
			return decode(bytes.NewReader(data), config.EncodingUTF8)
		}
		return decode(bytes.NewReader(data), config.EncodingShiftJIS)

	default:
		return nil, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// cleanHeaders fills in names for empty header cells. Non-empty headers are
// returned unchanged. A generated Column_N that matches a real header gets a
// further suffix.
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

// toRawRow maps cells to headers. Missing trailing cells become "" and extra
// cells without a header are dropped. When a header repeats, the leftmost
// column wins.
func toRawRow(headers, row []string) types.RawRow {
	rawRow := make(types.RawRow, len(headers))
	for i, header := range headers {
		if _, seen := rawRow[header]; seen {
			continue
		}
		if i < len(row) {
			rawRow[header] = row[i]
		} else {
			rawRow[header] = ""
		}
	}
	return rawRow
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

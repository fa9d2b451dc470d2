// =============================================================================
// Hoshuko Library Tools - Import File Writer
// =============================================================================
//
// This module writes the tab-separated user import file accepted by the
// library system:
//
//   username<TAB>user_number<TAB>full_name<TAB>...<TAB>share_bookmarks
//   S001<TAB>S001<TAB>田中太郎<TAB>...<TAB>
//
// The header row always carries all 19 columns, even for an empty roster.
// Cells that contain a tab, quote or line break are quoted and embedded
// quotes are doubled. A cell that starts with white space (including the
// ideographic space U+3000) or is exactly \. is quoted as well. Lines end in
// LF.
//
// =============================================================================

package tsvwriter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ginjaninja78/hoshuko-library-tools/internal/types"
)

// Write writes the header row and one row per record to w.
//
// PARAMETERS:
//   - w:       The destination.
//   - records: The import rows, in output order.
//
// RETURNS:
//   - An error if writing fails.
func Write(w io.Writer, records []types.DirectoryImportRecord) error {
	writer := csv.NewWriter(w)
	writer.Comma = '\t'
	writer.UseCRLF = false

	if err := writer.Write(types.DirectoryImportFields); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, record := range records {
		if err := writer.Write(record.Values()); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush import file: %w", err)
	}

	return nil
}

// Marshal returns the import file as bytes.
func Marshal(records []types.DirectoryImportRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

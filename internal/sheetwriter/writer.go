// =============================================================================
// Hoshuko Library Tools - Card and List Sheet Writer
// =============================================================================
//
// This module lays out paginated students as an XLSX workbook ready to print.
//
// CARD MODE:
//   Each page becomes two worksheets, printed duplex on A4 landscape:
//
//     <label>-<nn>-表  (barcode side)      <label>-<nn>-裏  (name side)
//     +---+-----+-----+-----+             +-----+-----+-----+---+
//     | 小 |  0  |  1  |  2  |             |  2  |  1  |  0  | 小 |
//     | 一 |  3  |  4  |  5  |             |  5  |  4  |  3  | 一 |
//     |   |  6  |  7  |  8  |             |  8  |  7  |  6  |   |
//     |   |  9  | 10  | 11  |             | 11  | 10  |  9  |   |
//     +---+-----+-----+-----+             +-----+-----+-----+---+
//
//   The name side is mirrored left to right so that, once the sheet is
//   turned over, every name sits behind its own card. Each card cell is
//   90mm x 54mm. The barcode itself is drawn by the label printer; the card
//   carries the user number it encodes.
//
// LIST MODE:
//   Each page becomes one worksheet with a title row, a header row and up
//   to 20 students.
//
// =============================================================================

package sheetwriter

import (
	"fmt"
	"io"

	"github.com/ginjaninja78/hoshuko-library-tools/internal/types"
	"github.com/xuri/excelize/v2"
)

// Layout constants.
const (
	GridColumns = 3
	GridRows    = 4

	CardWidthMM  = 90.0
	CardHeightMM = 54.0

	// LibraryCaption is printed on the barcode side of every card.
	LibraryCaption = "補習校図書室"

	// UnknownLabel names pages of students whose grade is not in the tables.
	UnknownLabel = "不明"

	// FrontSuffix and BackSuffix tell the two sides of a card page apart.
	FrontSuffix = "表"
	BackSuffix  = "裏"

	maxSheetName = 31
	paperA4      = 9
)

// ListHeaders are the column titles of a list page.
var ListHeaders = []string{"No.", "学籍番号", "氏名", "ふりがな", "学年"}

// =============================================================================
// LAYOUT HELPERS
// =============================================================================

// CardSlot returns the 0-indexed grid row and column of the card at index on
// the barcode side. Cards fill the grid left to right, top to bottom.
func CardSlot(index int) (row, col int) {
	return index / GridColumns, index % GridColumns
}

// MirrorSlot returns the grid position of the card at index on the name side.
func MirrorSlot(index int) (row, col int) {
	row, col = CardSlot(index)
	return row, GridColumns - 1 - col
}

// SheetName returns "<label>-<nn>" for a page, cut to Excel's 31 characters.
func SheetName(page types.DisplayPage) string {
	label := page.Label
	if label == "" {
		label = UnknownLabel
	}
	return truncate(fmt.Sprintf("%s-%02d", label, page.Index), maxSheetName)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// mmToPoints converts millimetres to row height points.
func mmToPoints(mm float64) float64 {
	return mm * 72 / 25.4
}

// mmToColumnWidth converts millimetres to Excel column width units, using
// the 7px maximum digit width of the default font at 96 DPI.
func mmToColumnWidth(mm float64) float64 {
	pixels := mm / 25.4 * 96
	return (pixels - 5) / 7
}

// =============================================================================
// CARD WORKBOOK
// =============================================================================

// WriteCards writes a card workbook with two worksheets per page.
//
// PARAMETERS:
//   - w:     The destination.
//   - pages: Pages of at most types.CardsPerSheet students each.
//
// RETURNS:
//   - An error if a page is too large or the workbook cannot be written.
func WriteCards(w io.Writer, pages []types.DisplayPage) error {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	for i, page := range pages {
		if len(page.Records) > types.CardsPerSheet {
			return fmt.Errorf("page %s has %d cards, at most %d fit on a sheet",
				SheetName(page), len(page.Records), types.CardsPerSheet)
		}

		base := SheetName(page)
		front := truncate(base, maxSheetName-2) + "-" + FrontSuffix
		back := truncate(base, maxSheetName-2) + "-" + BackSuffix

		if err := addSheet(f, front, i == 0); err != nil {
			return err
		}
		if err := addSheet(f, back, false); err != nil {
			return err
		}

		if err := writeCardSide(f, front, page, styles, false); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", front, err)
		}
		if err := writeCardSide(f, back, page, styles, true); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", back, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// writeCardSide fills one side of a card page. The grade label sits in a
// side column: left of the grid on the barcode side, right of it on the
// mirrored name side.
func writeCardSide(f *excelize.File, sheet string, page types.DisplayPage, styles sheetStyles, mirrored bool) error {
	firstCardCol, labelCol := 2, 1
	if mirrored {
		firstCardCol, labelCol = 1, GridColumns+1
	}

	if err := setupCardSheet(f, sheet, firstCardCol, labelCol); err != nil {
		return err
	}

	// Grade label, merged down the full grid height.
	top, _ := excelize.CoordinatesToCellName(labelCol, 1)
	bottom, _ := excelize.CoordinatesToCellName(labelCol, GridRows)
	if err := f.MergeCell(sheet, top, bottom); err != nil {
		return err
	}
	label := page.Label
	if label == "" {
		label = UnknownLabel
	}
	if err := f.SetCellValue(sheet, top, label); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, top, bottom, styles.label); err != nil {
		return err
	}

	// Every grid cell gets a border so empty slots still show cut lines.
	first, _ := excelize.CoordinatesToCellName(firstCardCol, 1)
	last, _ := excelize.CoordinatesToCellName(firstCardCol+GridColumns-1, GridRows)
	if err := f.SetCellStyle(sheet, first, last, styles.card); err != nil {
		return err
	}

	for i, record := range page.Records {
		var row, col int
		var text string
		if mirrored {
			row, col = MirrorSlot(i)
			text = nameSideText(record)
		} else {
			row, col = CardSlot(i)
			text = barcodeSideText(record)
		}

		cell, err := excelize.CoordinatesToCellName(firstCardCol+col, row+1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, text); err != nil {
			return err
		}
	}

	return nil
}

func setupCardSheet(f *excelize.File, sheet string, firstCardCol, labelCol int) error {
	orientation := "landscape"
	size := paperA4
	if err := f.SetPageLayout(sheet, &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &orientation,
	}); err != nil {
		return err
	}

	firstName, _ := excelize.ColumnNumberToName(firstCardCol)
	lastName, _ := excelize.ColumnNumberToName(firstCardCol + GridColumns - 1)
	if err := f.SetColWidth(sheet, firstName, lastName, mmToColumnWidth(CardWidthMM)); err != nil {
		return err
	}

	labelName, _ := excelize.ColumnNumberToName(labelCol)
	if err := f.SetColWidth(sheet, labelName, labelName, 4); err != nil {
		return err
	}

	for row := 1; row <= GridRows; row++ {
		if err := f.SetRowHeight(sheet, row, mmToPoints(CardHeightMM)); err != nil {
			return err
		}
	}

	return nil
}

// barcodeSideText is the card front: name, user number and caption.
func barcodeSideText(r types.DisplayRecord) string {
	return r.Name + "\n" + r.ID + "\n" + LibraryCaption
}

// nameSideText is the card back. Entry-year students get the reading only.
func nameSideText(r types.DisplayRecord) string {
	if r.IsEntryYear {
		return r.NameReading
	}
	return r.NameReading + "\n" + r.Name
}

// =============================================================================
// LIST WORKBOOK
// =============================================================================

// WriteList writes a roster list workbook with one worksheet per page.
// Numbering continues across the pages of one grade.
func WriteList(w io.Writer, pages []types.DisplayPage) error {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	for i, page := range pages {
		if len(page.Records) > types.RowsPerSheet {
			return fmt.Errorf("page %s has %d rows, at most %d fit on a sheet",
				SheetName(page), len(page.Records), types.RowsPerSheet)
		}

		sheet := SheetName(page)
		if err := addSheet(f, sheet, i == 0); err != nil {
			return err
		}
		if err := writeListPage(f, sheet, page, styles); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", sheet, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeListPage(f *excelize.File, sheet string, page types.DisplayPage, styles sheetStyles) error {
	size := paperA4
	if err := f.SetPageLayout(sheet, &excelize.PageLayoutOptions{Size: &size}); err != nil {
		return err
	}

	label := page.Label
	if label == "" {
		label = UnknownLabel
	}
	if err := f.SetCellValue(sheet, "A1", label+" 名簿"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", styles.title); err != nil {
		return err
	}

	header := make([]interface{}, len(ListHeaders))
	for i, h := range ListHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A2", &header); err != nil {
		return err
	}

	lastCol, _ := excelize.ColumnNumberToName(len(ListHeaders))
	if err := f.SetCellStyle(sheet, "A2", lastCol+"2", styles.header); err != nil {
		return err
	}

	offset := (page.Index - 1) * types.RowsPerSheet
	for i, r := range page.Records {
		gradeText := r.GradeLabel
		if gradeText == "" {
			gradeText = r.GradeCode
		}

		row := []interface{}{offset + i + 1, r.ID, r.Name, r.NameReading, gradeText}
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if len(page.Records) > 0 {
		end, _ := excelize.CoordinatesToCellName(len(ListHeaders), len(page.Records)+2)
		if err := f.SetCellStyle(sheet, "A3", end, styles.cell); err != nil {
			return err
		}
	}

	widths := []float64{6, 14, 20, 24, 8}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	return nil
}

// =============================================================================
// WORKBOOK HELPERS
// =============================================================================

// addSheet renames the default sheet for the first page and appends the rest.
func addSheet(f *excelize.File, name string, first bool) error {
	if first {
		if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
			return fmt.Errorf("failed to name sheet %s: %w", name, err)
		}
		return nil
	}
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", name, err)
	}
	return nil
}

type sheetStyles struct {
	card   int
	label  int
	title  int
	header int
	cell   int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	if s.card, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Font:      &excelize.Font{Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	}); err != nil {
		return s, fmt.Errorf("failed to create card style: %w", err)
	}

	if s.label, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 16, Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", TextRotation: 255},
	}); err != nil {
		return s, fmt.Errorf("failed to create label style: %w", err)
	}

	if s.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Bold: true},
	}); err != nil {
		return s, fmt.Errorf("failed to create title style: %w", err)
	}

	if s.header, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9D9D9"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return s, fmt.Errorf("failed to create header style: %w", err)
	}

	if s.cell, err = f.NewStyle(&excelize.Style{
		Border: border,
	}); err != nil {
		return s, fmt.Errorf("failed to create cell style: %w", err)
	}

	return s, nil
}

// =============================================================================
// Hoshuko Library Tools - Shared Types
// =============================================================================
//
// This package contains the record shapes that flow through the roster
// pipeline. They live here to avoid import cycles between:
//   - converter   (normalizer, projector, paginator)
//   - validation  (row checks)
//   - tsvwriter   (import file emitter)
//   - sheetwriter (card and list workbooks)
//
// =============================================================================

package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// INPUT ROWS
// =============================================================================

// RawRow is one data row of the input roster, keyed by the source column
// header exactly as it appears in the file.
type RawRow map[string]string

// Table is a parsed roster: the header row and the non-empty data rows.
type Table struct {
	// SourceFile is the path the table was read from, if any.
	SourceFile string

	// Headers are the column names in file order, untrimmed.
	Headers []string

	// Rows are the data rows keyed by header.
	Rows []RawRow

	// RowNumbers holds the 1-indexed source row of each entry in Rows.
	RowNumbers []int
}

// =============================================================================
// STUDENT RECORD
// =============================================================================

// StudentRecord is the canonical student produced by the row normalizer.
// It is a value type and is never modified once created.
type StudentRecord struct {
	// ID is the student number (学籍番号).
	ID string

	// Name is the full name in kanji.
	Name string

	// NameReading is the phonetic transcription (ふりがな).
	NameReading string

	// GradeCode is the raw grade token, e.g. "小1".
	GradeCode string

	// Year is the numeric school year 1..9, or 0 when the grade code is unknown.
	Year int

	// GradeLabel is the localized label, e.g. "小一", or "" when unknown.
	GradeLabel string

	// IsEntryYear is true iff GradeCode is the first elementary grade.
	IsEntryYear bool

	// RowNumber is the 1-indexed row in the source file (header is row 1).
	RowNumber int
}

// KnownGrade reports whether the grade code resolved against the grade tables.
func (r StudentRecord) KnownGrade() bool {
	return r.Year != 0
}

// =============================================================================
// DIRECTORY IMPORT RECORD
// =============================================================================

// DirectoryImportFields is the fixed column order of the library system's
// bulk user import file.
var DirectoryImportFields = []string{
	"username",
	"user_number",
	"full_name",
	"email",
	"full_name_transcription",
	"role",
	"user_group",
	"library",
	"locale",
	"locked",
	"required_role",
	"created_at",
	"updated_at",
	"expired_at",
	"keyword_list",
	"note",
	"checkout_icalendar_token",
	"save_checkout_history",
	"share_bookmarks",
}

// DirectoryImportRecord is one user row of the library import file.
type DirectoryImportRecord struct {
	Username               string
	UserNumber             string
	FullName               string
	Email                  string
	FullNameTranscription  string
	Role                   string
	UserGroup              string
	Library                string
	Locale                 string
	Locked                 string
	RequiredRole           string
	CreatedAt              string
	UpdatedAt              string
	ExpiredAt              string
	KeywordList            string
	Note                   string
	CheckoutICalendarToken string
	SaveCheckoutHistory    string
	ShareBookmarks         string
}

// Values returns the field values in DirectoryImportFields order.
func (r DirectoryImportRecord) Values() []string {
	return []string{
		r.Username,
		r.UserNumber,
		r.FullName,
		r.Email,
		r.FullNameTranscription,
		r.Role,
		r.UserGroup,
		r.Library,
		r.Locale,
		r.Locked,
		r.RequiredRole,
		r.CreatedAt,
		r.UpdatedAt,
		r.ExpiredAt,
		r.KeywordList,
		r.Note,
		r.CheckoutICalendarToken,
		r.SaveCheckoutHistory,
		r.ShareBookmarks,
	}
}

// =============================================================================
// DISPLAY RECORD AND PAGES
// =============================================================================

// DisplayRecord is the shape used to print cards and list rows.
type DisplayRecord struct {
	ID          string
	Name        string
	NameReading string
	Year        int
	GradeCode   string
	GradeLabel  string
	IsEntryYear bool
}

// Page is one printed sheet worth of students. Every record on a page shares
// the same Year.
type Page struct {
	// Year is the grouping key shared by all Records.
	Year int

	// Index is the 1-indexed position of this page within its year group.
	Index int

	// Records are in input order.
	Records []StudentRecord
}

// Label returns the grade label of the page's students, or "" if unknown.
func (p Page) Label() string {
	if len(p.Records) == 0 {
		return ""
	}
	return p.Records[0].GradeLabel
}

// DisplayPage is a Page projected for printing.
type DisplayPage struct {
	Year    int
	Index   int
	Label   string
	Records []DisplayRecord
}

// =============================================================================
// OUTPUT MODE
// =============================================================================

// Mode selects what a pipeline run produces.
type Mode int

const (
	// ModeImport emits the library import file.
	ModeImport Mode = iota + 1

	// ModeCards emits printable user card sheets.
	ModeCards

	// ModeList emits printable roster list sheets.
	ModeList
)

// Page capacities per printed sheet.
const (
	CardsPerSheet = 12
	RowsPerSheet  = 20
)

// ParseMode converts a CLI or config value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "import", "tsv":
		return ModeImport, nil
	case "cards", "card":
		return ModeCards, nil
	case "list":
		return ModeList, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want import, cards or list)", s)
	}
}

// String returns the mode name used on the command line and in file names.
func (m Mode) String() string {
	switch m {
	case ModeImport:
		return "import"
	case ModeCards:
		return "cards"
	case ModeList:
		return "list"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ChunkSize is the page capacity for paginated modes, 0 for import.
func (m Mode) ChunkSize() int {
	switch m {
	case ModeCards:
		return CardsPerSheet
	case ModeList:
		return RowsPerSheet
	default:
		return 0
	}
}

// Paginated reports whether the mode produces printed pages.
func (m Mode) Paginated() bool {
	return m.ChunkSize() > 0
}

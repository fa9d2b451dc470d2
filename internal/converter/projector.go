package converter

import "github.com/ginjaninja78/hoshuko-library-tools/internal/types"

// Fixed values of every directory import row.
const (
	DefaultRole                = "User"
	DefaultUserGroup           = "students"
	DefaultLibrary             = "hoshuko_library"
	DefaultLocale              = "ja"
	DefaultLocked              = "FALSE"
	DefaultRequiredRole        = "librarian"
	DefaultSaveCheckoutHistory = "TRUE"
)

// ToDirectoryImportRecord projects a student onto the library system's user
// import row. Only the identity fields are read; grade data never reaches
// the directory.
func ToDirectoryImportRecord(r types.StudentRecord) types.DirectoryImportRecord {
	return types.DirectoryImportRecord{
		Username:              r.ID,
		UserNumber:            r.ID,
		FullName:              r.Name,
		FullNameTranscription: r.NameReading,
		Role:                  DefaultRole,
		UserGroup:             DefaultUserGroup,
		Library:               DefaultLibrary,
		Locale:                DefaultLocale,
		Locked:                DefaultLocked,
		RequiredRole:          DefaultRequiredRole,
		SaveCheckoutHistory:   DefaultSaveCheckoutHistory,
	}
}

// ToDirectoryImportRecords projects records in order.
func ToDirectoryImportRecords(records []types.StudentRecord) []types.DirectoryImportRecord {
	out := make([]types.DirectoryImportRecord, len(records))
	for i, r := range records {
		out[i] = ToDirectoryImportRecord(r)
	}
	return out
}

// ToDisplayRecord copies the fields printed on cards and lists.
func ToDisplayRecord(r types.StudentRecord) types.DisplayRecord {
	return types.DisplayRecord{
		ID:          r.ID,
		Name:        r.Name,
		NameReading: r.NameReading,
		Year:        r.Year,
		GradeCode:   r.GradeCode,
		GradeLabel:  r.GradeLabel,
		IsEntryYear: r.IsEntryYear,
	}
}

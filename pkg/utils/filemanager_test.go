package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2026, 4, 9, 8, 5, 3, 0, time.Local)

func TestGenerateOutputFileName(t *testing.T) {
	tests := []struct {
		format string
		params map[string]string
		want   string
	}{
		{"hoshuko-lib-import-{date}.tsv", nil, "hoshuko-lib-import-2026-04-09.tsv"},
		{"{mode}-{timestamp}.xlsx", map[string]string{"mode": "cards"}, "cards-20260409_080503.xlsx"},
		{"{original}_{mode}.tsv", map[string]string{"original": "名簿", "mode": "import"}, "名簿_import.tsv"},
		{"out/{original}.tsv", map[string]string{"original": "a"}, "out_a.tsv"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateOutputFileName(tt.format, tt.params, fixed))
		})
	}
}

func TestGenerateOutputFileName_UUID(t *testing.T) {
	name := GenerateOutputFileName("{uuid}-{uuid}.tsv", nil, fixed)

	re := regexp.MustCompile(`^([0-9a-f-]{36})-([0-9a-f-]{36})\.tsv$`)
	m := re.FindStringSubmatch(name)
	require.NotNil(t, m, name)
	assert.NotEqual(t, m[1], m[2])
}

func TestOriginalName(t *testing.T) {
	assert.Equal(t, "roster_2026", OriginalName("/tmp/in/roster_2026.csv"))
	assert.Equal(t, "名簿", OriginalName("名簿.xlsx"))
}

func TestIsRosterFile(t *testing.T) {
	assert.True(t, IsRosterFile("a.CSV"))
	assert.True(t, IsRosterFile("a.xlsx"))
	assert.False(t, IsRosterFile("a.pdf"))
	assert.False(t, IsRosterFile("README"))
}

func TestDiscoverInputFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.xlsx", "notes.md", filepath.Join("sub", "c.tsv")} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
	explicit := filepath.Join(dir, "notes.md")

	files, err := DiscoverInputFiles([]string{explicit, dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		explicit,
		filepath.Join(dir, "a.xlsx"),
		filepath.Join(dir, "b.csv"),
		filepath.Join(dir, "sub", "c.tsv"),
	}, files)

	_, err = DiscoverInputFiles([]string{filepath.Join(dir, "missing.csv")})
	assert.Error(t, err)
}

func TestCreateOutputFile_AvoidsCollisions(t *testing.T) {
	fm := NewFileManager(t.TempDir())

	var names []string
	for i := 0; i < 3; i++ {
		f, err := fm.CreateOutputFile("out.tsv")
		require.NoError(t, err)
		names = append(names, filepath.Base(f.Name()))
		require.NoError(t, f.Close())
	}

	assert.Equal(t, []string{"out.tsv", "out-2.tsv", "out-3.tsv"}, names)
}

func TestEnsureDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, NewFileManager(dir).EnsureDirectories())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWriteErrorLog(t *testing.T) {
	fm := NewFileManager(t.TempDir())
	fm.Now = func() time.Time { return fixed }

	path, err := fm.WriteErrorLog(nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = fm.WriteErrorLog([]ErrorLogEntry{{
		Timestamp:    fixed,
		FileName:     "roster.csv",
		Severity:     "warning",
		ErrorType:    "unknown_grade",
		ErrorMessage: "bad grade",
		RowNumber:    4,
		FieldName:    "学年",
		FieldValue:   "高1",
	}})
	require.NoError(t, err)
	assert.Equal(t, "error_log_20260409_080503.txt", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Total Entries: 1")
	assert.Contains(t, content, "Row Number:  4")
	assert.Contains(t, content, "Value:       高1")
	assert.NotContains(t, content, "Student:")
}

func TestWriteSummaryLog(t *testing.T) {
	fm := NewFileManager(t.TempDir())
	fm.Now = func() time.Time { return fixed }

	path, err := fm.WriteSummaryLog(ProcessingSummary{
		StartTime:       fixed,
		EndTime:         fixed.Add(2 * time.Second),
		Mode:            "cards",
		TotalFiles:      2,
		SuccessfulFiles: 1,
		FailedFiles:     1,
		ProcessedFiles:  []ProcessedFileInfo{{InputFile: "a.csv", OutputFile: "a.xlsx", Pages: 3}},
		FailedFilesList: []FailedFileInfo{{InputFile: "b.csv", ErrorMessage: "missing column"}},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Mode:           cards")
	assert.Contains(t, content, "Duration:       2s")
	assert.Contains(t, content, "Pages:        3")
	assert.Contains(t, content, "Error: missing column")
}

package converter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ginjaninja78/hoshuko-library-tools/internal/config"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/types"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
)

var clock = func() time.Time { return time.Date(2026, 4, 9, 10, 0, 0, 0, time.Local) }

const roster = "学籍番号,氏名,ふりがな,学年\n" +
	"S001,田中太郎,たなかたろう,小1\n" +
	"S002,鈴木花子,すずきはなこ,中2\n" +
	"S003,佐藤次郎,さとうじろう,小1\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newConverter(t *testing.T, cfg *config.MainConfig, opts ...Option) *Converter {
	t.Helper()

	if cfg == nil {
		cfg = config.Default()
	}
	if cfg.OutputDir == "./output" {
		cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	}

	c, err := New(cfg, zaptest.NewLogger(t), append([]Option{WithClock(clock)}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestRun_Import(t *testing.T) {
	c := newConverter(t, nil)
	path := writeFile(t, t.TempDir(), "roster.csv", roster)

	result := c.Run(path, types.ModeImport)
	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "hoshuko-lib-import-2026-04-09.tsv", filepath.Base(result.OutputFile))
	assert.Equal(t, 3, result.Stats.RowsProcessed)
	assert.Equal(t, 3, result.Stats.RecordsCreated)
	assert.Zero(t, result.Stats.PagesCreated)
	assert.Empty(t, result.ErrorLog)

	data, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "username\tuser_number\tfull_name\t"))
	assert.Equal(t,
		"S002\tS002\t鈴木花子\t\tすずきはなこ\tUser\tstudents\thoshuko_library\tja\tFALSE\tlibrarian\t\t\t\t\t\t\tTRUE\t",
		lines[2])
}

func TestRun_ImportTwiceKeepsBothFiles(t *testing.T) {
	c := newConverter(t, nil)
	path := writeFile(t, t.TempDir(), "roster.csv", roster)

	first := c.Run(path, types.ModeImport)
	second := c.Run(path, types.ModeImport)
	require.NoError(t, first.Error)
	require.NoError(t, second.Error)
	assert.NotEqual(t, first.OutputFile, second.OutputFile)
	assert.Equal(t, "hoshuko-lib-import-2026-04-09-2.tsv", filepath.Base(second.OutputFile))
}

func TestRun_Cards(t *testing.T) {
	var b strings.Builder
	b.WriteString("学籍番号,氏名,ふりがな,学年\n")
	for i := 0; i < 13; i++ {
		b.WriteString("S1" + string(rune('a'+i)) + ",名前,なまえ,小1\n")
	}
	b.WriteString("S200,鈴木花子,すずきはなこ,中2\n")

	c := newConverter(t, nil)
	path := writeFile(t, t.TempDir(), "roster.csv", b.String())

	result := c.Run(path, types.ModeCards)
	require.NoError(t, result.Error)
	assert.Equal(t, 3, result.Stats.PagesCreated)
	assert.Equal(t, "hoshuko-cards-2026-04-09.xlsx", filepath.Base(result.OutputFile))

	f, err := excelize.OpenFile(result.OutputFile)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		"小一-01-表", "小一-01-裏",
		"小一-02-表", "小一-02-裏",
		"中二-01-表", "中二-01-裏",
	}, f.GetSheetList())

	// Entry-year students carry only the reading on the name side.
	back, err := f.GetCellValue("小一-01-裏", "C1")
	require.NoError(t, err)
	assert.Equal(t, "なまえ", back)

	back, err = f.GetCellValue("中二-01-裏", "C1")
	require.NoError(t, err)
	assert.Equal(t, "すずきはなこ\n鈴木花子", back)
}

func TestRun_List(t *testing.T) {
	c := newConverter(t, nil)
	path := writeFile(t, t.TempDir(), "roster.csv", roster)

	result := c.Run(path, types.ModeList)
	require.NoError(t, result.Error)
	assert.Equal(t, 2, result.Stats.PagesCreated)

	f, err := excelize.OpenFile(result.OutputFile)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"小一-01", "中二-01"}, f.GetSheetList())

	rows, err := f.GetRows("小一-01")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"2", "S003", "佐藤次郎", "さとうじろう", "小一"}, rows[3])
}

func TestRun_SchemaError(t *testing.T) {
	c := newConverter(t, nil)
	path := writeFile(t, t.TempDir(), "roster.csv", "学籍番号,名前,学年\nS001,田中,小1\n")

	result := c.Run(path, types.ModeImport)
	require.Error(t, result.Error)
	assert.True(t, errors.Is(result.Error, ErrSchema))
	assert.False(t, result.Success)
	assert.Equal(t, []string{"氏名", "ふりがな"}, result.MissingFields)
	assert.Empty(t, result.OutputFile)

	_, err := os.Stat(c.config.OutputDir)
	assert.True(t, os.IsNotExist(err), "nothing is written on a schema failure")
}

func TestRun_ParseErrors(t *testing.T) {
	c := newConverter(t, nil)
	dir := t.TempDir()

	result := c.Run(filepath.Join(dir, "missing.csv"), types.ModeImport)
	assert.ErrorIs(t, result.Error, ErrParse)

	result = c.Run(writeFile(t, dir, "empty.csv", ""), types.ModeImport)
	assert.ErrorIs(t, result.Error, ErrParse)

	result = c.Run(writeFile(t, dir, "roster.pdf", "x"), types.ModeImport)
	assert.ErrorIs(t, result.Error, ErrUnsupportedInput)
}

func TestRun_UnknownGradePolicy(t *testing.T) {
	input := roster + "S004,高橋,たかはし,高1\n"

	t.Run("propagate", func(t *testing.T) {
		c := newConverter(t, nil)
		path := writeFile(t, t.TempDir(), "roster.csv", input)

		result := c.Run(path, types.ModeList)
		require.NoError(t, result.Error)
		assert.Equal(t, 1, result.Stats.Warnings)
		assert.Equal(t, 3, result.Stats.PagesCreated)
		require.NotEmpty(t, result.ErrorLog)

		log, err := os.ReadFile(result.ErrorLog)
		require.NoError(t, err)
		assert.Contains(t, string(log), validation.RuleUnknownGrade)
		assert.Contains(t, string(log), "高1")

		f, err := excelize.OpenFile(result.OutputFile)
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, []string{"小一-01", "中二-01", "不明-01"}, f.GetSheetList())
	})

	t.Run("reject", func(t *testing.T) {
		cfg := config.Default()
		cfg.UnknownGradePolicy = config.PolicyReject
		c := newConverter(t, cfg)
		path := writeFile(t, t.TempDir(), "roster.csv", input)

		result := c.Run(path, types.ModeImport)
		assert.ErrorIs(t, result.Error, ErrRows)
		assert.Equal(t, 1, result.Stats.Errors)
		assert.Empty(t, result.OutputFile)
		assert.NotEmpty(t, result.ErrorLog)
	})
}

func TestRun_TransformationRules(t *testing.T) {
	cfg := config.Default()
	cfg.TransformationRules = []config.TransformationRule{
		{Field: "学年", Actions: []config.TransformationAction{{Type: "fold_width"}}},
		{Field: "学籍番号", Actions: []config.TransformationAction{{Type: "trim"}, {Type: "uppercase"}}},
	}
	c := newConverter(t, cfg)
	path := writeFile(t, t.TempDir(), "roster.csv", "学籍番号,氏名,ふりがな,学年\n s001 ,田中,たなか,小１\n")

	result := c.Run(path, types.ModeCards)
	require.NoError(t, result.Error)
	assert.Zero(t, result.Stats.Warnings)

	f, err := excelize.OpenFile(result.OutputFile)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"小一-01-表", "小一-01-裏"}, f.GetSheetList())

	front, err := f.GetCellValue("小一-01-表", "B1")
	require.NoError(t, err)
	assert.Equal(t, "田中\nS001\n補習校図書室", front)
}

func TestRun_TSVAndXLSXInput(t *testing.T) {
	dir := t.TempDir()
	c := newConverter(t, nil)

	tsv := writeFile(t, dir, "roster.tsv", strings.ReplaceAll(roster, ",", "\t"))
	result := c.Run(tsv, types.ModeImport)
	require.NoError(t, result.Error)
	assert.Equal(t, 3, result.Stats.RecordsCreated)

	wb := excelize.NewFile()
	for i, row := range strings.Split(strings.TrimSpace(roster), "\n") {
		cells := strings.Split(row, ",")
		values := make([]interface{}, len(cells))
		for j, cell := range cells {
			values[j] = cell
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &values))
	}
	xlsx := filepath.Join(dir, "roster.xlsx")
	require.NoError(t, wb.SaveAs(xlsx))
	require.NoError(t, wb.Close())

	result = c.Run(xlsx, types.ModeList)
	require.NoError(t, result.Error)
	assert.Equal(t, 2, result.Stats.PagesCreated)
}

func TestRun_DryRun(t *testing.T) {
	c := newConverter(t, nil, WithDryRun(true))
	assert.True(t, c.DryRun())
	path := writeFile(t, t.TempDir(), "roster.csv", roster+"S004,高橋,たかはし,高1\n")

	result := c.Run(path, types.ModeCards)
	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Stats.PagesCreated)
	assert.Empty(t, result.ErrorLog)

	_, err := os.Stat(c.config.OutputDir)
	assert.True(t, os.IsNotExist(err), "dry run writes nothing")
}

func TestCheck(t *testing.T) {
	c := newConverter(t, nil)
	dir := t.TempDir()

	result := c.Check(writeFile(t, dir, "ok.csv", roster+"S001,重複,ちょうふく,小2\n"))
	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Stats.Warnings)
	require.Len(t, result.Problems, 1)
	assert.Equal(t, validation.RuleDuplicateID, result.Problems[0].Rule)
	assert.Empty(t, result.OutputFile)
	assert.Empty(t, result.ErrorLog)

	result = c.Check(writeFile(t, dir, "bad.csv", "学籍番号\nS001\n"))
	assert.ErrorIs(t, result.Error, ErrSchema)
}

func TestNew_BadRules(t *testing.T) {
	cfg := config.Default()
	cfg.TransformationRules = []config.TransformationRule{{
		Field:   "学年",
		Actions: []config.TransformationAction{{Type: "regex_replace", Find: "("}},
	}}

	_, err := New(cfg, nil)
	assert.Error(t, err)
}

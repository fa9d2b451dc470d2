package converter

import (
	"testing"

	"github.com/ginjaninja78/hoshuko-library-tools/internal/config"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTransformation(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		action config.TransformationAction
		want   string
	}{
		{"trim", "　田中 ", config.TransformationAction{Type: "trim"}, "田中"},
		{"normalize_whitespace", " 田中　 太郎 ", config.TransformationAction{Type: "normalize_whitespace"}, "田中 太郎"},
		{"remove_spaces", "たなか　たろう", config.TransformationAction{Type: "remove_spaces"}, "たなかたろう"},
		{"fold_width digits", "小２", config.TransformationAction{Type: "fold_width"}, "小2"},
		{"fold_width letters", "Ｓ００１", config.TransformationAction{Type: "fold_width"}, "S001"},
		{"fold_width katakana", "ﾀﾅｶ", config.TransformationAction{Type: "fold_width"}, "タナカ"},
		{"uppercase", "s001", config.TransformationAction{Type: "uppercase"}, "S001"},
		{"replace", "中学1", config.TransformationAction{Type: "replace", Find: "中学", Value: "中"}, "中1"},
		{"replace without find", "中学1", config.TransformationAction{Type: "replace"}, "中学1"},
		{"regex_replace", "小学3年", config.TransformationAction{Type: "regex_replace", Find: `^小学(\d)年$`, Value: "小$1"}, "小3"},
		{"lookup hit", "一年", config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"一年": "小1"}}, "小1"},
		{"lookup miss", "二年", config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"一年": "小1"}}, "二年"},
		{"lookup_with_default miss", "x", config.TransformationAction{Type: "lookup_with_default", Value: "?", LookupTable: map[string]string{}}, "?"},
		{"if_empty_use_default empty", " ", config.TransformationAction{Type: "if_empty_use_default", Value: "不明"}, "不明"},
		{"if_empty_use_default set", "a", config.TransformationAction{Type: "if_empty_use_default", Value: "不明"}, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyTransformation(tt.value, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyTransformation_Errors(t *testing.T) {
	_, err := ApplyTransformation("x", config.TransformationAction{Type: "explode"})
	assert.ErrorContains(t, err, "unknown transformation type")

	_, err = ApplyTransformation("x", config.TransformationAction{Type: "regex_replace", Find: "("})
	assert.Error(t, err)
}

// Every action the configuration accepts must be implemented.
func TestApplyTransformation_CoversSupportedActions(t *testing.T) {
	for _, action := range config.SupportedActions {
		_, err := ApplyTransformation("x", config.TransformationAction{Type: action})
		assert.NoError(t, err, action)
	}
}

func TestNewTransformer_BadPattern(t *testing.T) {
	_, err := NewTransformer([]config.TransformationRule{{
		Field:   "学年",
		Actions: []config.TransformationAction{{Type: "regex_replace", Find: "[", Value: ""}},
	}})
	assert.ErrorContains(t, err, "学年")
}

func TestTransformRow(t *testing.T) {
	tr, err := NewTransformer([]config.TransformationRule{
		{Field: "学年", Actions: []config.TransformationAction{{Type: "fold_width"}}},
		{Field: "学年", Actions: []config.TransformationAction{{Type: "regex_replace", Find: `^小学(\d)年$`, Value: "小$1"}}},
		{Field: "氏名", Actions: []config.TransformationAction{{Type: "trim"}}},
		{Field: "備考", Actions: []config.TransformationAction{{Type: "trim"}}},
	})
	require.NoError(t, err)
	assert.False(t, tr.Empty())

	row := types.RawRow{"学年": "小学３年", "氏名": " 田中 ", "学籍番号": " S001 "}
	out, err := tr.TransformRow(row)
	require.NoError(t, err)

	assert.Equal(t, types.RawRow{"学年": "小3", "氏名": "田中", "学籍番号": " S001 "}, out)
	// The input row is left alone.
	assert.Equal(t, "小学３年", row["学年"])
}

func TestTransformer_Empty(t *testing.T) {
	tr, err := NewTransformer(nil)
	require.NoError(t, err)
	assert.True(t, tr.Empty())

	got, err := tr.Transform("学年", "小1")
	require.NoError(t, err)
	assert.Equal(t, "小1", got)
}

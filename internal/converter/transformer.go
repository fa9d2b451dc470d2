// =============================================================================
// Hoshuko Library Tools - Cell Transformation Engine
// =============================================================================
//
// This module cleans up raw roster cells before they are normalized into
// student records. Rosters are typed by hand and exported from different
// tools, so the same grade can arrive as "小1", "小１" or "小学1年".
//
// TRANSFORMATION TYPES:
//   - Whitespace clean-up (trim, normalize_whitespace, remove_spaces)
//   - Width folding of full-width digits and letters (fold_width)
//   - Substring and regular expression replacements
//   - Lookup table replacements
//   - Defaults for empty cells
//
// Rules are keyed by the roster header and listed in the configuration:
//
//   transformation_rules:
//     - field: 学年
//       actions:
//         - type: fold_width
//         - type: lookup
//           lookup_table: {"小学1年": "小1"}
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/hoshuko-library-tools/internal/config"
	"github.com/ginjaninja78/hoshuko-library-tools/internal/types"
	"golang.org/x/text/width"
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer handles cell value transformations.
type Transformer struct {
	rules map[string][]config.TransformationAction

	// patterns caches compiled regex_replace expressions by source.
	patterns map[string]*regexp.Regexp
}

// NewTransformer creates a new Transformer with the given rules. Rules for
// the same field are concatenated in order. Every regex_replace pattern is
// compiled up front so a bad pattern fails before any row is touched.
func NewTransformer(rules []config.TransformationRule) (*Transformer, error) {
	t := &Transformer{
		rules:    make(map[string][]config.TransformationAction, len(rules)),
		patterns: make(map[string]*regexp.Regexp),
	}

	for _, rule := range rules {
		t.rules[rule.Field] = append(t.rules[rule.Field], rule.Actions...)

		for _, action := range rule.Actions {
			if action.Type != "regex_replace" || action.Find == "" {
				continue
			}
			if _, ok := t.patterns[action.Find]; ok {
				continue
			}
			re, err := regexp.Compile(action.Find)
			if err != nil {
				return nil, fmt.Errorf("invalid regex pattern for field '%s': %w", rule.Field, err)
			}
			t.patterns[action.Find] = re
		}
	}

	return t, nil
}

// Empty reports whether the transformer has no rules.
func (t *Transformer) Empty() bool {
	return len(t.rules) == 0
}

// =============================================================================
// TRANSFORMATION FUNCTIONS
// =============================================================================

// Transform applies the rules of one field to a value.
//
// PARAMETERS:
//   - fieldName: The roster header of the cell.
//   - value:     The current cell value.
//
// RETURNS:
//   - The transformed value, or value unchanged when no rule matches.
//   - An error if any transformation fails.
func (t *Transformer) Transform(fieldName, value string) (string, error) {
	actions, ok := t.rules[fieldName]
	if !ok {
		return value, nil
	}

	result := value
	for _, action := range actions {
		var err error
		result, err = t.apply(result, action)
		if err != nil {
			return "", fmt.Errorf("transformation '%s' failed: %w", action.Type, err)
		}
	}

	return result, nil
}

// TransformRow returns a copy of row with every rule applied. Cells without
// a rule are copied as is; rules for absent columns are skipped.
func (t *Transformer) TransformRow(row types.RawRow) (types.RawRow, error) {
	out := make(types.RawRow, len(row))
	for field, value := range row {
		transformed, err := t.Transform(field, value)
		if err != nil {
			return nil, fmt.Errorf("error transforming field '%s': %w", field, err)
		}
		out[field] = transformed
	}
	return out, nil
}

func (t *Transformer) apply(value string, action config.TransformationAction) (string, error) {
	if action.Type == "regex_replace" && action.Find != "" {
		if re, ok := t.patterns[action.Find]; ok {
			return re.ReplaceAllString(value, action.Value), nil
		}
	}
	return ApplyTransformation(value, action)
}

// ApplyTransformation applies a single transformation action.
//
// SUPPORTED TRANSFORMATIONS:
//   See config.SupportedActions; the switch below implements each of them.
func ApplyTransformation(value string, action config.TransformationAction) (string, error) {
	switch action.Type {

	// =========================================================================
	// WHITESPACE
	// =========================================================================

	case "trim":
		// Leading and trailing whitespace, ideographic space (U+3000) included.
		return strings.TrimSpace(value), nil

	case "normalize_whitespace":
		// Collapse runs of whitespace into one ASCII space.
		//
		// EXAMPLE:
		//   Input:  "田中　 太郎"
		//   Output: "田中 太郎"
		return strings.Join(strings.Fields(value), " "), nil

	case "remove_spaces":
		// Drop every whitespace character. Useful for readings typed with a
		// space between family and given name.
		return strings.Join(strings.Fields(value), ""), nil

	// =========================================================================
	// WIDTH
	// =========================================================================

	case "fold_width":
		// Fold full-width ASCII to half-width and half-width katakana to
		// full-width.
		//
		// EXAMPLE:
		//   Input:  "小２"
		//   Output: "小2"
		return width.Fold.String(value), nil

	case "uppercase":
		return strings.ToUpper(value), nil

	// =========================================================================
	// REPLACEMENTS
	// =========================================================================

	case "replace":
		// EXAMPLE:
		//   Input:  "中学1"
		//   Action: replace with find "中学" and value "中"
		//   Output: "中1"
		if action.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, action.Find, action.Value), nil

	case "regex_replace":
		// EXAMPLE:
		//   Input:  "小学3年"
		//   Action: regex_replace with find "^小学(\d)年$" and value "小$1"
		//   Output: "小3"
		if action.Find == "" {
			return value, nil
		}
		re, err := regexp.Compile(action.Find)
		if err != nil {
			return "", fmt.Errorf("invalid regex pattern: %w", err)
		}
		return re.ReplaceAllString(value, action.Value), nil

	// =========================================================================
	// LOOKUP TABLE REPLACEMENTS
	// =========================================================================

	case "lookup":
		// Unknown values pass through unchanged.
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return value, nil

	case "lookup_with_default":
		// Unknown values become action.Value.
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return action.Value, nil

	// =========================================================================
	// DEFAULTS
	// =========================================================================

	case "if_empty_use_default":
		if strings.TrimSpace(value) == "" {
			return action.Value, nil
		}
		return value, nil

	default:
		return "", fmt.Errorf("unknown transformation type: %s", action.Type)
	}
}

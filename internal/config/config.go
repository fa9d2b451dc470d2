// =============================================================================
// Hoshuko Library Tools - Configuration Module
// =============================================================================
//
// This module loads the application configuration from a YAML file. Every
// setting has a default, so the tool also runs without a config file.
//
// CONFIGURATION SECTIONS:
//   - Output:  where artifacts and error logs go and how they are named
//   - Logging: level and optional log file
//   - Input:   delimiter, encoding and sheet of the roster file
//   - Columns: the roster headers that carry each student field
//   - Rules:   cell clean-up applied before normalization
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the application configuration.
type MainConfig struct {
	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is the directory where generated files are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// ImportFileName is the file name pattern of the library import file.
	// Placeholders: {date} {timestamp} {uuid} {mode} {original}
	// Default: "hoshuko-lib-import-{date}.tsv"
	ImportFileName string `yaml:"import_file_name"`

	// WorkbookFileName is the file name pattern of card and list workbooks.
	// Default: "hoshuko-{mode}-{date}.xlsx"
	WorkbookFileName string `yaml:"workbook_file_name"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is an optional path that receives a copy of the log stream.
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency bounds how many input files are processed at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// UnknownGradePolicy decides what happens to rows whose grade code is not
	// in the grade tables.
	//   - "propagate": keep the row with an empty year and label, log a warning
	//   - "reject":    fail the run
	// Default: "propagate"
	UnknownGradePolicy string `yaml:"unknown_grade_policy"`

	// Input holds the roster parsing settings.
	Input InputSettings `yaml:"input"`

	// Columns names the roster headers for each student field.
	Columns Columns `yaml:"columns"`

	// TransformationRules clean up raw cells before normalization.
	TransformationRules []TransformationRule `yaml:"transformation_rules"`
}

// Unknown grade policies.
const (
	PolicyPropagate = "propagate"
	PolicyReject    = "reject"
)

// =============================================================================
// INPUT SETTINGS STRUCTURE
// =============================================================================

// InputSettings contains settings for reading the roster file.
type InputSettings struct {
	// Delimiter separates fields in delimited text files.
	// Accepts a single character or "tab", "\\t", "pipe", "semicolon".
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Encoding of delimited text files: "UTF-8", "Shift_JIS" or "auto".
	// "auto" reads UTF-8 and falls back to Shift_JIS when the bytes are not
	// valid UTF-8.
	// Default: "auto"
	Encoding string `yaml:"encoding"`

	// Sheet is the worksheet to read from spreadsheet input. The first
	// sheet is used when empty.
	Sheet string `yaml:"sheet"`
}

// Supported encodings.
const (
	EncodingAuto     = "auto"
	EncodingUTF8     = "UTF-8"
	EncodingShiftJIS = "Shift_JIS"
)

// =============================================================================
// COLUMN MAPPING STRUCTURE
// =============================================================================

// Columns maps each student field to its roster header. Headers are matched
// exactly, without trimming or case folding.
type Columns struct {
	StudentID string `yaml:"student_id"`
	FullName  string `yaml:"full_name"`
	Reading   string `yaml:"reading"`
	Grade     string `yaml:"grade"`
}

// Default roster headers.
const (
	DefaultStudentIDColumn = "学籍番号"
	DefaultFullNameColumn  = "氏名"
	DefaultReadingColumn   = "ふりがな"
	DefaultGradeColumn     = "学年"
)

// DefaultColumns returns the standard roster headers.
func DefaultColumns() Columns {
	return Columns{
		StudentID: DefaultStudentIDColumn,
		FullName:  DefaultFullNameColumn,
		Reading:   DefaultReadingColumn,
		Grade:     DefaultGradeColumn,
	}
}

// Required returns the headers every roster must contain, in declared order:
// student id, full name, reading, grade.
func (c Columns) Required() []string {
	return []string{c.StudentID, c.FullName, c.Reading, c.Grade}
}

// =============================================================================
// TRANSFORMATION RULE STRUCTURE
// =============================================================================

// TransformationRule defines the actions applied to one roster column.
type TransformationRule struct {
	// Field is the roster header the actions apply to.
	Field string `yaml:"field"`

	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction defines a single transformation action.
type TransformationAction struct {
	// Type is one of SupportedActions.
	Type string `yaml:"type"`

	// Value is the parameter of the action: the replacement string for
	// "replace" and "regex_replace", the default for "lookup_with_default"
	// and "if_empty_use_default".
	Value string `yaml:"value"`

	// Find is the substring or pattern for "replace" and "regex_replace".
	Find string `yaml:"find,omitempty"`

	// LookupTable maps input values to output values for the lookup types.
	// Example: map "小学1年" to "小1".
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// SupportedActions lists the transformation types the converter implements.
var SupportedActions = []string{
	"trim",
	"fold_width",
	"normalize_whitespace",
	"remove_spaces",
	"replace",
	"regex_replace",
	"lookup",
	"lookup_with_default",
	"if_empty_use_default",
	"uppercase",
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	config := &MainConfig{}
	applyMainConfigDefaults(config)
	return config
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file.
//   - optional:   When true, a missing file yields the defaults.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string, optional bool) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates a YAML configuration document.
func Parse(data []byte) (*MainConfig, error) {
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.ImportFileName == "" {
		config.ImportFileName = "hoshuko-lib-import-{date}.tsv"
	}
	if config.WorkbookFileName == "" {
		config.WorkbookFileName = "hoshuko-{mode}-{date}.xlsx"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.UnknownGradePolicy == "" {
		config.UnknownGradePolicy = PolicyPropagate
	}

	// Input settings defaults.
	if config.Input.Delimiter == "" {
		config.Input.Delimiter = ","
	}
	if config.Input.Encoding == "" {
		config.Input.Encoding = EncodingAuto
	}

	// Column defaults, field by field so a config can rename just one header.
	defaults := DefaultColumns()
	if config.Columns.StudentID == "" {
		config.Columns.StudentID = defaults.StudentID
	}
	if config.Columns.FullName == "" {
		config.Columns.FullName = defaults.FullName
	}
	if config.Columns.Reading == "" {
		config.Columns.Reading = defaults.Reading
	}
	if config.Columns.Grade == "" {
		config.Columns.Grade = defaults.Grade
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", config.LogLevel)
	}

	switch config.UnknownGradePolicy {
	case PolicyPropagate, PolicyReject:
	default:
		return fmt.Errorf("unknown_grade_policy %q is not one of %s, %s",
			config.UnknownGradePolicy, PolicyPropagate, PolicyReject)
	}

	if _, err := config.Input.Comma(); err != nil {
		return err
	}

	switch config.Input.Encoding {
	case EncodingAuto, EncodingUTF8, EncodingShiftJIS:
	default:
		return fmt.Errorf("encoding %q is not one of %s, %s, %s",
			config.Input.Encoding, EncodingAuto, EncodingUTF8, EncodingShiftJIS)
	}

	// The four roster columns must be distinct or one cell would feed two fields.
	seen := make(map[string]bool)
	for _, column := range config.Columns.Required() {
		if seen[column] {
			return fmt.Errorf("column %q is mapped to more than one field", column)
		}
		seen[column] = true
	}

	for i, rule := range config.TransformationRules {
		if rule.Field == "" {
			return fmt.Errorf("transformation rule %d has no field", i+1)
		}
		for _, action := range rule.Actions {
			if !isSupportedAction(action.Type) {
				return fmt.Errorf("transformation rule for %q: unknown transformation type: %s", rule.Field, action.Type)
			}
		}
	}

	return nil
}

// Comma resolves the delimiter setting to the rune used by the CSV reader.
func (s InputSettings) Comma() (rune, error) {
	switch s.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		return '\t', nil
	case "|", "pipe", "PIPE":
		return '|', nil
	case ";", "semicolon":
		return ';', nil
	case ",", "comma":
		return ',', nil
	}

	r := []rune(s.Delimiter)
	if len(r) != 1 || r[0] == '"' || r[0] == '\r' || r[0] == '\n' {
		return 0, fmt.Errorf("delimiter %q is not a single usable character", s.Delimiter)
	}
	return r[0], nil
}

func isSupportedAction(actionType string) bool {
	for _, supported := range SupportedActions {
		if actionType == supported {
			return true
		}
	}
	return false
}

// Package grade holds the static grade-code tables of the hoshuko school:
// six elementary grades (小1..小6) followed by three middle-school grades
// (中1..中3), numbered 1..9.
package grade

// Code is a grade token as written in the roster, e.g. "小3".
type Code = string

// EntryCode is the first elementary grade. Students in this grade cannot
// read kanji yet, so their cards carry only the reading.
const EntryCode Code = "小1"

// Grade is the resolved form of a Code.
type Grade struct {
	Code  Code
	Year  int
	Label string
}

// Table maps grade codes to their year and label. A Table is read-only after
// construction and safe to share between goroutines.
type Table struct {
	byCode map[Code]Grade
	order  []Code
}

// NewTable builds a Table from grades listed in year order.
func NewTable(grades ...Grade) *Table {
	t := &Table{
		byCode: make(map[Code]Grade, len(grades)),
		order:  make([]Code, 0, len(grades)),
	}
	for _, g := range grades {
		if _, dup := t.byCode[g.Code]; dup {
			continue
		}
		t.byCode[g.Code] = g
		t.order = append(t.order, g.Code)
	}
	return t
}

var standard = NewTable(
	Grade{Code: "小1", Year: 1, Label: "小一"},
	Grade{Code: "小2", Year: 2, Label: "小二"},
	Grade{Code: "小3", Year: 3, Label: "小三"},
	Grade{Code: "小4", Year: 4, Label: "小四"},
	Grade{Code: "小5", Year: 5, Label: "小五"},
	Grade{Code: "小6", Year: 6, Label: "小六"},
	Grade{Code: "中1", Year: 7, Label: "中一"},
	Grade{Code: "中2", Year: 8, Label: "中二"},
	Grade{Code: "中3", Year: 9, Label: "中三"},
)

// Standard returns the fixed nine-grade table.
func Standard() *Table {
	return standard
}

// Lookup resolves a code. The second result is false for unknown codes.
func (t *Table) Lookup(code Code) (Grade, bool) {
	g, ok := t.byCode[code]
	return g, ok
}

// Year returns the numeric year for code.
func (t *Table) Year(code Code) (int, bool) {
	g, ok := t.byCode[code]
	return g.Year, ok
}

// Label returns the localized label for code.
func (t *Table) Label(code Code) (string, bool) {
	g, ok := t.byCode[code]
	return g.Label, ok
}

// Codes lists the known codes in year order.
func (t *Table) Codes() []Code {
	out := make([]Code, len(t.order))
	copy(out, t.order)
	return out
}

// IsEntry reports whether code is exactly the entry-year token.
func IsEntry(code Code) bool {
	return code == EntryCode
}

// Package table loads the two-column metric sheet users upload and keeps it
// as an ordered metric -> value mapping.
package table

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Value is a cell from the value column. It remembers the raw text and, when
// the text looks numeric, its parsed number.
type Value struct {
	raw     string
	num     float64
	numeric bool
}

// ParseValue classifies a raw cell. Only finite decimal numbers count as
// numeric; NaN and infinities stay text.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{raw: s}
	}
	return Value{raw: s, num: f, numeric: true}
}

// Number builds a numeric value.
func Number(f float64) Value {
	return Value{raw: strconv.FormatFloat(f, 'f', -1, 64), num: f, numeric: true}
}

// Text builds a text value.
func Text(s string) Value { return Value{raw: s} }

// IsNumber reports whether the value was parsed as a number.
func (v Value) IsNumber() bool { return v.numeric }

// Float returns the numeric value and whether it is numeric.
func (v Value) Float() (float64, bool) { return v.num, v.numeric }

// String returns the cell as it appeared in the file.
func (v Value) String() string { return v.raw }

// Entry is one metric row.
type Entry struct {
	Metric string
	Value  Value
}

// Table is an ordered metric mapping. Keys are unique and non-empty;
// re-setting a key replaces its value but keeps its first position.
type Table struct {
	entries []Entry
	index   map[string]int
	folded  map[string]int
}

// New returns an empty table.
func New() *Table {
	return &Table{index: map[string]int{}, folded: map[string]int{}}
}

// Set stores v under name.
func (t *Table) Set(name string, v Value) {
	if i, ok := t.index[name]; ok {
		t.entries[i].Value = v
		t.folded[Fold(name)] = i
		return
	}
	t.entries = append(t.entries, Entry{Metric: name, Value: v})
	i := len(t.entries) - 1
	t.index[name] = i
	t.folded[Fold(name)] = i
}

// Get returns the value stored under the exact name.
func (t *Table) Get(name string) (Value, bool) {
	if t == nil {
		return Value{}, false
	}
	i, ok := t.index[name]
	if !ok {
		return Value{}, false
	}
	return t.entries[i].Value, true
}

// Lookup finds an entry by folded name (see Fold), so "Relacion" matches
// "Relación". Exact matches win.
func (t *Table) Lookup(name string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	if i, ok := t.index[name]; ok {
		return t.entries[i], true
	}
	if i, ok := t.folded[Fold(name)]; ok {
		return t.entries[i], true
	}
	return Entry{}, false
}

// Len returns the number of distinct metrics.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the rows in file order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Fold normalises a metric name for tolerant matching: accents removed,
// lower-cased, inner whitespace collapsed.
func Fold(name string) string {
	// transform chains are stateful, build one per call
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(chain, name)
	if err != nil {
		out = name
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

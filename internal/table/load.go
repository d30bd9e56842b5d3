package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Required header names. Matching is case-sensitive.
const (
	ColumnMetric = "metric"
	ColumnValue  = "value"
)

// ErrorKind classifies a ParseError.
type ErrorKind int

const (
	// MissingColumns means the header lacks "metric" or "value".
	MissingColumns ErrorKind = iota + 1
	// MalformedContent means the bytes could not be read as a table at all.
	MalformedContent
)

func (k ErrorKind) String() string {
	switch k {
	case MissingColumns:
		return "missing columns"
	case MalformedContent:
		return "malformed content"
	default:
		return "unknown"
	}
}

// ParseError is returned by Load.
type ParseError struct {
	Kind ErrorKind
	// Line is the 1-based input line, zero when not tied to a line.
	Line int
	// Missing lists the absent required columns for MissingColumns.
	Missing []string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d): %v", e.Kind, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsKind reports whether err is a ParseError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == kind
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load parses a delimited metric sheet with a header row. The delimiter is
// sniffed from the header among comma, semicolon and tab. Duplicate metric
// names keep the last value.
func Load(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Kind: MalformedContent, Err: fmt.Errorf("read input: %w", err)}
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return nil, &ParseError{Kind: MalformedContent, Err: errors.New("input is not valid UTF-8 text")}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &ParseError{Kind: MalformedContent, Err: errors.New("input is empty")}
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.Comma = sniffDelimiter(raw)
	// leading-space trimming would swallow empty tab-separated fields
	cr.TrimLeadingSpace = cr.Comma != '\t'

	header, err := cr.Read()
	if err != nil {
		return nil, fromCSVError(err)
	}
	metricCol, valueCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case ColumnMetric:
			if metricCol < 0 {
				metricCol = i
			}
		case ColumnValue:
			if valueCol < 0 {
				valueCol = i
			}
		}
	}
	var missing []string
	if metricCol < 0 {
		missing = append(missing, ColumnMetric)
	}
	if valueCol < 0 {
		missing = append(missing, ColumnValue)
	}
	if len(missing) > 0 {
		return nil, &ParseError{
			Kind:    MissingColumns,
			Line:    1,
			Missing: missing,
			Err:     fmt.Errorf("required column(s) %q not found in header %q", missing, header),
		}
	}

	t := New()
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fromCSVError(err)
		}
		line, _ := cr.FieldPos(0)
		name := strings.TrimSpace(rec[metricCol])
		if name == "" {
			if blank(rec) {
				continue
			}
			return nil, &ParseError{Kind: MalformedContent, Line: line, Err: errors.New("row has a value but no metric name")}
		}
		t.Set(name, ParseValue(rec[valueCol]))
	}
	return t, nil
}

func fromCSVError(err error) error {
	var ce *csv.ParseError
	if errors.As(err, &ce) {
		return &ParseError{Kind: MalformedContent, Line: ce.Line, Err: ce.Err}
	}
	return &ParseError{Kind: MalformedContent, Err: err}
}

// sniffDelimiter counts candidate separators on the header line and picks the
// most frequent one. Ties and headers without separators fall back to comma.
func sniffDelimiter(raw []byte) rune {
	first := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		first = raw[:i]
	}
	best, bestN := ',', bytes.Count(first, []byte{','})
	for _, c := range []rune{';', '\t'} {
		if n := bytes.Count(first, []byte(string(c))); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

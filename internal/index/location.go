package index

import (
	"fmt"
	"math"
)

// OpenEnd is the end column of a range whose token length is unknown. It
// extends the range to the end of the line.
const OpenEnd = math.MaxInt

// Location is a point in a source file as reported by the parser.
// Line and Column are 1-based.
type Location struct {
	Filename string `json:"Filename"`
	Offset   int    `json:"Offset"`
	Line     int    `json:"Line"`
	Column   int    `json:"Column"`
}

// Pos is a 1-based line/column position.
type Pos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range is a half-open [Start, End) span of text.
type Range struct {
	Start Pos `json:"start"`
	End   Pos `json:"end"`
}

// FileRange identifies a span of text in a particular file. It is the
// identity symbols and reference sites expose to consumers.
type FileRange struct {
	File  string `json:"file"`
	Range Range  `json:"range"`
}

// Pos returns the line/column of the location.
func (l Location) Pos() Pos {
	return Pos{Line: l.Line, Column: l.Column}
}

// ToRange converts the location into a range running to the end of its line.
func (l Location) ToRange() Range {
	return Range{
		Start: l.Pos(),
		End:   Pos{Line: l.Line, Column: OpenEnd},
	}
}

// ToRangeLen converts the location into a range spanning length columns.
func (l Location) ToRangeLen(length int) Range {
	return Range{
		Start: l.Pos(),
		End:   Pos{Line: l.Line, Column: l.Column + length},
	}
}

// In attaches the location's range to file.
func (l Location) In(file string) FileRange {
	return FileRange{File: file, Range: l.ToRange()}
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Filename, l.Line, l.Column)
}

// Before reports whether p sorts strictly before q.
func (p Pos) Before(q Pos) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Contains reports whether p lies inside the half-open range.
func (r Range) Contains(p Pos) bool {
	return !p.Before(r.Start) && p.Before(r.End)
}

// OpenEnded reports whether the range ends at OpenEnd.
func (r Range) OpenEnded() bool {
	return r.End.Column == OpenEnd
}

// Shift moves the start of the range by cols columns and gives it length
// columns. The result is always a single-line range.
func (r Range) Shift(cols, length int) Range {
	start := Pos{Line: r.Start.Line, Column: r.Start.Column + cols}
	return Range{Start: start, End: Pos{Line: start.Line, Column: start.Column + length}}
}

func (r FileRange) String() string {
	if r.Range.OpenEnded() {
		return fmt.Sprintf("%s:%d:%d", r.File, r.Range.Start.Line, r.Range.Start.Column)
	}
	return fmt.Sprintf("%s:%d:%d-%d:%d", r.File,
		r.Range.Start.Line, r.Range.Start.Column, r.Range.End.Line, r.Range.End.Column)
}

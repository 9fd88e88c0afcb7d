package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CellKind tags the value held by a Cell.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
	CellBool
)

func (k CellKind) String() string {
	switch k {
	case CellString:
		return "string"
	case CellNumber:
		return "number"
	case CellBool:
		return "bool"
	default:
		return "empty"
	}
}

// Cell is one spreadsheet value. Only the field matching Kind is meaningful.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
	Bool bool
}

// StringCell wraps s. The empty string becomes an empty cell.
func StringCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: CellString, Str: s}
}

// NumberCell wraps f.
func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Num: f}
}

// BoolCell wraps b.
func BoolCell(b bool) Cell {
	return Cell{Kind: CellBool, Bool: b}
}

// CellFromValue converts a loosely typed value, as returned by JSON decoders
// and the Sheets API, into a Cell.
func CellFromValue(v any) Cell {
	switch x := v.(type) {
	case nil:
		return Cell{}
	case Cell:
		return x
	case string:
		return StringCell(x)
	case bool:
		return BoolCell(x)
	case float64:
		return NumberCell(x)
	case float32:
		return NumberCell(float64(x))
	case int:
		return NumberCell(float64(x))
	case int64:
		return NumberCell(float64(x))
	case fmt.Stringer:
		return StringCell(x.String())
	default:
		return StringCell(fmt.Sprint(x))
	}
}

// String renders the cell the way a spreadsheet user would read it. Numbers
// never use exponent notation and integral values carry no fraction.
func (c Cell) String() string {
	switch c.Kind {
	case CellString:
		return c.Str
	case CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return ""
		}
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case CellBool:
		return strconv.FormatBool(c.Bool)
	default:
		return ""
	}
}

// IsBlank reports whether the cell carries no visible content.
func (c Cell) IsBlank() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellString:
		return strings.TrimSpace(c.Str) == ""
	default:
		return false
	}
}

// Falsy reports whether the cell is empty, blank, zero or false.
func (c Cell) Falsy() bool {
	switch c.Kind {
	case CellNumber:
		return c.Num == 0 || math.IsNaN(c.Num)
	case CellBool:
		return !c.Bool
	default:
		return c.IsBlank()
	}
}

// Truthy reports whether an indicator cell is set: 1, "1", true or "true".
func (c Cell) Truthy() bool {
	switch c.Kind {
	case CellNumber:
		return c.Num == 1
	case CellBool:
		return c.Bool
	case CellString:
		s := strings.ToLower(strings.TrimSpace(c.Str))
		return s == "1" || s == "true"
	default:
		return false
	}
}

package ingest

import (
	"math"
	"testing"
)

func TestCellString(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{"empty", Cell{}, ""},
		{"string", StringCell(" abc "), " abc "},
		{"integral number", NumberCell(123456), "123456"},
		{"large phone number", NumberCell(5551234567), "5551234567"},
		{"fraction", NumberCell(12.5), "12.5"},
		{"nan", NumberCell(math.NaN()), ""},
		{"bool", BoolCell(true), "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cell.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCellFromValue(t *testing.T) {
	tests := []struct {
		in   any
		want Cell
	}{
		{nil, Cell{}},
		{"", Cell{}},
		{"x", StringCell("x")},
		{float64(3), NumberCell(3)},
		{7, NumberCell(7)},
		{true, BoolCell(true)},
	}
	for _, tt := range tests {
		if got := CellFromValue(tt.in); got != tt.want {
			t.Errorf("CellFromValue(%#v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestCellTruthyFalsy(t *testing.T) {
	tests := []struct {
		name         string
		cell         Cell
		truthy, fals bool
	}{
		{"number one", NumberCell(1), true, false},
		{"number two", NumberCell(2), false, false},
		{"number zero", NumberCell(0), false, true},
		{"string one", StringCell("1"), true, false},
		{"string TRUE", StringCell(" TRUE "), true, false},
		{"string yes", StringCell("yes"), false, false},
		{"bool true", BoolCell(true), true, false},
		{"bool false", BoolCell(false), false, true},
		{"blank", StringCell("   "), false, true},
		{"empty", Cell{}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cell.Truthy(); got != tt.truthy {
				t.Errorf("Truthy() = %v, want %v", got, tt.truthy)
			}
			if got := tt.cell.Falsy(); got != tt.fals {
				t.Errorf("Falsy() = %v, want %v", got, tt.fals)
			}
		})
	}
}

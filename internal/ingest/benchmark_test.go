package ingest

import (
	"fmt"
	"strings"
	"testing"
)

func benchmarkRows(n int) [][]Cell {
	rows := [][]Cell{stringCells(TemplateHeader())}
	for i := 0; i < n; i++ {
		rows = append(rows, stringCells([]string{
			"Ana", "Diaz", fmt.Sprint(100000 + i), "Family", "1 Main St", "Springfield", "IL", "62701",
			"555-0100", "ana@example.com", "Yes", "2", "1", "$1,250.00", "", "", "", "", "", "", "", "1",
		}))
	}
	return rows
}

func BenchmarkParse(b *testing.B) {
	rows := benchmarkRows(1000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(rows); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNormalizeRow(b *testing.B) {
	rows := benchmarkRows(1)
	header := HeaderStrings(rows[0])
	m := MapColumns(header)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NormalizeRow(rows[1], header, m)
	}
}

func BenchmarkParseNumber_Currency(b *testing.B) {
	c := StringCell("$1,234,567.89")
	for i := 0; i < b.N; i++ {
		ParseNumber(c)
	}
}

func BenchmarkReadCSV(b *testing.B) {
	var sb strings.Builder
	sb.WriteString(strings.Join(TemplateHeader(), ",") + "\n")
	for i := 0; i < 1000; i++ {
		sb.WriteString("Ana,Diaz,100000,Family,1 Main St,Springfield,IL,62701,555-0100,ana@example.com,Yes,2,1,12.50,MD\n")
	}
	data := sb.String()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ReadCSV(strings.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}

package ingest

import (
	"errors"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(
		"First Name,Last Name,Registrant Id,Email,Checked In,Notes\n" +
			"Ana,Diaz,100,ana@example.com,Yes,vip\n" +
			",,,,,\n" +
			"Ben,Diaz,100,,no,\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	res, err := Parse(rows)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2", len(res.Records))
	}
	if res.SkippedRows != 1 {
		t.Errorf("SkippedRows = %d, want 1", res.SkippedRows)
	}
	if !res.Records[0].CheckedIn || res.Records[1].CheckedIn {
		t.Errorf("CheckedIn = %v/%v, want true/false", res.Records[0].CheckedIn, res.Records[1].CheckedIn)
	}
	if len(res.Unmapped) != 1 || res.Unmapped[0] != "Notes" {
		t.Errorf("Unmapped = %v, want [Notes]", res.Unmapped)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]Cell
		want error
	}{
		{"no rows", nil, ErrTooFewRows},
		{"header only", [][]Cell{{StringCell("First Name")}}, ErrTooFewRows},
		{"only blank data", [][]Cell{{StringCell("First Name")}, {StringCell(" ")}}, ErrTooFewRows},
		{"unknown headers", [][]Cell{{StringCell("foo"), StringCell("bar")}, {StringCell("1"), StringCell("2")}}, ErrNoRecognizedColumns},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.rows)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestResultDeduped(t *testing.T) {
	rows := [][]Cell{
		{StringCell("Registrant Id"), StringCell("First Name"), StringCell("Phone")},
		{StringCell("1"), StringCell("Ana"), StringCell("111")},
		{StringCell("1"), StringCell("Ana"), StringCell("222")},
	}
	res, err := Parse(rows)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(res.Records) != 2 {
		t.Errorf("preview should keep duplicates, got %d records", len(res.Records))
	}
	deduped := res.Deduped()
	if len(deduped) != 1 || deduped[0].Phone != "111" {
		t.Errorf("Deduped() = %+v, want single record with phone 111", deduped)
	}
}

package ingest

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/JonMunkholm/checkin/internal/participant"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"roster.csv", FormatCSV, false},
		{"ROSTER.CSV", FormatCSV, false},
		{"roster.xlsx", FormatXLSX, false},
		{"roster.xls", "", true},
		{"roster", "", true},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("DetectFormat(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("DetectFormat(%q) error = %v, want ErrUnsupportedFormat", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestReadCSV(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("First Name,Phone\n\"Ana\",555\nBe\x80n\nlone \"quote,1\n")...)
	rows, err := ReadCSV(bytes.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("len(rows) = %d, want 4", len(rows))
	}
	if got := rows[0][0].String(); got != "First Name" {
		t.Errorf("header[0] = %q, want BOM stripped", got)
	}
	if got := rows[2][0].String(); got != "Be?n" {
		t.Errorf("sanitized cell = %q, want %q", got, "Be?n")
	}
	if len(rows[2]) != 1 {
		t.Errorf("ragged row length = %d, want 1", len(rows[2]))
	}
	if got := rows[3][0].String(); got != `lone "quote` {
		t.Errorf("lazy quote cell = %q", got)
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	in := []participant.Participant{
		{RegistrantID: "100200", RegistrationType: "Family", FirstName: "Ana", LastName: "Diaz", Phone: "5551234567",
			CheckedIn: true, Attendees: 2, TotalPaid: 12.5, Shirts: participant.ShirtXL},
		{RegistrantID: "100200", RegistrationType: "Family", FirstName: "Ben", LastName: "Diaz",
			Attendees: 1, Shirts: participant.ShirtYSM},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, in); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	rows, err := ReadFile("export.xlsx", &buf)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	res, err := Parse(rows)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(res.Records) != len(in) {
		t.Fatalf("len(Records) = %d, want %d", len(res.Records), len(in))
	}
	for i := range in {
		if res.Records[i] != in[i] {
			t.Errorf("record %d =\n%+v\nwant\n%+v", i, res.Records[i], in[i])
		}
	}
}

func TestWriteCSV_Template(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	want := strings.Join(TemplateHeader(), ",") + "\n"
	if buf.String() != want {
		t.Errorf("template = %q, want %q", buf.String(), want)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	in := []participant.Participant{
		{RegistrantID: "7", FirstName: "Cy", LastName: "Lee", Email: "cy@example.com", Attendees: 1, TotalPaid: 1234.5, Shirts: participant.ShirtLG},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, in); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	rows, err := ReadFile("export.csv", &buf)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	res, err := Parse(rows)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if res.Records[0] != in[0] {
		t.Errorf("record =\n%+v\nwant\n%+v", res.Records[0], in[0])
	}
}

func TestReadFile_Unsupported(t *testing.T) {
	_, err := ReadFile("notes.pdf", strings.NewReader("x"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ReadFile() error = %v, want ErrUnsupportedFormat", err)
	}
}

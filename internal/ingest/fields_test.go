package ingest

import (
	"strings"
	"testing"
)

func TestMapColumns(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   Mapping
	}{
		{
			name:   "original headers",
			header: []string{"First Name", "Last Name", "Registrant Id", "Registrant Type", "State / Prov / Zip / Pin"},
			want: Mapping{
				FieldFirstName:        "First Name",
				FieldLastName:         "Last Name",
				FieldRegistrantID:     "Registrant Id",
				FieldRegistrationType: "Registrant Type",
				FieldState:            "State / Prov / Zip / Pin",
			},
		},
		{
			name:   "case and whitespace insensitive",
			header: []string{"  EMAIL ", "phone number", "shirt size"},
			want: Mapping{
				FieldEmail:  "  EMAIL ",
				FieldPhone:  "phone number",
				FieldShirts: "shirt size",
			},
		},
		{
			name:   "indicator columns",
			header: []string{"Y-LG", "xxl"},
			want: Mapping{
				"shirtY-LG": "Y-LG",
				"shirtXXL":  "xxl",
			},
		},
		{
			name:   "first match wins",
			header: []string{"Email", "E-mail"},
			want:   Mapping{FieldEmail: "Email"},
		},
		{
			name:   "empty cells ignored",
			header: []string{"", "   ", "City"},
			want:   Mapping{FieldCity: "City"},
		},
		{
			name:   "no fuzzy matching",
			header: []string{"Firstname ", "E mail", "Shirt-Size"},
			want:   Mapping{FieldFirstName: "Firstname "},
		},
		{
			name:   "nothing recognized",
			header: []string{"foo", "bar"},
			want:   Mapping{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapColumns(tt.header)
			if len(got) != len(tt.want) {
				t.Fatalf("MapColumns() = %v, want %v", got, tt.want)
			}
			for f, h := range tt.want {
				if got[f] != h {
					t.Errorf("mapping[%s] = %q, want %q", f, got[f], h)
				}
			}
		})
	}
}

func TestFieldSpellingsUnique(t *testing.T) {
	owner := make(map[string]Field)
	for _, spec := range FieldSpecs() {
		for _, s := range spec.Spellings {
			key := strings.ToLower(s)
			if prev, ok := owner[key]; ok {
				t.Errorf("spelling %q used by both %s and %s", s, prev, spec.Field)
			}
			owner[key] = spec.Field
		}
	}
}

func TestTemplateHeaderMapsEveryField(t *testing.T) {
	header := TemplateHeader()
	m := MapColumns(header)
	if len(m) != len(FieldSpecs()) {
		t.Errorf("template maps %d fields, want %d", len(m), len(FieldSpecs()))
	}
	if header[0] != "First Name" {
		t.Errorf("header[0] = %q, want %q", header[0], "First Name")
	}
}

func TestMappingUnmapped(t *testing.T) {
	header := []string{"First Name", "Notes", "", "Email"}
	got := MapColumns(header).Unmapped(header)
	if len(got) != 1 || got[0] != "Notes" {
		t.Errorf("Unmapped() = %v, want [Notes]", got)
	}
}

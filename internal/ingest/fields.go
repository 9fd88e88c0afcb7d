package ingest

import (
	"strings"

	"github.com/JonMunkholm/checkin/internal/participant"
)

// Field names an internal participant field a spreadsheet column can feed.
type Field string

const (
	FieldFirstName        Field = "firstName"
	FieldLastName         Field = "lastName"
	FieldRegistrantID     Field = "registrantId"
	FieldRegistrationType Field = "registrationType"
	FieldAddress          Field = "address"
	FieldCity             Field = "city"
	FieldState            Field = "state"
	FieldZip              Field = "zip"
	FieldPhone            Field = "phone"
	FieldEmail            Field = "email"
	FieldCheckedIn        Field = "checkedIn"
	FieldAttendees        Field = "attendees"
	FieldAdditionalFamily Field = "additionalFamily"
	FieldTotalPaid        Field = "totalPaid"
	FieldShirts           Field = "shirts"
)

// IndicatorField returns the per-size indicator field for size, e.g. shirtY-LG.
func IndicatorField(size participant.ShirtSize) Field {
	return Field("shirt" + string(size))
}

// FieldSpec lists the header spellings accepted for a field. The first
// spelling is the canonical one written to templates and exports.
type FieldSpec struct {
	Field     Field
	Spellings []string
}

// Canonical returns the header written for this field.
func (s FieldSpec) Canonical() string {
	return s.Spellings[0]
}

var fieldSpecs = buildFieldSpecs()

func buildFieldSpecs() []FieldSpec {
	specs := []FieldSpec{
		{FieldFirstName, []string{"First Name", "FirstName", "First"}},
		{FieldLastName, []string{"Last Name", "LastName", "Last", "Surname"}},
		{FieldRegistrantID, []string{"Registrant Id", "RegistrantId", "Registration Id", "Reg Id"}},
		{FieldRegistrationType, []string{"Registrant Type", "Registration Type", "Type"}},
		{FieldAddress, []string{"Address", "Street Address", "Address 1"}},
		{FieldCity, []string{"City"}},
		{FieldState, []string{"State / Prov / Zip / Pin", "State", "Province"}},
		{FieldZip, []string{"Zip", "Zip Code", "Postal Code"}},
		{FieldPhone, []string{"Phone", "Phone Number", "Mobile"}},
		{FieldEmail, []string{"Email", "Email Address", "E-mail"}},
		{FieldCheckedIn, []string{"Checked In", "CheckedIn", "Check In"}},
		{FieldAttendees, []string{"Attendees", "Attendee Count"}},
		{FieldAdditionalFamily, []string{"Additional Family", "Additional Family Members"}},
		{FieldTotalPaid, []string{"Total Paid", "Amount Paid", "Paid"}},
		{FieldShirts, []string{"Shirt Size", "Shirt", "Shirts", "T-Shirt Size"}},
	}
	for _, size := range participant.ShirtSizes {
		specs = append(specs, FieldSpec{IndicatorField(size), []string{string(size)}})
	}
	return specs
}

// FieldSpecs returns the column table in its fixed order.
func FieldSpecs() []FieldSpec {
	out := make([]FieldSpec, len(fieldSpecs))
	copy(out, fieldSpecs)
	return out
}

// Mapping maps a field to the original header string that feeds it.
type Mapping map[Field]string

// MapColumns matches header cells against the column table. Matching is
// exact after trimming and lower-casing. When several headers match the same
// field the first one wins. Fields without a match are absent.
func MapColumns(header []string) Mapping {
	m := make(Mapping)
	for _, h := range header {
		norm := normalizeHeader(h)
		if norm == "" {
			continue
		}
		for _, spec := range fieldSpecs {
			if _, taken := m[spec.Field]; taken {
				continue
			}
			if spec.matches(norm) {
				m[spec.Field] = h
			}
		}
	}
	return m
}

func (s FieldSpec) matches(norm string) bool {
	for _, spelling := range s.Spellings {
		if strings.ToLower(spelling) == norm {
			return true
		}
	}
	return false
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// Unmapped returns the non-empty headers that feed no field.
func (m Mapping) Unmapped(header []string) []string {
	used := make(map[string]bool, len(m))
	for _, h := range m {
		used[h] = true
	}
	var out []string
	for _, h := range header {
		if strings.TrimSpace(h) != "" && !used[h] {
			out = append(out, h)
		}
	}
	return out
}

// TemplateHeader returns the canonical header row, in table order.
func TemplateHeader() []string {
	out := make([]string, len(fieldSpecs))
	for i, spec := range fieldSpecs {
		out[i] = spec.Canonical()
	}
	return out
}

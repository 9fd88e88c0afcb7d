package ingest

// normalize.go turns raw spreadsheet rows into participant records.
//
// Nothing here fails: a cell that cannot be coerced becomes the field's
// default (0, "" or MD). Best-effort import is preferred over rejecting rows.

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/checkin/internal/participant"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// NormalizeRow builds a participant from one data row. Each mapped field is
// located with the first header equal to its mapped header string.
func NormalizeRow(row []Cell, header []string, m Mapping) participant.Participant {
	p := participant.New()
	cells := rowLookup{row: row, header: header, mapping: m}

	p.RegistrantID = cells.text(FieldRegistrantID)
	p.Phone = cells.text(FieldPhone)
	if c, ok := cells.get(FieldRegistrationType); ok && !c.Falsy() {
		p.RegistrationType = c.String()
	}

	p.FirstName = cells.text(FieldFirstName)
	p.LastName = cells.text(FieldLastName)
	p.Email = cells.text(FieldEmail)
	p.Address = cells.text(FieldAddress)
	p.City = cells.text(FieldCity)
	p.State = cells.text(FieldState)
	p.Zip = cells.text(FieldZip)

	if c, ok := cells.get(FieldCheckedIn); ok {
		p.CheckedIn = ParseCheckedIn(c)
	}
	if c, ok := cells.get(FieldTotalPaid); ok {
		p.TotalPaid = ParseNumber(c)
	}
	if c, ok := cells.get(FieldAttendees); ok {
		p.Attendees = ParseCount(c)
	}
	if c, ok := cells.get(FieldAdditionalFamily); ok {
		p.AdditionalFamily = ParseCount(c)
	}

	p.Shirts = cells.shirt()
	return p
}

type rowLookup struct {
	row     []Cell
	header  []string
	mapping Mapping
}

// get returns the cell feeding f. ok is false when f is not mapped; a mapped
// field whose column is missing from the row yields an empty cell.
func (l rowLookup) get(f Field) (Cell, bool) {
	h, ok := l.mapping[f]
	if !ok {
		return Cell{}, false
	}
	idx := indexOf(l.header, h)
	if idx < 0 || idx >= len(l.row) {
		return Cell{}, true
	}
	return l.row[idx], true
}

// text passes the cell's string form through unchanged, so normalizing a
// normalized record is a no-op and Dedup sees exactly what was typed.
func (l rowLookup) text(f Field) string {
	c, _ := l.get(f)
	return c.String()
}

// shirt prefers a direct size column and falls back to the first set
// indicator column in enumeration order.
func (l rowLookup) shirt() participant.ShirtSize {
	if c, ok := l.get(FieldShirts); ok && !c.Falsy() {
		if size, ok := participant.ParseShirtSize(c.String()); ok {
			return size
		}
		return participant.DefaultShirt
	}
	for _, size := range participant.ShirtSizes {
		if c, ok := l.get(IndicatorField(size)); ok && c.Truthy() {
			return size
		}
	}
	return participant.DefaultShirt
}

func indexOf(header []string, h string) int {
	for i, v := range header {
		if v == h {
			return i
		}
	}
	return -1
}

// ParseCheckedIn is true only for "yes", "true" and "1" after trimming and
// lower-casing. Booleans and numbers go through their string form.
func ParseCheckedIn(c Cell) bool {
	switch strings.ToLower(strings.TrimSpace(c.String())) {
	case "yes", "true", "1":
		return true
	default:
		return false
	}
}

// ParseNumber coerces c to a finite number, or 0. Currency symbols,
// thousands separators and accounting parentheses are accepted.
func ParseNumber(c Cell) float64 {
	switch c.Kind {
	case CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return 0
		}
		return c.Num
	case CellString:
		s, ok := cleanNumeric(c.Str)
		if !ok {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

// ParseCount coerces c to an integer count, truncating any fraction.
func ParseCount(c Cell) int {
	f := math.Trunc(ParseNumber(c))
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}

func cleanNumeric(s string) (string, bool) {
	s = CleanCell(s)
	if s == "" {
		return "", false
	}

	// Negative accounting format "(123.45)"
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)
	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return "", false
	}
	return s, true
}

// CleanCell trims whitespace, unwraps Excel text formulas (="0123") and
// strips surrounding quotes. Only numeric cells are cleaned this way; text
// fields keep their raw value.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// IsEmptyRow reports whether every cell in row is blank.
func IsEmptyRow(row []Cell) bool {
	for _, c := range row {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// Row renders p as a data row under TemplateHeader. Indicator columns stay
// empty because the size column carries the value.
func Row(p participant.Participant) []Cell {
	values := map[Field]Cell{
		FieldFirstName:        StringCell(p.FirstName),
		FieldLastName:         StringCell(p.LastName),
		FieldRegistrantID:     StringCell(p.RegistrantID),
		FieldRegistrationType: StringCell(p.RegistrationType),
		FieldAddress:          StringCell(p.Address),
		FieldCity:             StringCell(p.City),
		FieldState:            StringCell(p.State),
		FieldZip:              StringCell(p.Zip),
		FieldPhone:            StringCell(p.Phone),
		FieldEmail:            StringCell(p.Email),
		FieldCheckedIn:        StringCell(checkedInText(p.CheckedIn)),
		FieldAttendees:        NumberCell(float64(p.Attendees)),
		FieldAdditionalFamily: NumberCell(float64(p.AdditionalFamily)),
		FieldTotalPaid:        NumberCell(p.TotalPaid),
		FieldShirts:           StringCell(string(p.Shirts)),
	}
	row := make([]Cell, len(fieldSpecs))
	for i, spec := range fieldSpecs {
		row[i] = values[spec.Field]
	}
	return row
}

func checkedInText(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Package participant defines the participant record shared by the import
// pipeline, the repositories, the HTTP API and the client-side store.
package participant

import (
	"strings"
	"time"
)

// ShirtSize is an enumerated shirt size code.
type ShirtSize string

const (
	ShirtLG  ShirtSize = "LG"
	ShirtMD  ShirtSize = "MD"
	ShirtSM  ShirtSize = "SM"
	ShirtYMD ShirtSize = "Y-MD"
	ShirtYXS ShirtSize = "Y-XS"
	ShirtYSM ShirtSize = "Y-SM"
	ShirtYLG ShirtSize = "Y-LG"
	ShirtXL  ShirtSize = "XL"
	ShirtXXL ShirtSize = "XXL"

	DefaultShirt = ShirtMD
)

// ShirtSizes lists every size in its fixed enumeration order. Indicator
// column scanning during import depends on this order.
var ShirtSizes = []ShirtSize{
	ShirtLG, ShirtMD, ShirtSM, ShirtYMD, ShirtYXS, ShirtYSM, ShirtYLG, ShirtXL, ShirtXXL,
}

// ParseShirtSize trims and upper-cases s and reports whether the result is a
// known size.
func ParseShirtSize(s string) (ShirtSize, bool) {
	code := ShirtSize(strings.ToUpper(strings.TrimSpace(s)))
	if !code.Valid() {
		return "", false
	}
	return code, true
}

// Valid reports whether s is one of the enumerated sizes.
func (s ShirtSize) Valid() bool {
	for _, size := range ShirtSizes {
		if size == s {
			return true
		}
	}
	return false
}

// Participant is one registered person. Records are always fully populated;
// fields missing from the source carry their zero or default values.
type Participant struct {
	ID        int64     `json:"id,omitempty" yaml:"id,omitempty" db:"id"`
	CreatedAt time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty" db:"created_at"`

	RegistrantID     string `json:"registrantId" yaml:"registrantId" db:"registrant_id"`
	RegistrationType string `json:"registrationType" yaml:"registrationType" db:"registration_type"`
	FirstName        string `json:"firstName" yaml:"firstName" db:"first_name"`
	LastName         string `json:"lastName" yaml:"lastName" db:"last_name"`

	Email   string `json:"email" yaml:"email" db:"email"`
	Phone   string `json:"phone" yaml:"phone" db:"phone"`
	Address string `json:"address" yaml:"address" db:"address"`
	City    string `json:"city" yaml:"city" db:"city"`
	State   string `json:"state" yaml:"state" db:"state"`
	Zip     string `json:"zip" yaml:"zip" db:"zip"`

	CheckedIn        bool      `json:"checkedIn" yaml:"checkedIn" db:"checked_in"`
	Attendees        int       `json:"attendees" yaml:"attendees" db:"attendees"`
	AdditionalFamily int       `json:"additionalFamily" yaml:"additionalFamily" db:"additional_family"`
	TotalPaid        float64   `json:"totalPaid" yaml:"totalPaid" db:"total_paid"`
	Shirts           ShirtSize `json:"shirts" yaml:"shirts" db:"shirts"`
}

// BulkResult reports a bulk create. Records whose identity is already
// stored are skipped rather than failing the batch.
type BulkResult struct {
	Created []Participant `json:"created" yaml:"created"`
	Skipped int           `json:"skipped" yaml:"skipped"`
}

// New returns a participant carrying the record defaults.
func New() Participant {
	return Participant{Attendees: 1, Shirts: DefaultShirt}
}

// FullName joins first and last name.
func (p Participant) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Identity returns the composite key used to address p in updates and deletes.
func (p Participant) Identity() Identity {
	return Identity{
		RegistrantID:     p.RegistrantID,
		RegistrationType: p.RegistrationType,
		FirstName:        p.FirstName,
	}
}

// DedupKey is the five-field key used when deduplicating imported rows.
// Comparison is exact and case-sensitive.
func (p Participant) DedupKey() string {
	return strings.Join([]string{
		p.RegistrantID, p.FirstName, p.LastName, p.Email, p.RegistrationType,
	}, "|")
}

// Identity is the composite triple that stands in for a primary key.
// Any of the values may be empty; an empty value matches only empty.
type Identity struct {
	RegistrantID     string `json:"registrantId"`
	RegistrationType string `json:"registrationType"`
	FirstName        string `json:"firstName"`
}

// Matches reports whether p carries exactly this identity.
func (id Identity) Matches(p Participant) bool {
	return p.RegistrantID == id.RegistrantID &&
		p.RegistrationType == id.RegistrationType &&
		p.FirstName == id.FirstName
}

func (id Identity) String() string {
	return id.RegistrantID + "/" + id.RegistrationType + "/" + id.FirstName
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	RegistrantID     *string    `json:"registrantId,omitempty"`
	RegistrationType *string    `json:"registrationType,omitempty"`
	FirstName        *string    `json:"firstName,omitempty"`
	LastName         *string    `json:"lastName,omitempty"`
	Email            *string    `json:"email,omitempty"`
	Phone            *string    `json:"phone,omitempty"`
	Address          *string    `json:"address,omitempty"`
	City             *string    `json:"city,omitempty"`
	State            *string    `json:"state,omitempty"`
	Zip              *string    `json:"zip,omitempty"`
	CheckedIn        *bool      `json:"checkedIn,omitempty"`
	Attendees        *int       `json:"attendees,omitempty"`
	AdditionalFamily *int       `json:"additionalFamily,omitempty"`
	TotalPaid        *float64   `json:"totalPaid,omitempty"`
	Shirts           *ShirtSize `json:"shirts,omitempty"`
}

// CheckIn is the patch applied by check-in actions.
func CheckIn() Patch {
	checked := true
	return Patch{CheckedIn: &checked}
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Apply writes every set field of the patch onto dst.
func (p Patch) Apply(dst *Participant) {
	setString(&dst.RegistrantID, p.RegistrantID)
	setString(&dst.RegistrationType, p.RegistrationType)
	setString(&dst.FirstName, p.FirstName)
	setString(&dst.LastName, p.LastName)
	setString(&dst.Email, p.Email)
	setString(&dst.Phone, p.Phone)
	setString(&dst.Address, p.Address)
	setString(&dst.City, p.City)
	setString(&dst.State, p.State)
	setString(&dst.Zip, p.Zip)
	if p.CheckedIn != nil {
		dst.CheckedIn = *p.CheckedIn
	}
	if p.Attendees != nil {
		dst.Attendees = *p.Attendees
	}
	if p.AdditionalFamily != nil {
		dst.AdditionalFamily = *p.AdditionalFamily
	}
	if p.TotalPaid != nil {
		dst.TotalPaid = *p.TotalPaid
	}
	if p.Shirts != nil {
		dst.Shirts = *p.Shirts
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

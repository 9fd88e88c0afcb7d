package participant

import (
	"math/rand/v2"
	"strconv"
	"strings"
)

// RegistrationTypeIndividual is assigned to walk-up registrations.
const RegistrationTypeIndividual = "Individual"

// NewRegistrantID returns a random six digit registrant id.
func NewRegistrantID() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}

// FromRegistration builds the record stored for a walk-up registration.
// Walk-ups are checked in on the spot.
func FromRegistration(r Registration) Participant {
	p := New()
	p.RegistrantID = NewRegistrantID()
	p.RegistrationType = RegistrationTypeIndividual
	p.FirstName = strings.TrimSpace(r.FirstName)
	p.LastName = strings.TrimSpace(r.LastName)
	p.Email = strings.TrimSpace(r.Email)
	p.Phone = strings.TrimSpace(r.Phone)
	p.Address = strings.TrimSpace(r.Address)
	p.City = strings.TrimSpace(r.City)
	p.State = strings.TrimSpace(r.State)
	p.Zip = strings.TrimSpace(r.Zip)
	p.CheckedIn = true
	if size, ok := ParseShirtSize(r.Shirts); ok {
		p.Shirts = size
	}
	return p
}

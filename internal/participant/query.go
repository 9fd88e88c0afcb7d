package participant

import (
	"strings"

	"golang.org/x/text/cases"
)

// Status filters participants by check-in state.
type Status string

const (
	StatusAll       Status = "all"
	StatusCheckedIn Status = "checked-in"
	StatusPending   Status = "pending"
)

// ParseStatus maps user input to a Status, defaulting to StatusAll.
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusCheckedIn:
		return StatusCheckedIn
	case StatusPending:
		return StatusPending
	default:
		return StatusAll
	}
}

// Query selects participants by free-text search and status.
type Query struct {
	Search string
	Status Status
}

// Filter returns the participants matching q, preserving order.
// Search is a case-folded substring match against the full name, email,
// registrant id and phone.
func Filter(list []Participant, q Query) []Participant {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(q.Search))

	out := make([]Participant, 0, len(list))
	for _, p := range list {
		switch q.Status {
		case StatusCheckedIn:
			if !p.CheckedIn {
				continue
			}
		case StatusPending:
			if p.CheckedIn {
				continue
			}
		}
		if needle != "" && !matchesSearch(fold, p, needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesSearch(fold cases.Caser, p Participant, needle string) bool {
	for _, hay := range []string{p.FirstName + " " + p.LastName, p.Email, p.RegistrantID, p.Phone} {
		if strings.Contains(fold.String(hay), needle) {
			return true
		}
	}
	return false
}

// Family is the set of records sharing a registrant id.
type Family struct {
	RegistrantID string        `json:"registrantId"`
	Members      []Participant `json:"members"`
}

// CheckedIn counts the members already checked in.
func (f Family) CheckedIn() int {
	n := 0
	for _, m := range f.Members {
		if m.CheckedIn {
			n++
		}
	}
	return n
}

// AllCheckedIn reports whether every member is checked in.
func (f Family) AllCheckedIn() bool {
	return f.CheckedIn() == len(f.Members)
}

// Primary is the first member, used for display.
func (f Family) Primary() Participant {
	if len(f.Members) == 0 {
		return Participant{}
	}
	return f.Members[0]
}

// GroupFamilies groups records by registrant id in first-seen order.
func GroupFamilies(list []Participant) []Family {
	index := make(map[string]int)
	var families []Family
	for _, p := range list {
		i, ok := index[p.RegistrantID]
		if !ok {
			i = len(families)
			index[p.RegistrantID] = i
			families = append(families, Family{RegistrantID: p.RegistrantID})
		}
		families[i].Members = append(families[i].Members, p)
	}
	return families
}

// Members returns the records sharing registrantID.
func Members(list []Participant, registrantID string) []Participant {
	var out []Participant
	for _, p := range list {
		if p.RegistrantID == registrantID {
			out = append(out, p)
		}
	}
	return out
}

// Stats summarises a participant list for the dashboard.
type Stats struct {
	Total            int               `json:"total" yaml:"total"`
	CheckedIn        int               `json:"checkedIn" yaml:"checkedIn"`
	Pending          int               `json:"pending" yaml:"pending"`
	Families         int               `json:"families" yaml:"families"`
	Attendees        int               `json:"attendees" yaml:"attendees"`
	AdditionalFamily int               `json:"additionalFamily" yaml:"additionalFamily"`
	TotalPaid        float64           `json:"totalPaid" yaml:"totalPaid"`
	Shirts           map[ShirtSize]int `json:"shirts" yaml:"shirts"`
}

// Summarize computes Stats over list.
func Summarize(list []Participant) Stats {
	s := Stats{Shirts: make(map[ShirtSize]int)}
	families := make(map[string]struct{})
	for _, p := range list {
		s.Total++
		if p.CheckedIn {
			s.CheckedIn++
		}
		families[p.RegistrantID] = struct{}{}
		s.Attendees += p.Attendees
		s.AdditionalFamily += p.AdditionalFamily
		s.TotalPaid += p.TotalPaid
		if p.Shirts != "" {
			s.Shirts[p.Shirts]++
		}
	}
	s.Pending = s.Total - s.CheckedIn
	s.Families = len(families)
	return s
}

// Package templates renders the check-in pages as templ components.
//
// Components live in the .templ files; run `templ generate` after editing
// them and commit the generated _templ.go files.
package templates

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/checkin/internal/ingest"
	"github.com/JonMunkholm/checkin/internal/participant"
)

// Nav identifies the active navigation entry.
type Nav string

const (
	NavDashboard    Nav = "dashboard"
	NavParticipants Nav = "participants"
	NavCheckIn      Nav = "checkin"
	NavRegister     Nav = "register"
	NavUpload       Nav = "upload"
)

type navItem struct {
	nav   Nav
	label string
	url   templ.SafeURL
}

var navItems = []navItem{
	{NavDashboard, "Dashboard", "/"},
	{NavParticipants, "Participants", "/participants"},
	{NavCheckIn, "Check-in", "/checkin"},
	{NavRegister, "Register", "/register"},
	{NavUpload, "Upload", "/upload"},
}

// RegisterView is the state of the walk-up registration form.
type RegisterView struct {
	Form    participant.Registration
	Errors  participant.ValidationErrors
	Created *participant.Participant
	Alert   templ.Component
}

// UploadView is the state of the spreadsheet upload page.
type UploadView struct {
	// Preview is set after a file was parsed and awaits confirmation.
	ImportID string
	FileName string
	Mapping  ingest.Mapping
	Unmapped []string
	Records  []participant.Participant

	// Saved is set after confirmation.
	Saved *SavedImport

	Alert         templ.Component
	SheetsEnabled bool
}

// SavedImport summarises a stored import.
type SavedImport struct {
	Created, Skipped, Duplicates int
}

func (s SavedImport) message() string {
	msg := strconv.Itoa(s.Created) + " participants imported"
	if s.Skipped > 0 {
		msg += ", " + strconv.Itoa(s.Skipped) + " already registered"
	}
	if s.Duplicates > 0 {
		msg += ", " + strconv.Itoa(s.Duplicates) + " duplicate rows removed"
	}
	return msg + "."
}

// previewLimit caps how many rows the preview table shows.
const previewLimit = 50

func previewRows(records []participant.Participant) []participant.Participant {
	if len(records) > previewLimit {
		return records[:previewLimit]
	}
	return records
}

var statusOptions = []participant.Status{participant.StatusAll, participant.StatusCheckedIn, participant.StatusPending}

func selectedStatus(q participant.Query) participant.Status {
	if q.Status == "" {
		return participant.StatusAll
	}
	return q.Status
}

func selectedShirt(r participant.Registration) string {
	if s := strings.ToUpper(r.Shirts); s != "" {
		return s
	}
	return string(participant.DefaultShirt)
}

func registeredMessage(p participant.Participant) string {
	return p.FullName() + " registered as #" + p.RegistrantID + " and checked in."
}

// backQuery keeps the search across check-in form posts.
func backQuery(q participant.Query) string {
	return url.Values{"q": {q.Search}, "status": {string(q.Status)}}.Encode()
}

func exportURL(q participant.Query) templ.SafeURL {
	v := url.Values{"format": {"xlsx"}, "q": {q.Search}, "status": {string(q.Status)}}
	return templ.URL("/api/participants/export?" + v.Encode())
}

func money(f float64) string {
	return "$" + strconv.FormatFloat(f, 'f', 2, 64)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/checkin/internal/ingest"
	"github.com/JonMunkholm/checkin/internal/participant"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestParticipantsPage_EscapesValues(t *testing.T) {
	p := participant.New()
	p.FirstName = "<script>alert(1)</script>"
	p.RegistrantID = "123"

	out := render(t, ParticipantsPage([]participant.Participant{p}, participant.Query{Search: `"x"`}))

	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, `value="&#34;x&#34;"`)
	assert.Contains(t, out, `class="active"`)
}

func TestCheckInPage(t *testing.T) {
	ann := participant.New()
	ann.RegistrantID, ann.FirstName, ann.LastName, ann.RegistrationType = "123", "Ann", "Lee", "Family"
	bo := ann
	bo.FirstName = "Bo"
	bo.CheckedIn = true

	families := participant.GroupFamilies([]participant.Participant{ann, bo})
	out := render(t, CheckInPage(families, participant.Query{}, "Checked in 1"))

	assert.Contains(t, out, "Lee family")
	assert.Contains(t, out, "1 of 2 checked in")
	assert.Contains(t, out, `action="/checkin/123?`)
	assert.Contains(t, out, `name="firstName" value="Ann"`)
	assert.NotContains(t, out, `name="firstName" value="Bo"`)
	assert.Contains(t, out, "Checked in 1")
}

func TestRegisterPage_ShowsFieldErrors(t *testing.T) {
	errs := participant.Registration{FirstName: "Dee"}.Validate().(participant.ValidationErrors)

	out := render(t, RegisterPage(RegisterView{Form: participant.Registration{FirstName: "Dee"}, Errors: errs}))

	assert.Contains(t, out, `value="Dee"`)
	assert.Contains(t, out, "Email is required")
	assert.Contains(t, out, `<option value="MD" selected>`)
}

func TestUploadPage_Preview(t *testing.T) {
	rec := participant.New()
	rec.FirstName = "Eve"
	out := render(t, UploadPage(UploadView{
		ImportID: "abc",
		FileName: "roster.xlsx",
		Mapping:  ingest.Mapping{ingest.FieldFirstName: "First Name"},
		Unmapped: []string{"Notes"},
		Records:  []participant.Participant{rec},
	}))

	assert.Contains(t, out, "Preview of roster.xlsx")
	assert.Contains(t, out, `action="/upload/abc/save"`)
	assert.Contains(t, out, "Ignored: Notes")
}

func TestErrorAlert(t *testing.T) {
	out := render(t, ErrorAlert("No file was uploaded", "Choose a spreadsheet", "FILE004"))
	assert.Contains(t, out, "Code: FILE004")
	assert.Contains(t, out, `role="alert"`)
}

func TestCheckInPage_EscapesRegistrantInURLs(t *testing.T) {
	p := participant.New()
	p.RegistrantID, p.FirstName, p.LastName = `1"><script>`, "Ann", "Lee"

	out := render(t, CheckInPage(participant.GroupFamilies([]participant.Participant{p}), participant.Query{Search: "a&b"}, ""))

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `action="/checkin/1%22%3E%3Cscript%3E?q=a%26b`)
	assert.Contains(t, out, `name="registrantId" value="1&#34;&gt;&lt;script&gt;"`)
}

func TestErrorPage_WrapsAlertInLayout(t *testing.T) {
	out := render(t, ErrorPage("Import failed", "", "IMP001"))

	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))
	assert.Contains(t, out, `<main><h1>Something went wrong</h1><div class="alert" role="alert"><strong>Import failed</strong>`)
	assert.NotContains(t, out, `class="active"`)
}

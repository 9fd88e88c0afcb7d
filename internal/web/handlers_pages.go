package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/checkin/internal/core"
	"github.com/JonMunkholm/checkin/internal/participant"
	"github.com/JonMunkholm/checkin/internal/web/templates"
)

// render writes a page component with the given status.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render page", "path", r.URL.Path, "error", err)
	}
}

// alertFor logs err and returns the alert shown above a re-rendered form,
// along with the status to answer with.
func alertFor(r *http.Request, err error) (templ.Component, int) {
	msg := core.MapError(err)
	status := statusFor(msg)
	slog.Warn("page error",
		"path", r.URL.Path,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)
	return templates.ErrorAlert(msg.Message, msg.Action, msg.Code), status
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	render(w, r, http.StatusOK, templates.Dashboard(stats))
}

func (s *Server) handleParticipantsPage(w http.ResponseWriter, r *http.Request) {
	q := queryFromRequest(r)
	list, err := s.service.List(r.Context(), q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render(w, r, http.StatusOK, templates.ParticipantsPage(list, q))
}

func (s *Server) handleCheckInPage(w http.ResponseWriter, r *http.Request) {
	q := queryFromRequest(r)
	families, err := s.service.Families(r.Context(), q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render(w, r, http.StatusOK, templates.CheckInPage(families, q, r.URL.Query().Get("flash")))
}

// redirectToCheckIn sends the browser back to the check-in page with its
// search preserved and a flash message.
func redirectToCheckIn(w http.ResponseWriter, r *http.Request, flash string) {
	v := url.Values{}
	q := r.URL.Query()
	if s := q.Get("q"); s != "" {
		v.Set("q", s)
	}
	if st := q.Get("status"); st != "" {
		v.Set("status", st)
	}
	v.Set("flash", flash)
	http.Redirect(w, r, "/checkin?"+v.Encode(), http.StatusSeeOther)
}

// handleCheckInMember checks in the member posted by the check-in page.
func (s *Server) handleCheckInMember(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, r, err)
		return
	}
	id := participant.Identity{
		RegistrantID:     r.PostForm.Get("registrantId"),
		RegistrationType: r.PostForm.Get("registrationType"),
		FirstName:        r.PostForm.Get("firstName"),
	}
	n, err := s.service.CheckIn(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if n == 0 {
		redirectToCheckIn(w, r, id.FirstName+" was not found.")
		return
	}
	redirectToCheckIn(w, r, id.FirstName+" checked in.")
}

// handleCheckInFamily checks in every member of a registrant's family.
func (s *Server) handleCheckInFamily(w http.ResponseWriter, r *http.Request) {
	registrantID := chi.URLParam(r, "registrantId")
	n, err := s.service.CheckInFamily(r.Context(), registrantID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	redirectToCheckIn(w, r, "Family #"+registrantID+": "+strconv.FormatInt(n, 10)+" checked in.")
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, templates.RegisterPage(templates.RegisterView{}))
}

// handleRegister stores a walk-up registration and re-renders the form with
// field errors or a confirmation.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, r, err)
		return
	}
	form := participant.Registration{
		FirstName: r.PostForm.Get("firstName"),
		LastName:  r.PostForm.Get("lastName"),
		Email:     r.PostForm.Get("email"),
		Phone:     r.PostForm.Get("phone"),
		Address:   r.PostForm.Get("address"),
		City:      r.PostForm.Get("city"),
		State:     r.PostForm.Get("state"),
		Zip:       r.PostForm.Get("zip"),
		Shirts:    r.PostForm.Get("shirts"),
	}

	p, err := s.service.Register(r.Context(), form)
	if err != nil {
		view := templates.RegisterView{Form: form}
		var verrs participant.ValidationErrors
		if errors.As(err, &verrs) {
			view.Errors = verrs
		}
		var status int
		view.Alert, status = alertFor(r, err)
		render(w, r, status, templates.RegisterPage(view))
		return
	}
	render(w, r, http.StatusCreated, templates.RegisterPage(templates.RegisterView{Created: &p}))
}

func (s *Server) uploadView() templates.UploadView {
	return templates.UploadView{SheetsEnabled: s.service.SheetsEnabled()}
}

func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, templates.UploadPage(s.uploadView()))
}

// renderUploadError re-renders the upload page with an alert. HTMX
// requests get just the alert fragment.
func (s *Server) renderUploadError(w http.ResponseWriter, r *http.Request, err error) {
	if isHTMX(r) {
		respondError(w, r, err)
		return
	}
	view := s.uploadView()
	var status int
	view.Alert, status = alertFor(r, err)
	render(w, r, status, templates.UploadPage(view))
}

func (s *Server) renderPreview(w http.ResponseWriter, r *http.Request, p *core.Preview) {
	view := s.uploadView()
	view.ImportID = p.ImportID
	view.FileName = p.Source
	view.Mapping = p.Mapping
	view.Unmapped = p.Unmapped
	view.Records = p.Records
	render(w, r, http.StatusOK, templates.UploadPage(view))
}

// handleUploadPreview parses an uploaded file and shows its preview.
func (s *Server) handleUploadPreview(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.uploadedFile(w, r)
	if err != nil {
		s.renderUploadError(w, r, err)
		return
	}
	defer file.Close()

	preview, err := s.service.PreviewImport(r.Context(), header.Filename, file)
	if err != nil {
		s.renderUploadError(w, r, err)
		return
	}
	s.renderPreview(w, r, preview)
}

// handleUploadSheet previews the configured Google Sheet.
func (s *Server) handleUploadSheet(w http.ResponseWriter, r *http.Request) {
	preview, err := s.service.PreviewSheet(r.Context(), "")
	if err != nil {
		s.renderUploadError(w, r, err)
		return
	}
	s.renderPreview(w, r, preview)
}

// handleUploadSave stores a previewed upload.
func (s *Server) handleUploadSave(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.SavePending(r.Context(), chi.URLParam(r, "importId"))
	if err != nil {
		s.renderUploadError(w, r, err)
		return
	}
	view := s.uploadView()
	view.Saved = &templates.SavedImport{
		Created:    res.Created,
		Skipped:    res.Skipped,
		Duplicates: res.Duplicates,
	}
	render(w, r, http.StatusOK, templates.UploadPage(view))
}

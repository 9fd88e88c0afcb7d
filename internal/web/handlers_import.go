package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/checkin/internal/core"
	"github.com/JonMunkholm/checkin/internal/ingest"
	"github.com/JonMunkholm/checkin/internal/participant"
)

// multipartOverhead is the allowance for form fields and part headers on
// top of the file size limit.
const multipartOverhead = 1 << 20

type previewResponse struct {
	ImportID    string                    `json:"importId"`
	Source      string                    `json:"source"`
	Header      []string                  `json:"header"`
	Mapping     ingest.Mapping            `json:"mapping"`
	Unmapped    []string                  `json:"unmapped"`
	Records     []participant.Participant `json:"records"`
	Rows        int                       `json:"rows"`
	SkippedRows int                       `json:"skippedRows"`
}

func newPreviewResponse(p *core.Preview) previewResponse {
	resp := previewResponse{
		ImportID:    p.ImportID,
		Source:      p.Source,
		Header:      p.Header,
		Mapping:     p.Mapping,
		Unmapped:    p.Unmapped,
		Records:     p.Records,
		Rows:        p.Rows(),
		SkippedRows: p.SkippedRows,
	}
	if resp.Unmapped == nil {
		resp.Unmapped = []string{}
	}
	if resp.Records == nil {
		resp.Records = []participant.Participant{}
	}
	return resp
}

// uploadedFile returns the "file" part of a multipart request. The body is
// capped at the import size limit.
func (s *Server) uploadedFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.service.MaxFileSize()+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, core.ErrNoFile
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, fmt.Errorf("%w: %v", ingest.ErrFileTooLarge, err)
		}
		return nil, nil, err
	}
	return file, header, nil
}

// wantsSave reports whether the request asks to store the import right away.
func wantsSave(r *http.Request) bool {
	save, _ := strconv.ParseBool(r.FormValue("save"))
	return save
}

// handleImport previews an uploaded spreadsheet, or stores it when save=true.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.uploadedFile(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer file.Close()

	if wantsSave(r) {
		res, err := s.service.Import(r.Context(), header.Filename, file)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
		return
	}

	preview, err := s.service.PreviewImport(r.Context(), header.Filename, file)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPreviewResponse(preview))
}

// handleImportSheet previews the configured Google Sheet. The optional
// range parameter overrides the configured range.
func (s *Server) handleImportSheet(w http.ResponseWriter, r *http.Request) {
	preview, err := s.service.PreviewSheet(r.Context(), r.FormValue("range"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !wantsSave(r) {
		writeJSON(w, http.StatusOK, newPreviewResponse(preview))
		return
	}

	res, err := s.service.SavePending(r.Context(), preview.ImportID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleImportSave stores a previewed import.
func (s *Server) handleImportSave(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.SavePending(r.Context(), chi.URLParam(r, "importId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

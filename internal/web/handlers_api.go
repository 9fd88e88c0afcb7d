package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/JonMunkholm/checkin/internal/core"
	"github.com/JonMunkholm/checkin/internal/ingest"
	"github.com/JonMunkholm/checkin/internal/participant"
	"github.com/JonMunkholm/checkin/internal/repository"
)

// maxJSONBody bounds participant create and update bodies.
const maxJSONBody = 10 << 20

type healthResponse struct {
	Status  string                   `json:"status"`
	Error   string                   `json:"error,omitempty"`
	Imports core.ImportLimiterStatus `json:"imports"`
}

// handleHealth reports repository reachability and import slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Imports: s.service.Limiter().Status()}
	if err := s.service.Ping(ctx); err != nil {
		resp.Status = "unavailable"
		resp.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// queryFromRequest reads the q and status search parameters.
func queryFromRequest(r *http.Request) participant.Query {
	v := r.URL.Query()
	return participant.Query{
		Search: v.Get("q"),
		Status: participant.ParseStatus(v.Get("status")),
	}
}

// handleListParticipants returns every participant matching q and status.
func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.List(r.Context(), queryFromRequest(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if list == nil {
		list = []participant.Participant{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleCreateParticipants accepts a single participant object or an array.
// A single create answers 201 with the stored record; an array answers with
// the created records and the number skipped as already registered.
func (s *Server) handleCreateParticipants(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		respondError(w, r, err)
		return
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		respondError(w, r, core.ErrInvalidBody)
		return
	}

	if body[0] != '[' {
		p, err := decodeParticipant(body)
		if err != nil {
			respondError(w, r, err)
			return
		}
		created, err := s.service.Create(r.Context(), p)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
		return
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidBody, err))
		return
	}
	records := make([]participant.Participant, 0, len(raw))
	for _, item := range raw {
		p, err := decodeParticipant(item)
		if err != nil {
			respondError(w, r, err)
			return
		}
		records = append(records, p)
	}

	res, err := s.service.CreateMany(r.Context(), records)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// decodeParticipant decodes one record over the participant defaults, so
// omitted fields keep their default values. Unknown shirt sizes fall back to
// the default size.
func decodeParticipant(data []byte) (participant.Participant, error) {
	p := participant.New()
	if err := json.Unmarshal(data, &p); err != nil {
		return participant.Participant{}, fmt.Errorf("%w: %v", core.ErrInvalidBody, err)
	}
	if size, ok := participant.ParseShirtSize(string(p.Shirts)); ok {
		p.Shirts = size
	} else {
		p.Shirts = participant.DefaultShirt
	}
	p.ID = 0
	p.CreatedAt = time.Time{}
	return p, nil
}

// identityParams reads the identity triple from the query string. present
// counts how many of the three parameters were supplied; values may be empty.
func identityParams(v url.Values) (id participant.Identity, present int) {
	get := func(key string, dst *string) {
		if vals, ok := v[key]; ok {
			present++
			if len(vals) > 0 {
				*dst = vals[0]
			}
		}
	}
	get("registrantId", &id.RegistrantID)
	get("registrationType", &id.RegistrationType)
	get("firstName", &id.FirstName)
	return id, present
}

type countResponse struct {
	Count int64 `json:"count"`
}

// handleUpdateParticipants applies a partial update to the participants
// addressed by the registrantId, registrationType and firstName parameters.
func (s *Server) handleUpdateParticipants(w http.ResponseWriter, r *http.Request) {
	id, present := identityParams(r.URL.Query())
	if present != 3 {
		respondError(w, r, repository.ErrIncompleteIdentity)
		return
	}

	var patch participant.Patch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&patch); err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidBody, err))
		return
	}
	if patch.Shirts != nil {
		size, ok := participant.ParseShirtSize(string(*patch.Shirts))
		if !ok {
			size = participant.DefaultShirt
		}
		patch.Shirts = &size
	}

	n, err := s.service.Update(r.Context(), id, patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// handleDeleteParticipants deletes one identity when all three parameters
// are supplied, or every participant when none are.
func (s *Server) handleDeleteParticipants(w http.ResponseWriter, r *http.Request) {
	id, present := identityParams(r.URL.Query())

	var (
		n   int64
		err error
	)
	switch present {
	case 0:
		n, err = s.service.DeleteAll(r.Context())
	case 3:
		n, err = s.service.Delete(r.Context(), id)
	default:
		err = repository.ErrIncompleteIdentity
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// handleStats returns dashboard totals.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleExport downloads the participants matching q and status.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := core.ParseFormat(r.URL.Query().Get("format"), ingest.FormatCSV)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.service.Export(r.Context(), &buf, format, queryFromRequest(r)); err != nil {
		respondError(w, r, err)
		return
	}
	name := "participants-" + time.Now().Format("20060102-150405") + "." + string(format)
	writeFile(w, name, format, buf.Bytes())
}

// handleTemplate downloads the blank import template.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	format, err := core.ParseFormat(r.URL.Query().Get("format"), ingest.FormatXLSX)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.service.Template(&buf, format); err != nil {
		respondError(w, r, err)
		return
	}
	writeFile(w, "participants-template."+string(format), format, buf.Bytes())
}

var contentTypes = map[ingest.Format]string{
	ingest.FormatCSV:  "text/csv; charset=utf-8",
	ingest.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// writeFile sends data as an attachment named name.
func writeFile(w http.ResponseWriter, name string, format ingest.Format, data []byte) {
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error and calls respondError(w, r, err)
//  2. Error is mapped via core.MapError to a user message and code
//  3. The code selects the HTTP status
//  4. Technical error is logged with the request ID for correlation
//  5. User message is rendered as JSON, an HTMX fragment or a full page

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/checkin/internal/core"
	"github.com/JonMunkholm/checkin/internal/participant"
	"github.com/JonMunkholm/checkin/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string                        `json:"error"`
	Message string                        `json:"message"`
	Action  string                        `json:"action,omitempty"`
	Code    string                        `json:"code"`
	Fields  []participant.ValidationError `json:"fields,omitempty"`
}

// statusByCode maps user message codes to HTTP status codes.
var statusByCode = map[string]int{
	"DB001":   http.StatusConflict,
	"DB004":   http.StatusServiceUnavailable,
	"DB005":   http.StatusServiceUnavailable,
	"DB006":   http.StatusGatewayTimeout,
	"DB007":   http.StatusServiceUnavailable,
	"VAL001":  http.StatusUnprocessableEntity,
	"IMP001":  http.StatusBadRequest,
	"IMP002":  http.StatusBadRequest,
	"IMP003":  http.StatusServiceUnavailable,
	"IMP004":  http.StatusRequestTimeout,
	"IMP005":  http.StatusNotImplemented,
	"IMP006":  http.StatusNotFound,
	"FILE001": http.StatusRequestEntityTooLarge,
	"FILE002": http.StatusUnsupportedMediaType,
	"FILE003": http.StatusBadRequest,
	"FILE004": http.StatusBadRequest,
	"REQ001":  http.StatusBadRequest,
	"REQ002":  http.StatusBadRequest,
	"REQ003":  http.StatusBadRequest,
	"RATE001": http.StatusTooManyRequests,
}

// statusFor returns the HTTP status for a mapped error.
func statusFor(msg core.UserMessage) int {
	if status, ok := statusByCode[msg.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and returns an appropriate response
// based on the request type (HTMX, JSON, or HTML).
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := core.MapError(err)
	status := statusFor(userMsg)

	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request error", attrs...)
	} else {
		slog.Warn("request error", attrs...)
	}

	if userMsg.Code == "IMP003" {
		w.Header().Set("Retry-After", strconv.Itoa(int(core.DefaultImportWait.Seconds())))
	}

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, status)
	case wantsJSON(r):
		resp := ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		}
		var verrs participant.ValidationErrors
		if errors.As(err, &verrs) {
			resp.Fields = verrs
		}
		writeJSON(w, status, resp)
	default:
		respondErrorHTML(w, r, userMsg, status)
	}
}

// respondErrorHTML renders a full error page.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		slog.Error("render error page", "error", err)
	}
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		slog.Error("render error partial", "error", err)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}

	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}

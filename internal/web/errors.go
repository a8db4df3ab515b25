package web

// errors.go turns errors into responses. The technical error is logged
// with the request ID; the client gets the mapped core.UserMessage as an
// HTMX fragment, JSON, or plain text depending on the request.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/pdftables/internal/client"
	"github.com/JonMunkholm/pdftables/internal/core"
	"github.com/JonMunkholm/pdftables/internal/extract"
	"github.com/JonMunkholm/pdftables/internal/history"
	"github.com/JonMunkholm/pdftables/internal/logging"
	"github.com/JonMunkholm/pdftables/internal/session"
	"github.com/JonMunkholm/pdftables/internal/web/views"
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for an error from the service layer.
func statusFor(err error) int {
	var terr *client.TransportError
	switch {
	case errors.Is(err, core.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, core.ErrNoFile), errors.Is(err, core.ErrEmptyFile), errors.Is(err, core.ErrBadUploadForm):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrIndexOutOfRange), errors.Is(err, history.ErrDisabled):
		return http.StatusNotFound
	case errors.Is(err, extract.ErrColumnlessTable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, extract.ErrMalformedResponse), errors.As(err, &terr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the user-facing form of it.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(statusCode)
		views.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w)
	case wantsJSON(r):
		writeJSON(w, statusCode, ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
	default:
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", statusCode)
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client prefers JSON. API routes always do.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}

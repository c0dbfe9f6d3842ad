package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/modelcsv/internal/core"
	"github.com/JonMunkholm/modelcsv/internal/logging"
	"github.com/JonMunkholm/modelcsv/internal/web/templates"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Detail  string `json:"detail,omitempty"`
}

// respondError logs err with the request ID and answers with a user-friendly
// message in the format the client expects. The status comes from the
// error's support code.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg, ok := mapRequestError(err)
	if !ok {
		msg = core.MapError(err)
	}
	status := statusForCode(msg.Code)

	log := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "error", err, "code", msg.Code, "path", r.URL.Path)
	} else {
		log.Warn("request rejected", "error", err, "code", msg.Code, "path", r.URL.Path)
	}

	if msg.Code == "IMP001" {
		w.Header().Set("Retry-After", "30")
	}

	if wantsJSON(r) {
		respondErrorJSON(w, msg, status)
		return
	}
	respondErrorHTML(w, r, msg, status)
}

// statusForCode maps a support code to an HTTP status.
func statusForCode(code string) int {
	switch code {
	case "FILE001":
		return http.StatusRequestEntityTooLarge
	case "DOC001", "MDL003":
		return http.StatusNotFound
	case "IMP001":
		return http.StatusServiceUnavailable
	case "RATE001":
		return http.StatusTooManyRequests
	case "IMP003":
		return http.StatusRequestTimeout
	case "IMP002":
		// 499 is the de facto "client closed request" status.
		return 499
	}
	for _, prefix := range []string{"STR", "RES", "DQ", "MDL", "TBL", "FILE", "KEY", "REQ"} {
		if strings.HasPrefix(code, prefix) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Detail:  msg.Detail,
	})
}

func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	alert := templates.ErrorAlert(msg.Message, msg.Action, msg.Code, msg.Detail)
	if isHTMX(r) {
		_ = alert.Render(r.Context(), w)
		return
	}
	_ = templates.Page("Error", alert).Render(r.Context(), w)
}

// badRequest reports a malformed request that never reached the service.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	s.respondError(w, r, &requestError{message: message})
}

// requestError is a client mistake in the request itself, such as a
// missing parameter. Its message is safe to show.
type requestError struct {
	message string
}

func (e *requestError) Error() string { return e.message }

// mapRequestError gives request errors the REQ001 code.
func mapRequestError(err error) (core.UserMessage, bool) {
	var re *requestError
	if !errors.As(err, &re) {
		return core.UserMessage{}, false
	}
	return core.UserMessage{
		Message: re.message,
		Action:  "Check the request and try again.",
		Code:    "REQ001",
	}, true
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client expects JSON rather than a page.
// API routes answer JSON unless a browser asked for HTML.
func wantsJSON(r *http.Request) bool {
	if isHTMX(r) {
		return false
	}
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "text/html") {
		return false
	}
	return strings.HasPrefix(r.URL.Path, "/api/") || strings.Contains(accept, "application/json")
}

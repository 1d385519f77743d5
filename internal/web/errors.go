package web

// Errors are logged in full server-side and returned to the client as a
// mapped user message. HTMX callers get an HTML fragment; everyone else
// gets ErrorResponse JSON.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/slate/internal/core"
	"github.com/JonMunkholm/slate/internal/logging"
	"github.com/JonMunkholm/slate/internal/web/templates"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error    string   `json:"error"`
	Message  string   `json:"message"`
	Action   string   `json:"action,omitempty"`
	Code     string   `json:"code"`
	Problems []string `json:"problems,omitempty"`
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	if _, ok := core.AsValidationError(err); ok {
		return http.StatusBadRequest
	}
	if _, ok := core.AsPoolInsufficientError(err); ok {
		return http.StatusUnprocessableEntity
	}
	if _, ok := core.AsOptimizerError(err); ok {
		if errors.Is(err, core.ErrOptimizerUnavailable) {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	}

	switch {
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrUploadNotFound),
		errors.Is(err, core.ErrPlayerNotFound),
		errors.Is(err, core.ErrSettingsNotFound),
		errors.Is(err, core.ErrLineupNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnknownSport),
		errors.Is(err, core.ErrInvalidFileType),
		errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrUnreadableFile),
		errors.Is(err, errNoFile),
		errors.Is(err, errMultipleFiles),
		errors.Is(err, errBadRequestBody),
		errors.Is(err, errBadQuery):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNoMergeableRows):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped message with the status
// statusFor picks.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
			logger.Error("render error alert", "error", err)
		}
		return
	}

	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	if ve, ok := core.AsValidationError(err); ok {
		resp.Problems = ve.Problems
	}
	writeJSONStatus(w, status, resp)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

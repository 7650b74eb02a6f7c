package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/middleware"
)

// Fixed client-facing error bodies. Internal detail is logged, never returned.
const (
	internalErrorTitle   = "Internal server error"
	internalErrorMessage = "Application Crash"

	unauthorizedTitle   = "Unauthorized"
	unauthorizedMessage = "Authentication is required to access protected data"
)

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// internalErrorBody is pre-rendered so the 500 path cannot itself fail.
var internalErrorBody = []byte(`{"error":"` + internalErrorTitle + `","message":"` + internalErrorMessage + `"}`)

// writeJSON marshals v before touching the response, so a marshal failure
// still yields a clean 500.
func writeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		internalError(logger)(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// internalError logs err and writes the generic 500 body.
func internalError(logger *slog.Logger) middleware.ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(internalErrorBody)
	}
}

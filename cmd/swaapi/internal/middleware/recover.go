package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// ErrPanic wraps a value recovered from a panicking handler.
var ErrPanic = errors.New("handler panicked")

// Recoverer turns handler panics into an onError response instead of a
// dropped connection. http.ErrAbortHandler is re-raised so net/http can
// abort the response as intended.
func Recoverer(logger *slog.Logger, onError ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler { //nolint:errorlint // sentinel comparison as in net/http
					panic(rvr)
				}

				logger.ErrorContext(r.Context(), "panic recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", fmt.Sprint(rvr),
					"stack", string(debug.Stack()),
				)
				onError(w, r, fmt.Errorf("%w: %v", ErrPanic, rvr))
			}()

			next.ServeHTTP(w, r)
		})
	}
}

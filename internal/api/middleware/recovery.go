package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/tideline/tideline/internal/api/models"
)

// Recovery returns a middleware that recovers from panics and returns a 500
// with a generic message. The panic value and stack are logged only.
func Recovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}

					requestID := GetRequestID(r.Context())

					log.Error().
						Str("request_id", requestID).
						Str("path", r.URL.Path).
						Interface("error", err).
						Str("stack", string(debug.Stack())).
						Msg("panic recovered")

					models.NewError(models.MessageInternal).Write(w, http.StatusInternalServerError, requestID)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/tideline/tideline/internal/api/models"
)

// AllowMethods rejects requests whose method is not listed with 405 and an
// Allow header, before any routing takes place.
func AllowMethods(methods ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		allowed[m] = struct{}{}
	}
	allow := strings.Join(methods, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[r.Method]; !ok {
				w.Header().Set("Allow", allow)
				models.NewError(models.MessageMethodNotAllowed).Write(w, http.StatusMethodNotAllowed, GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package httpapi

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// BearerAuth guards the analysis routes with a shared token. A missing or
// wrong token gets a 401 with a Bearer challenge for the bambumate realm;
// rejections are logged at warn with the path, never the presented token.
func BearerAuth(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				logger.Warn("rejected unauthenticated request",
					"method", r.Method,
					"path", r.URL.Path,
					"has_header", ok,
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="bambumate"`)
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the credential from an Authorization header. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, cred, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	cred = strings.TrimSpace(cred)
	return cred, cred != ""
}

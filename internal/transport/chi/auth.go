package chi

import (
	"net/http"
	"strings"
)

// APIKeyHeader carries the key on package push and delete.
const APIKeyHeader = "X-NuGet-ApiKey"

// APIKeyMiddleware returns a middleware that validates the API key sent in
// X-NuGet-ApiKey or as a Bearer token. If apiKeys is empty, authentication is
// disabled (pass-through).
func APIKeyMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				auth := r.Header.Get("Authorization")
				if auth == "" {
					writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing api key")
					return
				}
				const bearerPrefix = "Bearer "
				if !strings.HasPrefix(auth, bearerPrefix) {
					writeError(w, http.StatusUnauthorized, CodeUnauthorized,
						"authorization header must use Bearer scheme")
					return
				}
				key = auth[len(bearerPrefix):]
			}

			if _, ok := validKeys[key]; !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

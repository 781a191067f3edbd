package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// HeaderAPIKey carries an API key for clients that cannot set Authorization.
const HeaderAPIKey = "X-API-Key"

// publicPaths are served without a key: health checks and scrapers carry none.
var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

var (
	errNoCredentials = errors.New("missing api key: use Authorization: Bearer <key> or " + HeaderAPIKey)
	errBadScheme     = errors.New("authorization header must use Bearer scheme")
	errUnknownKey    = errors.New("invalid api key")
)

// keyring holds digests of the configured keys so lookups compare fixed-size
// values in constant time.
type keyring [][sha256.Size]byte

func newKeyring(keys []string) keyring {
	var kr keyring
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			kr = append(kr, sha256.Sum256([]byte(k)))
		}
	}
	return kr
}

func (kr keyring) contains(key string) bool {
	sum := sha256.Sum256([]byte(key))
	found := 0
	for i := range kr {
		found |= subtle.ConstantTimeCompare(kr[i][:], sum[:])
	}
	return found == 1
}

// credential extracts the presented key. Authorization wins over X-API-Key.
func credential(r *http.Request) (string, error) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", errBadScheme
		}
		return strings.TrimSpace(token), nil
	}
	if key := r.Header.Get(HeaderAPIKey); key != "" {
		return key, nil
	}
	return "", errNoCredentials
}

// BearerAuthMiddleware rejects requests without a configured API key.
// With no keys configured every request passes.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	kr := newKeyring(apiKeys)

	return func(next http.Handler) http.Handler {
		if len(kr) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			key, err := credential(r)
			if err == nil && !kr.contains(key) {
				err = errUnknownKey
			}
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="catalogdex"`)
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

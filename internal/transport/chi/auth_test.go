package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuthMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		path    string
		headers map[string]string
		want    int
	}{
		{"no keys pass through", nil, "/partitions/p/datasets", nil, http.StatusOK},
		{"blank keys pass through", []string{"", "  "}, "/partitions/p/datasets", nil, http.StatusOK},
		{"missing key", []string{"secret"}, "/partitions/p/datasets", nil, http.StatusUnauthorized},
		{"basic scheme", []string{"secret"}, "/partitions/p/datasets",
			map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}, http.StatusUnauthorized},
		{"empty bearer", []string{"secret"}, "/partitions/p/datasets",
			map[string]string{"Authorization": "Bearer "}, http.StatusUnauthorized},
		{"wrong key", []string{"secret"}, "/partitions/p/datasets",
			map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"valid bearer", []string{"secret"}, "/partitions/p/datasets",
			map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
		{"lowercase scheme", []string{"secret"}, "/partitions/p/datasets/bulk",
			map[string]string{"Authorization": "bearer secret"}, http.StatusOK},
		{"second key", []string{"k1", "k2"}, "/partitions/p/counts",
			map[string]string{"Authorization": "Bearer k2"}, http.StatusOK},
		{"api key header", []string{"secret"}, "/partitions/p/catalogs/0.1",
			map[string]string{HeaderAPIKey: "secret"}, http.StatusOK},
		{"bad bearer beats good api key", []string{"secret"}, "/partitions/p/datasets",
			map[string]string{"Authorization": "Bearer nope", HeaderAPIKey: "secret"}, http.StatusUnauthorized},
		{"health is public", []string{"secret"}, "/health", nil, http.StatusOK},
		{"metrics is public", []string{"secret"}, "/metrics", nil, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := BearerAuthMiddleware(tc.keys)(okHandler())

			req := httptest.NewRequest(http.MethodGet, tc.path, http.NoBody)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
			if tc.want != http.StatusUnauthorized {
				return
			}
			if rr.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate challenge")
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != ErrorCodeUnauthorized {
				t.Errorf("code = %s, want %s", errResp.Code, ErrorCodeUnauthorized)
			}
		})
	}
}

func TestKeyring(t *testing.T) {
	kr := newKeyring([]string{" alpha ", "", "beta"})
	if len(kr) != 2 {
		t.Fatalf("keyring size = %d, want 2", len(kr))
	}
	for key, want := range map[string]bool{"alpha": true, "beta": true, "gamma": false, "": false} {
		if got := kr.contains(key); got != want {
			t.Errorf("contains(%q) = %v, want %v", key, got, want)
		}
	}
}

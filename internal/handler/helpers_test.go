package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/lunchuis/panel/internal/auth"
	"github.com/lunchuis/panel/internal/store"
)

const testSecret = "test-secret"

// doRequest performs an HTTP request against the handler under test and
// decodes the JSON response into out (when out is non-nil).
func doRequest(t *testing.T, h http.Handler, method, path, token string, body, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, "admin", "Admin", "ADMIN")
	if err != nil {
		t.Fatalf("generate admin token: %v", err)
	}
	return token
}

func userToken(t *testing.T, username string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, username, username, "USER")
	if err != nil {
		t.Fatalf("generate user token: %v", err)
	}
	return token
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "panel.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Package testutil holds fixtures and mock handlers shared by tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"authcallback/internal/domain"
)

// RecordFixture returns a record with two connections, matching the
// shapes exercised throughout the directory tests.
func RecordFixture() *domain.Record {
	return &domain.Record{
		Username: "alice",
		Connections: map[string]domain.ConnectionSpec{
			"a": {Protocol: "vnc", Parameters: map[string]string{"hostname": "h"}},
			"b": {Protocol: "rdp"},
		},
	}
}

// MockCallbackHandler returns an http.Handler that answers every request
// with the given record as JSON, the way a callback reporting success
// with data would.
func MockCallbackHandler(record *domain.Record) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(record); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// StatusCallbackHandler returns an http.Handler that answers every
// request with the given status and an empty body.
func StatusCallbackHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

// WriteDefaultRecord writes record to the default-record file inside dir
// and returns its path.
func WriteDefaultRecord(t *testing.T, dir string, record *domain.Record) string {
	t.Helper()
	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshaling record: %v", err)
	}
	path := filepath.Join(dir, "callback-default-response.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing default record: %v", err)
	}
	return path
}

// IssueCallbackToken creates an HMAC-signed JWT of the kind the example
// callback in cmd/mockcallback expects as its "token" parameter.
// A negative ttl produces an already-expired token.
func IssueCallbackToken(t *testing.T, secret []byte, username string, ttl time.Duration) string {
	t.Helper()

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
		"iss": "authcallback-test",
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

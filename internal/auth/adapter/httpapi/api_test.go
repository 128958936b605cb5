package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"authcallback/internal/auth"
	"authcallback/internal/auth/adapter/httpapi"
	"authcallback/internal/auth/adapter/inmem"
	"authcallback/internal/domain"
	"authcallback/internal/testutil"
)

type stubResolver struct {
	record *domain.Record
	params url.Values
}

func (s *stubResolver) Resolve(_ context.Context, creds domain.Credentials) *domain.Record {
	s.params = creds.Parameters
	return s.record
}

func newRouter(record *domain.Record) (*httpapi.Router, *stubResolver) {
	resolver := &stubResolver{record: record}
	provider := auth.NewProvider(resolver)
	sessions := inmem.NewSessionStore(time.Hour, time.Now)
	return httpapi.NewRouter(provider, sessions, nil), resolver
}

func createSession(t *testing.T, router http.Handler, form url.Values) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding session response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a session token")
	}
	return resp.Token
}

func TestCreateSession(t *testing.T) {
	router, resolver := newRouter(testutil.RecordFixture())

	token := createSession(t, router, url.Values{"user": {"alice"}, "tag": {"x", "y"}})
	if token == "" {
		t.Fatal("expected token")
	}

	// Every request parameter becomes part of the credentials.
	if got := resolver.params["user"]; !reflect.DeepEqual(got, []string{"alice"}) {
		t.Errorf("expected user param forwarded, got %v", got)
	}
	if got := resolver.params["tag"]; !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("expected multi-valued tag param forwarded in order, got %v", got)
	}
}

func TestCreateSessionQueryParameters(t *testing.T) {
	router, resolver := newRouter(testutil.RecordFixture())

	req := httptest.NewRequest(http.MethodPost, "/sessions?user=alice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if resolver.params.Get("user") != "alice" {
		t.Error("query-string parameters should reach the resolver")
	}
}

func TestCreateSessionFailure(t *testing.T) {
	router, _ := newRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var resp domain.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	// Failures surface as a generic message with no internal detail.
	if resp.Error != "unauthorized" || resp.Message != "authentication failed" {
		t.Errorf("unexpected error envelope: %+v", resp)
	}
}

func TestGetSelf(t *testing.T) {
	router, _ := newRouter(testutil.RecordFixture())
	token := createSession(t, router, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+token, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var self struct {
		Username              string   `json:"username"`
		UserPermissions       []string `json:"user_permissions"`
		ConnectionPermissions []string `json:"connection_permissions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &self); err != nil {
		t.Fatalf("decoding self: %v", err)
	}
	if self.Username != "alice" {
		t.Errorf("expected alice, got %q", self.Username)
	}
	if !reflect.DeepEqual(self.UserPermissions, []string{"alice"}) {
		t.Errorf("unexpected user permissions: %v", self.UserPermissions)
	}
	if !reflect.DeepEqual(self.ConnectionPermissions, []string{"a", "b"}) {
		t.Errorf("unexpected connection permissions: %v", self.ConnectionPermissions)
	}
}

func TestGetConnections(t *testing.T) {
	router, _ := newRouter(testutil.RecordFixture())
	token := createSession(t, router, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+token+"/connections", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var conns []struct {
		Identifier       string            `json:"identifier"`
		ParentIdentifier string            `json:"parent_identifier"`
		Protocol         string            `json:"protocol"`
		Parameters       map[string]string `json:"parameters"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &conns); err != nil {
		t.Fatalf("decoding connections: %v", err)
	}
	if len(conns) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(conns))
	}
	if conns[0].Identifier != "a" || conns[1].Identifier != "b" {
		t.Errorf("expected identifiers a,b in order, got %v", conns)
	}
	for _, c := range conns {
		if c.ParentIdentifier != "ROOT" {
			t.Errorf("connection %s should be parented to ROOT", c.Identifier)
		}
	}
	if conns[0].Protocol != "vnc" || conns[0].Parameters["hostname"] != "h" {
		t.Errorf("spec not carried verbatim: %+v", conns[0])
	}
}

func TestGetGroupsAndTree(t *testing.T) {
	router, _ := newRouter(testutil.RecordFixture())
	token := createSession(t, router, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+token+"/groups", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("groups: expected 200, got %d", rec.Code)
	}
	var groups []struct {
		Identifier            string   `json:"identifier"`
		ConnectionIdentifiers []string `json:"connection_identifiers"`
		GroupIdentifiers      []string `json:"group_identifiers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil {
		t.Fatalf("decoding groups: %v", err)
	}
	if len(groups) != 1 || groups[0].Identifier != "ROOT" {
		t.Fatalf("expected exactly the ROOT group, got %v", groups)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+token+"/tree", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("tree: expected 200, got %d", rec.Code)
	}
	var root struct {
		Identifier            string   `json:"identifier"`
		ConnectionIdentifiers []string `json:"connection_identifiers"`
		GroupIdentifiers      []string `json:"group_identifiers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &root); err != nil {
		t.Fatalf("decoding tree: %v", err)
	}
	if root.Identifier != "ROOT" {
		t.Errorf("expected ROOT, got %q", root.Identifier)
	}
	if !reflect.DeepEqual(root.ConnectionIdentifiers, []string{"a", "b"}) {
		t.Errorf("expected members {a,b}, got %v", root.ConnectionIdentifiers)
	}
	if len(root.GroupIdentifiers) != 0 {
		t.Errorf("root group should have no children, got %v", root.GroupIdentifiers)
	}
}

func TestUnknownSession(t *testing.T) {
	router, _ := newRouter(testutil.RecordFixture())

	for _, path := range []string{
		"/sessions/nope",
		"/sessions/nope/connections",
		"/sessions/nope/groups",
		"/sessions/nope/tree",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestDeleteSession(t *testing.T) {
	router, _ := newRouter(testutil.RecordFixture())
	token := createSession(t, router, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/"+token, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+token, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/"+token, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 deleting twice, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	router, _ := newRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

// Package httpapi exposes the provider over HTTP: session creation runs
// one credential resolution, and the remaining routes let the host query
// the session's authorization view. This is the only place the internal
// record/view model is translated into wire-facing shapes.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/google/uuid"

	"authcallback/internal/auth"
	"authcallback/internal/auth/view"
	"authcallback/internal/domain"
	"authcallback/internal/platform/telemetry"
)

// Router serves the session and directory routes of the auth daemon.
type Router struct {
	mux      *http.ServeMux
	provider *auth.Provider
	sessions auth.SessionStore
	metrics  *telemetry.AuthMetrics
}

// NewRouter creates the daemon's HTTP surface.
// The metrics parameter is optional; pass nil to skip metric recording.
func NewRouter(provider *auth.Provider, sessions auth.SessionStore, m *telemetry.AuthMetrics) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		provider: provider,
		sessions: sessions,
		metrics:  m,
	}

	r.mux.HandleFunc("GET /healthz", r.healthz)
	r.mux.HandleFunc("POST /sessions", r.createSession)
	r.mux.HandleFunc("GET /sessions/{token}", r.getSelf)
	r.mux.HandleFunc("DELETE /sessions/{token}", r.deleteSession)
	r.mux.HandleFunc("GET /sessions/{token}/connections", r.getConnections)
	r.mux.HandleFunc("GET /sessions/{token}/groups", r.getGroups)
	r.mux.HandleFunc("GET /sessions/{token}/tree", r.getTree)

	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

type sessionResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type userResponse struct {
	Username                   string   `json:"username"`
	UserPermissions            []string `json:"user_permissions"`
	ConnectionPermissions      []string `json:"connection_permissions"`
	ConnectionGroupPermissions []string `json:"connection_group_permissions"`
}

type connectionResponse struct {
	Identifier       string            `json:"identifier"`
	Name             string            `json:"name"`
	ParentIdentifier string            `json:"parent_identifier"`
	Protocol         string            `json:"protocol"`
	Parameters       map[string]string `json:"parameters"`
}

type groupResponse struct {
	Identifier            string   `json:"identifier"`
	Name                  string   `json:"name"`
	ConnectionIdentifiers []string `json:"connection_identifiers"`
	GroupIdentifiers      []string `json:"group_identifiers"`
}

// createSession resolves the request's parameters as credentials and, on
// success, opens a session owning the derived view. Every form and query
// parameter is part of the credentials; the daemon itself interprets none
// of them.
func (r *Router) createSession(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request parameters")
		return
	}

	v, err := r.provider.Authenticate(req.Context(), domain.Credentials{Parameters: req.Form})
	if err != nil {
		if !errors.Is(err, domain.ErrAuthenticationFailed) {
			slog.Error("authentication error", "error", err,
				"request_id", auth.RequestIDFromContext(req.Context()))
		}
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication failed")
		return
	}

	session := auth.Session{
		Token:    uuid.NewString(),
		Username: v.Username(),
		View:     v,
	}
	r.sessions.Put(session)

	if r.metrics != nil {
		r.metrics.RecordSession(req.Context(), "opened")
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		Token:    session.Token,
		Username: session.Username,
	})
}

func (r *Router) deleteSession(w http.ResponseWriter, req *http.Request) {
	token := req.PathValue("token")
	if _, ok := r.sessions.Get(token); !ok {
		writeError(w, http.StatusNotFound, "not_found", "no such session")
		return
	}
	r.sessions.Delete(token)

	if r.metrics != nil {
		r.metrics.RecordSession(req.Context(), "closed")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) getSelf(w http.ResponseWriter, req *http.Request) {
	v, ok := r.session(w, req)
	if !ok {
		return
	}
	self := v.Self()
	writeJSON(w, http.StatusOK, userResponse{
		Username:                   self.Identifier,
		UserPermissions:            self.UserPermissions,
		ConnectionPermissions:      self.ConnectionPermissions,
		ConnectionGroupPermissions: self.ConnectionGroupPermissions,
	})
}

func (r *Router) getConnections(w http.ResponseWriter, req *http.Request) {
	v, ok := r.session(w, req)
	if !ok {
		return
	}

	directory := v.ConnectionDirectory()
	connections := make([]connectionResponse, 0, len(directory))
	for _, c := range directory {
		connections = append(connections, connectionResponse{
			Identifier:       c.Identifier,
			Name:             c.Name,
			ParentIdentifier: c.ParentIdentifier,
			Protocol:         c.Protocol,
			Parameters:       c.Parameters,
		})
	}
	sort.Slice(connections, func(i, j int) bool {
		return connections[i].Identifier < connections[j].Identifier
	})
	writeJSON(w, http.StatusOK, connections)
}

func (r *Router) getGroups(w http.ResponseWriter, req *http.Request) {
	v, ok := r.session(w, req)
	if !ok {
		return
	}

	directory := v.ConnectionGroupDirectory()
	groups := make([]groupResponse, 0, len(directory))
	for _, g := range directory {
		groups = append(groups, toGroupResponse(g))
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Identifier < groups[j].Identifier
	})
	writeJSON(w, http.StatusOK, groups)
}

func (r *Router) getTree(w http.ResponseWriter, req *http.Request) {
	v, ok := r.session(w, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(v.RootGroup()))
}

func (r *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// session resolves the request's session token, writing a 404 on miss.
func (r *Router) session(w http.ResponseWriter, req *http.Request) (*view.View, bool) {
	s, ok := r.sessions.Get(req.PathValue("token"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no such session")
		return nil, false
	}
	return s.View, true
}

func toGroupResponse(g view.Group) groupResponse {
	return groupResponse{
		Identifier:            g.Identifier,
		Name:                  g.Name,
		ConnectionIdentifiers: g.ConnectionIdentifiers,
		GroupIdentifiers:      g.GroupIdentifiers,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(domain.ErrorResponse{
		Error:   code,
		Message: msg,
	}); err != nil {
		slog.Error("encoding error response", "error", err)
	}
}

package auth

import (
	"context"
	"net/http"
	"net/url"

	"authcallback/internal/auth/view"
	"authcallback/internal/domain"
)

// CallbackClient performs the outbound round-trip to the configured
// authorization callback.
type CallbackClient interface {
	// Fetch invokes the callback with the given request parameters and
	// returns the record it produced. It returns
	// domain.ErrCallbackRejected for 4xx/5xx responses,
	// domain.ErrBadCallbackResponse for undecodable success responses,
	// and a wrapped transport error when the callback is unreachable.
	Fetch(ctx context.Context, params url.Values) (*domain.Record, error)
}

// DefaultRecordSource supplies the statically configured fallback record.
// Load never fails; it returns nil when no default is available.
type DefaultRecordSource interface {
	Load() *domain.Record
}

// RecordResolver turns credentials into a record. A nil result means the
// authentication attempt failed.
type RecordResolver interface {
	Resolve(ctx context.Context, creds domain.Credentials) *domain.Record
}

// Session ties an authenticated subject to the view derived from their
// record. The view (and the record behind it) lives exactly as long as
// the session.
type Session struct {
	Token    string
	Username string
	View     *view.View
}

// SessionStore holds active sessions keyed by token.
type SessionStore interface {
	Put(s Session)
	Get(token string) (Session, bool)
	Delete(token string)
}

// RateLimiter decides whether a request identified by key should be allowed.
type RateLimiter interface {
	Allow(key string) RateLimitResult
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	RetryAfter int // seconds until next token available; 0 if allowed
}

// StatusWriter wraps http.ResponseWriter to capture the status code.
type StatusWriter struct {
	http.ResponseWriter
	Code int
}

func (sw *StatusWriter) WriteHeader(code int) {
	sw.Code = code
	sw.ResponseWriter.WriteHeader(code)
}

// RequestIDFromContext extracts the request ID from the context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextWithRequestID stores the request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

type requestIDKey struct{}

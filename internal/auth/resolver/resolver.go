// Package resolver implements the three-tier credential resolution
// policy: mock mode, live callback invocation, and fallback to the
// statically configured default record.
package resolver

import (
	"context"
	"errors"
	"log/slog"

	"authcallback/internal/auth"
	"authcallback/internal/domain"
	"authcallback/internal/platform/telemetry"
)

// Resolver orchestrates one credential resolution per call. It holds no
// per-request state and is safe for concurrent use.
type Resolver struct {
	useMock  bool
	callback auth.CallbackClient
	defaults auth.DefaultRecordSource
	metrics  *telemetry.AuthMetrics
}

// New creates a resolver. When useMock is true the callback is never
// invoked and every resolution yields the default record source's result.
// The metrics parameter is optional; pass nil to skip metric recording.
func New(useMock bool, callback auth.CallbackClient, defaults auth.DefaultRecordSource, m *telemetry.AuthMetrics) *Resolver {
	return &Resolver{
		useMock:  useMock,
		callback: callback,
		defaults: defaults,
		metrics:  m,
	}
}

// Resolve produces the record for one authentication attempt, or nil
// when the attempt must be treated as failed:
//
//   - mock mode: the default record, whatever it is.
//   - callback success with a record body: that record.
//   - callback 4xx/5xx: nil. An explicit error response means "this
//     subject is unauthorized", so the default record is NOT consulted.
//   - anything else (unreachable callback, empty or undecodable success
//     body): the default record, or nil if none is configured.
func (r *Resolver) Resolve(ctx context.Context, creds domain.Credentials) *domain.Record {
	if r.useMock {
		record := r.defaults.Load()
		r.record(ctx, record, "mock")
		return record
	}

	record, err := r.callback.Fetch(ctx, creds.Parameters)
	switch {
	case err == nil:
		r.record(ctx, record, "callback")
		return record

	case errors.Is(err, domain.ErrCallbackRejected):
		slog.Debug("callback rejected authentication attempt")
		r.record(ctx, nil, "callback")
		return nil

	default:
		slog.Debug("callback returned no usable record, falling back to default", "error", err)
		record := r.defaults.Load()
		r.record(ctx, record, "default")
		return record
	}
}

func (r *Resolver) record(ctx context.Context, rec *domain.Record, source string) {
	if r.metrics == nil {
		return
	}
	outcome := "none"
	if rec != nil {
		outcome = "record"
	}
	r.metrics.RecordResolution(ctx, outcome, source)
}

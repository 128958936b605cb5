package resolver_test

import (
	"context"
	"errors"
	"net/url"
	"reflect"
	"testing"

	"authcallback/internal/auth/resolver"
	"authcallback/internal/domain"
)

type fakeCallback struct {
	record *domain.Record
	err    error
	calls  int
	params url.Values
}

func (f *fakeCallback) Fetch(_ context.Context, params url.Values) (*domain.Record, error) {
	f.calls++
	f.params = params
	return f.record, f.err
}

type fakeDefaults struct {
	record *domain.Record
	calls  int
}

func (f *fakeDefaults) Load() *domain.Record {
	f.calls++
	return f.record
}

func TestMockModeSkipsCallback(t *testing.T) {
	cb := &fakeCallback{record: &domain.Record{Username: "from-callback"}}
	def := &fakeDefaults{record: &domain.Record{Username: "from-default"}}
	r := resolver.New(true, cb, def, nil)

	got := r.Resolve(context.Background(), domain.Credentials{})

	if cb.calls != 0 {
		t.Errorf("callback must never be invoked in mock mode, got %d calls", cb.calls)
	}
	if !reflect.DeepEqual(got, def.record) {
		t.Errorf("expected the default record, got %+v", got)
	}
}

func TestMockModeWithoutDefault(t *testing.T) {
	cb := &fakeCallback{record: &domain.Record{Username: "from-callback"}}
	r := resolver.New(true, cb, &fakeDefaults{}, nil)

	if got := r.Resolve(context.Background(), domain.Credentials{}); got != nil {
		t.Errorf("expected nil when mock mode has no default, got %+v", got)
	}
	if cb.calls != 0 {
		t.Error("callback must never be invoked in mock mode")
	}
}

func TestLiveSuccess(t *testing.T) {
	want := &domain.Record{Username: "alice"}
	def := &fakeDefaults{record: &domain.Record{Username: "from-default"}}
	r := resolver.New(false, &fakeCallback{record: want}, def, nil)

	got := r.Resolve(context.Background(), domain.Credentials{})
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected the callback's record, got %+v", got)
	}
	if def.calls != 0 {
		t.Error("default record must not be consulted on callback success")
	}
}

func TestLiveRejectionDoesNotFallBack(t *testing.T) {
	def := &fakeDefaults{record: &domain.Record{Username: "from-default"}}
	r := resolver.New(false, &fakeCallback{err: domain.ErrCallbackRejected}, def, nil)

	if got := r.Resolve(context.Background(), domain.Credentials{}); got != nil {
		t.Errorf("rejection must yield no record regardless of default availability, got %+v", got)
	}
	if def.calls != 0 {
		t.Error("default record must not be consulted on rejection")
	}
}

func TestLiveTransportErrorFallsBack(t *testing.T) {
	def := &fakeDefaults{record: &domain.Record{Username: "from-default"}}
	r := resolver.New(false, &fakeCallback{err: errors.New("connection refused")}, def, nil)

	got := r.Resolve(context.Background(), domain.Credentials{})
	if !reflect.DeepEqual(got, def.record) {
		t.Errorf("expected the default record, got %+v", got)
	}
}

func TestLiveBadResponseFallsBack(t *testing.T) {
	def := &fakeDefaults{record: &domain.Record{Username: "from-default"}}
	r := resolver.New(false, &fakeCallback{err: domain.ErrBadCallbackResponse}, def, nil)

	got := r.Resolve(context.Background(), domain.Credentials{})
	if !reflect.DeepEqual(got, def.record) {
		t.Errorf("expected the default record, got %+v", got)
	}
}

func TestLiveFailureWithoutDefault(t *testing.T) {
	r := resolver.New(false, &fakeCallback{err: errors.New("connection refused")}, &fakeDefaults{}, nil)

	if got := r.Resolve(context.Background(), domain.Credentials{}); got != nil {
		t.Errorf("expected nil when fallback has no default, got %+v", got)
	}
}

func TestCredentialParametersForwarded(t *testing.T) {
	cb := &fakeCallback{record: &domain.Record{Username: "alice"}}
	r := resolver.New(false, cb, &fakeDefaults{}, nil)

	params := url.Values{"user": {"alice"}, "tag": {"x", "y"}}
	r.Resolve(context.Background(), domain.Credentials{Parameters: params})

	if !reflect.DeepEqual(cb.params, params) {
		t.Errorf("expected parameters forwarded verbatim, got %v", cb.params)
	}
}

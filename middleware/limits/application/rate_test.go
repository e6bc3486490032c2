package application

import (
	"testing"
	"time"

	"limits-gateway/middleware/limits/domain"
)

type fakeLimiter struct {
	allow bool
}

func (f fakeLimiter) Allow() bool { return f.allow }

type fakeStore struct {
	lim domain.Limiter
}

func (s fakeStore) Get(domain.Key) domain.Limiter { return s.lim }

func TestRateService_Decide_AllowsWhenNoStore(t *testing.T) {
	svc := RateService{}
	dec := svc.Decide("k")
	if !dec.Allowed() {
		t.Fatalf("expected allowed")
	}
	if dec.RetryAfter != 0 {
		t.Fatalf("expected RetryAfter=0 when allowed, got %s", dec.RetryAfter)
	}
}

func TestRateService_Decide_AllowsWhenStoreHasNoLimiter(t *testing.T) {
	svc := RateService{Store: fakeStore{}}
	if dec := svc.Decide("k"); !dec.Allowed() {
		t.Fatalf("expected allowed when store returns nil limiter")
	}
}

func TestRateService_Decide_BlocksWithDefaultRetryAfter(t *testing.T) {
	svc := RateService{Store: fakeStore{lim: fakeLimiter{allow: false}}}
	dec := svc.Decide("k")
	if dec.Allowed() {
		t.Fatalf("expected blocked")
	}
	if dec.Status != domain.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", dec.Status)
	}
	if dec.Guard != domain.GuardRequestRate || dec.Key != "k" {
		t.Fatalf("expected guard/key on decision, got %q/%q", dec.Guard, dec.Key)
	}
	if dec.RetryAfter != time.Second {
		t.Fatalf("expected default RetryAfter=1s, got %s", dec.RetryAfter)
	}
}

func TestRateService_Decide_RetryAfterIsReadOnEveryDecision(t *testing.T) {
	retry := 2500 * time.Millisecond
	svc := RateService{
		Store:      fakeStore{lim: fakeLimiter{allow: false}},
		RetryAfter: func() time.Duration { return retry },
	}

	if dec := svc.Decide("k"); dec.RetryAfter != 2500*time.Millisecond {
		t.Fatalf("expected RetryAfter=2.5s, got %s", dec.RetryAfter)
	}

	retry = 4 * time.Second
	if dec := svc.Decide("k"); dec.RetryAfter != 4*time.Second {
		t.Fatalf("expected RetryAfter=4s after change, got %s", dec.RetryAfter)
	}
}

func TestClientKey(t *testing.T) {
	if got := domain.ClientKey("  10.0.0.1 "); got != "10.0.0.1" {
		t.Fatalf("expected trimmed key, got %q", got)
	}
	if got := domain.ClientKey(" "); got != domain.UnknownClient {
		t.Fatalf("expected unknown client, got %q", got)
	}
}

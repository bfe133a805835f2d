package ratelimit

import (
	"context"
	"testing"
)

func TestMemoryLimiter(t *testing.T) {
	cfg := Config{Enabled: true, PerMinute: 3}
	l := New(cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !l.Allow(ctx, "tourist-1") {
			t.Fatalf("request %d under the limit was rejected", i)
		}
	}
	if l.Allow(ctx, "tourist-1") {
		t.Fatalf("request over the limit was allowed")
	}

	// Other keys have their own window.
	if !l.Allow(ctx, "tourist-2") {
		t.Fatalf("independent key was rejected")
	}
}

func TestMemoryLimiterEvictsStaleWindows(t *testing.T) {
	l := &memoryLimiter{limit: 3, windows: map[string]*window{
		"gone-tourist": {count: 2, started: 0},
	}}

	if !l.Allow(context.Background(), "tourist-1") {
		t.Fatalf("fresh key was rejected")
	}
	if _, ok := l.windows["gone-tourist"]; ok {
		t.Fatalf("window from a past minute was kept")
	}
	if _, ok := l.windows["tourist-1"]; !ok {
		t.Fatalf("current window missing")
	}
}

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	l := New(Config{Enabled: false, PerMinute: 1})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if !l.Allow(ctx, "anyone") {
			t.Fatalf("disabled limiter rejected a request")
		}
	}
}

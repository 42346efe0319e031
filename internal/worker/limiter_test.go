package worker

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}

	l3 := NewLimiter(0, 1)
	if l3.defaultRate != rate.Inf {
		t.Errorf("expected unlimited rate for 0 rps, got %v", l3.defaultRate)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://en.wikipedia.org/w/api.php"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	if err := limiter.Wait(ctx, "https://de.wikipedia.org/w/api.php"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitInvalidURL(t *testing.T) {
	limiter := NewLimiter(100, 1)
	if err := limiter.Wait(context.Background(), "://bad"); err == nil {
		t.Error("expected error for invalid URL")
	}
	if limiter.Allow("://bad") {
		t.Error("expected Allow to reject invalid URL")
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	start := time.Now()
	if err := limiter.WaitWithDelay(ctx, "https://en.wikipedia.org", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}

	if d := time.Since(start); d < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", d)
	}
}

func TestLimiter_WaitWithDelay_Cancelled(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := limiter.WaitWithDelay(ctx, "https://en.wikipedia.org", time.Second)
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestLimiter_PerHost(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	url := "https://en.wikipedia.org/w/api.php?titles=A"

	if err := limiter.Wait(ctx, url); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Same host, different query: token already consumed
	if limiter.Allow("https://en.wikipedia.org/w/api.php?titles=B") {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	if !limiter.Allow("https://fr.wikipedia.org/w/api.php") {
		t.Errorf("expected allow for other host")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(100, 10)
	limiter.SetHostRate("slow.example", 0.5, 1)

	url := "http://slow.example/w/api.php"
	if !limiter.Allow(url) {
		t.Fatal("expected first request allowed")
	}
	if limiter.Allow(url) {
		t.Error("expected custom host rate to apply")
	}
}

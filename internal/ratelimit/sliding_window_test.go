package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestNewSlidingWindow_CoercesDefaults(t *testing.T) {
	sw := NewSlidingWindow(0, 0)
	if sw.max != DefaultMaxRequests {
		t.Fatalf("max = %d; want %d", sw.max, DefaultMaxRequests)
	}
	if sw.span != DefaultWindow {
		t.Fatalf("span = %v; want %v", sw.span, DefaultWindow)
	}
}

func TestCheck_AllowsUpToCapThenDenies(t *testing.T) {
	sw := NewSlidingWindow(5, time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		d := sw.Check("client", now.Add(time.Duration(i)*time.Second))
		if !d.Allowed {
			t.Fatalf("request %d denied", i+1)
		}
	}

	d := sw.Check("client", now.Add(5*time.Second))
	if d.Allowed {
		t.Fatalf("6th request allowed")
	}
	// Oldest accepted stamp is at t+0s; it leaves the window at t+60s, which
	// is 55s after this check.
	if d.RetryAfter != 55*time.Second {
		t.Fatalf("RetryAfter = %v; want 55s", d.RetryAfter)
	}
}

func TestCheck_WindowSlides(t *testing.T) {
	sw := NewSlidingWindow(2, time.Minute)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if !sw.Check("k", base).Allowed {
		t.Fatalf("1st denied")
	}
	if !sw.Check("k", base.Add(30*time.Second)).Allowed {
		t.Fatalf("2nd denied")
	}
	if sw.Check("k", base.Add(45*time.Second)).Allowed {
		t.Fatalf("3rd allowed inside full window")
	}
	// 61s after the first request it has expired, freeing one slot.
	if !sw.Check("k", base.Add(61*time.Second)).Allowed {
		t.Fatalf("request after expiry denied")
	}
}

func TestCheck_BoundaryStampStillCounts(t *testing.T) {
	// A stamp exactly window-old sits on the cutoff and is retained.
	sw := NewSlidingWindow(1, time.Minute)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if !sw.Check("k", base).Allowed {
		t.Fatalf("1st denied")
	}
	if sw.Check("k", base.Add(time.Minute)).Allowed {
		t.Fatalf("boundary request allowed; stamp at cutoff should still count")
	}
	if !sw.Check("k", base.Add(time.Minute+time.Nanosecond)).Allowed {
		t.Fatalf("request just past the window denied")
	}
}

func TestCheck_KeysAreIndependent(t *testing.T) {
	sw := NewSlidingWindow(1, time.Minute)
	now := time.Now()

	if !sw.Check("a", now).Allowed {
		t.Fatalf("key a denied")
	}
	if sw.Check("a", now).Allowed {
		t.Fatalf("key a second request allowed")
	}
	if !sw.Check("b", now).Allowed {
		t.Fatalf("key b affected by key a")
	}
}

func TestCheck_EvictsIdleKeys(t *testing.T) {
	sw := NewSlidingWindow(5, time.Minute)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	sw.Check("idle", base)

	// Drive past the cleanup threshold long after the idle key expired.
	later := base.Add(time.Hour)
	for i := 0; i < 4096; i++ {
		sw.Check(fmt.Sprintf("k%d", i%64), later)
	}

	sw.mu.Lock()
	_, exists := sw.wins["idle"]
	sw.mu.Unlock()
	if exists {
		t.Fatalf("idle key not evicted")
	}
}

func TestCheck_ConcurrentAccess(t *testing.T) {
	sw := NewSlidingWindow(1000, time.Minute)
	now := time.Now()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				sw.Check(fmt.Sprintf("g%d", g), now)
			}
		}(g)
	}
	wg.Wait()

	for g := 0; g < 8; g++ {
		sw.mu.Lock()
		n := len(sw.wins[fmt.Sprintf("g%d", g)].stamps)
		sw.mu.Unlock()
		if n != 100 {
			t.Fatalf("key g%d recorded %d stamps; want 100", g, n)
		}
	}
}

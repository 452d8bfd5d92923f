package callctx

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTakeConsumes(t *testing.T) {
	s := NewWithClock(time.Now)

	s.Put("CA123", "Server CPU at 95%", time.Minute)

	ctx, ok := s.Take("CA123")
	if !ok || ctx != "Server CPU at 95%" {
		t.Fatalf("first take = %q, %v", ctx, ok)
	}

	if _, ok := s.Take("CA123"); ok {
		t.Fatal("second take should observe absence")
	}
}

func TestTakeMissing(t *testing.T) {
	s := NewWithClock(time.Now)
	if _, ok := s.Take("nope"); ok {
		t.Fatal("take of unknown key should be absent")
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	s := NewWithClock(time.Now)
	s.Put("CA1", "reason", time.Minute)

	if ctx, ok := s.Peek("CA1"); !ok || ctx != "reason" {
		t.Fatalf("peek = %q, %v", ctx, ok)
	}
	if ctx, ok := s.Take("CA1"); !ok || ctx != "reason" {
		t.Fatalf("take after peek = %q, %v", ctx, ok)
	}
	if _, ok := s.Peek("CA1"); ok {
		t.Fatal("peek after take should be absent")
	}
}

func TestConcurrentTakeExactlyOnce(t *testing.T) {
	s := NewWithClock(time.Now)
	s.Put("CA9", "ctx", time.Minute)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.Take("CA9"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
}

func TestExpiryBeforeReap(t *testing.T) {
	now := time.Now()
	current := now
	s := NewWithClock(func() time.Time { return current })

	s.Put("CA2", "stale", time.Minute)

	current = now.Add(2 * time.Minute)
	if _, ok := s.Take("CA2"); ok {
		t.Fatal("expired entry should be unreachable via take")
	}
}

func TestReapDropsExpired(t *testing.T) {
	now := time.Now()
	current := now
	s := NewWithClock(func() time.Time { return current })

	s.Put("live", "a", 10*time.Minute)
	s.Put("dead", "b", time.Minute)

	current = now.Add(5 * time.Minute)
	if dropped := s.Reap(); dropped != 1 {
		t.Fatalf("expected 1 reaped, got %d", dropped)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", s.Len())
	}
	if _, ok := s.Take("live"); !ok {
		t.Fatal("unexpired entry should survive reap")
	}
}

func TestConsumedRetainedUntilReap(t *testing.T) {
	now := time.Now()
	current := now
	s := NewWithClock(func() time.Time { return current })

	s.Put("CA3", "ctx", time.Minute)
	s.Take("CA3")

	// Still physically retained for diagnostics.
	if s.Len() != 1 {
		t.Fatalf("consumed entry should be retained, len=%d", s.Len())
	}

	current = now.Add(2 * time.Minute)
	s.Reap()
	if s.Len() != 0 {
		t.Fatalf("reap should drop consumed expired entry, len=%d", s.Len())
	}
}

func TestPutOverwrites(t *testing.T) {
	s := NewWithClock(time.Now)
	s.Put("CA4", "old", time.Minute)
	s.Take("CA4")

	s.Put("CA4", "new", time.Minute)
	if ctx, ok := s.Take("CA4"); !ok || ctx != "new" {
		t.Fatalf("take after re-put = %q, %v", ctx, ok)
	}
}

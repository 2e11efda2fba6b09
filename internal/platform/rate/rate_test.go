// internal/platform/rate/rate_test.go
package rate

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	l := New(0, 0)
	if l.Rate() != 1 {
		t.Errorf("expected rate 1, got %f", l.Rate())
	}
	if l.Burst() != 1 {
		t.Errorf("expected burst 1, got %d", l.Burst())
	}
}

func TestNewAnalystLimiter(t *testing.T) {
	l := NewAnalystLimiter()
	if l.Burst() != DefaultBurst {
		t.Errorf("expected burst %d, got %d", DefaultBurst, l.Burst())
	}
	want := DefaultRefillPerMin / 60.0
	if l.Rate() != want {
		t.Errorf("expected rate %f, got %f", want, l.Rate())
	}
}

func TestAllowWithinBurst(t *testing.T) {
	l := New(1, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Errorf("request %d should be allowed within burst", i)
		}
	}
	if l.Allow() {
		t.Error("request beyond burst should be denied")
	}
}

func TestAcquireConsumesToken(t *testing.T) {
	l := New(1, 2)

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := l.Tokens(); got >= 2 {
		t.Errorf("token not consumed: %f", got)
	}
}

func TestAcquireEmptyBucketBlocks(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}

	// Con el bucket vacío y refill 15/60, un Acquire debe bloquear al
	// menos 1/(15/60) = 4 segundos antes de retornar.
	l := NewAnalystLimiter()
	l.Drain()

	start := time.Now()
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 4*time.Second {
		t.Errorf("expected to block at least 4s on empty bucket, returned after %v", elapsed)
	}
}

func TestAcquireContextCancellation(t *testing.T) {
	l := New(0.1, 1)
	l.Drain()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.Acquire(ctx)
	if err == nil {
		t.Error("expected context error on canceled acquire")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("cancellation should unblock promptly")
	}
}

func TestRefillOverTime(t *testing.T) {
	l := New(100, 2) // 100 tokens/s para no alargar el test
	l.Drain()

	time.Sleep(50 * time.Millisecond)
	if !l.Allow() {
		t.Error("bucket should have refilled at least one token")
	}
}

func TestRefillCappedAtBurst(t *testing.T) {
	l := New(1000, 2)
	time.Sleep(20 * time.Millisecond)

	if got := l.Tokens(); got > 2 {
		t.Errorf("tokens exceed burst: %f", got)
	}
}

func TestConcurrentAcquire(t *testing.T) {
	l := New(100, 10)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- l.Acquire(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("unexpected error under concurrency: %v", err)
		}
	}
}

func TestWaitPolls(t *testing.T) {
	l := New(50, 1)
	l.Drain()

	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

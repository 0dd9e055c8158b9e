package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/peter2500zz/mod-auto-download/pkg/errors"
)

func TestForEachRunsAllItems(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	var sum atomic.Int64

	domain, fatal := ForEach(context.Background(), 3, items, func(_ context.Context, n int) error {
		sum.Add(int64(n))
		return nil
	})
	if fatal != nil {
		t.Fatalf("fatal = %v", fatal)
	}
	if len(domain) != 0 {
		t.Errorf("domain = %v", domain)
	}
	if sum.Load() != 15 {
		t.Errorf("sum = %d, want 15", sum.Load())
	}
}

func TestForEachCollectsDomainErrors(t *testing.T) {
	items := []string{"a", "b", "c"}
	domain, fatal := ForEach(context.Background(), 2, items, func(_ context.Context, s string) error {
		if s == "b" {
			return nil
		}
		return errors.NewRef(errors.ErrCodeModNotFound, s, "mod %s was not found", s)
	})
	if fatal != nil {
		t.Fatalf("fatal = %v", fatal)
	}
	if len(domain) != 2 {
		t.Errorf("collected %d errors, want 2: %v", len(domain), domain)
	}
}

func TestForEachFatalCancelsSiblings(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	var ran atomic.Int32
	domain, fatal := ForEach(context.Background(), 2, items, func(ctx context.Context, n int) error {
		ran.Add(1)
		if n == 0 {
			return errors.New(errors.ErrCodeNetwork, "upstream down")
		}
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Millisecond):
		}
		return nil
	})

	if !errors.Is(fatal, errors.ErrCodeNetwork) {
		t.Fatalf("fatal = %v, want NETWORK_ERROR", fatal)
	}
	if len(domain) != 0 {
		t.Errorf("domain = %v, want none", domain)
	}
	if got := ran.Load(); got == int32(len(items)) {
		t.Error("expected cancellation to stop remaining jobs")
	}
}

func TestForEachBoundsConcurrency(t *testing.T) {
	const workers = 3
	var (
		mu       sync.Mutex
		inFlight int
		peak     int
	)

	_, fatal := ForEach(context.Background(), workers, make([]struct{}, 20), func(context.Context, struct{}) error {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return nil
	})
	if fatal != nil {
		t.Fatalf("fatal = %v", fatal)
	}
	if peak > workers {
		t.Errorf("peak concurrency %d exceeds %d workers", peak, workers)
	}
}

func TestForEachParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int32
	_, fatal := ForEach(ctx, 2, []int{1, 2, 3}, func(context.Context, int) error {
		ran.Add(1)
		return nil
	})
	if fatal != context.Canceled {
		t.Errorf("fatal = %v, want context.Canceled", fatal)
	}
	if ran.Load() != 0 {
		t.Errorf("ran %d jobs after cancellation", ran.Load())
	}
}

func TestForEachEmptyItems(t *testing.T) {
	domain, fatal := ForEach(context.Background(), 4, []int(nil), func(context.Context, int) error {
		t.Error("fn should not run")
		return nil
	})
	if fatal != nil || len(domain) != 0 {
		t.Errorf("got %v, %v", domain, fatal)
	}
}

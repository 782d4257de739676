package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newWindow(t *testing.T) (SlidingWindow, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return SlidingWindow{Client: client, Prefix: "rl:"}, mr
}

func TestSlidingWindowTake(t *testing.T) {
	window, mr := newWindow(t)
	ctx := context.Background()
	period := 2 * time.Second

	d, err := window.Take(ctx, "client-a", period, 2)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if !d.Allowed || d.Remaining != 1 {
		t.Fatalf("first take: allowed=%v remaining=%d", d.Allowed, d.Remaining)
	}

	if d, _ = window.Take(ctx, "client-a", period, 2); !d.Allowed {
		t.Fatal("second take should fit the limit")
	}
	if d, _ = window.Take(ctx, "client-a", period, 2); d.Allowed {
		t.Fatal("third take should be rejected")
	}
	if d.Remaining != 0 {
		t.Fatalf("remaining after rejection: %d", d.Remaining)
	}

	// Other clients have their own budget.
	if d, _ = window.Take(ctx, "client-b", period, 2); !d.Allowed {
		t.Fatal("separate key should not share the window")
	}

	mr.FastForward(period)
	if d, _ = window.Take(ctx, "client-a", period, 2); !d.Allowed {
		t.Fatal("window should have slid past the old events")
	}
}

func TestSlidingWindowDisabled(t *testing.T) {
	window, _ := newWindow(t)
	d, err := window.Take(context.Background(), "anyone", time.Second, 0)
	if err != nil {
		t.Fatalf("take with zero limit: %v", err)
	}
	if !d.Allowed {
		t.Fatal("zero limit should disable enforcement")
	}
}

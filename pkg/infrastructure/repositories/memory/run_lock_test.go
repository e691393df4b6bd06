package memory

import (
	"context"
	"testing"
	"time"
)

func TestRunLock_ExclusivePerScope(t *testing.T) {
	ctx := context.Background()
	lock := NewRunLock()

	ok, _ := lock.Acquire(ctx, "PLANT", "run-1", time.Minute)
	if !ok {
		t.Fatal("Expected first acquire to succeed")
	}
	if ok, _ := lock.Acquire(ctx, "PLANT", "run-2", time.Minute); ok {
		t.Error("Expected second run to be rejected")
	}
	if ok, _ := lock.Acquire(ctx, "OTHER", "run-2", time.Minute); !ok {
		t.Error("Expected other scope to be free")
	}

	_ = lock.Release(ctx, "PLANT", "run-2")
	if ok, _ := lock.Acquire(ctx, "PLANT", "run-3", time.Minute); ok {
		t.Error("Release by a non-holder must not free the scope")
	}

	_ = lock.Release(ctx, "PLANT", "run-1")
	if ok, _ := lock.Acquire(ctx, "PLANT", "run-3", time.Minute); !ok {
		t.Error("Expected scope to be free after release")
	}
}

func TestRunLock_Expiry(t *testing.T) {
	ctx := context.Background()
	lock := NewRunLock()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	lock.now = func() time.Time { return now }

	_, _ = lock.Acquire(ctx, "PLANT", "run-1", time.Minute)
	now = now.Add(2 * time.Minute)

	if ok, _ := lock.Acquire(ctx, "PLANT", "run-2", time.Minute); !ok {
		t.Error("Expected expired holder to be replaced")
	}
}

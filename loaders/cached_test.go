package loaders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oarkflow/permit"
)

func TestCachedLoaderHitsInnerOnce(t *testing.T) {
	cache, err := NewCache(0, 0, 0, time.Minute)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	calls := 0
	inner := func(ctx context.Context) (*permit.Identity, error) {
		calls++
		return &permit.Identity{ID: "alice", Roles: []string{"manager"}}, nil
	}
	load := Cached(cache, "alice", inner)

	ctx := context.Background()
	if _, err := load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	cache.Wait()

	for i := 0; i < 3; i++ {
		id, err := load(ctx)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if id.ID != "alice" {
			t.Fatalf("unexpected identity: %+v", id)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one inner load, got %d", calls)
	}
}

func TestCachedLoaderInvalidate(t *testing.T) {
	cache, err := NewCache(0, 0, 0, time.Minute)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	calls := 0
	load := Cached(cache, "alice", func(ctx context.Context) (*permit.Identity, error) {
		calls++
		return &permit.Identity{ID: "alice"}, nil
	})

	ctx := context.Background()
	if _, err := load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	cache.Wait()
	cache.Invalidate("alice")

	if _, err := load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected invalidation to force a reload, got %d calls", calls)
	}
}

func TestCachedLoaderNeverCachesFailures(t *testing.T) {
	cache, err := NewCache(0, 0, 0, time.Minute)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	loadErr := errors.New("directory unavailable")
	calls := 0
	load := Cached(cache, "alice", func(ctx context.Context) (*permit.Identity, error) {
		calls++
		if calls == 1 {
			return nil, loadErr
		}
		return &permit.Identity{ID: "alice"}, nil
	})

	ctx := context.Background()
	if _, err := load(ctx); !errors.Is(err, loadErr) {
		t.Fatalf("expected failure to propagate, got %v", err)
	}
	cache.Wait()

	id, err := load(ctx)
	if err != nil || id == nil {
		t.Fatalf("expected retry to reach the inner loader, got %v, %v", id, err)
	}
	if calls != 2 {
		t.Fatalf("expected two inner loads, got %d", calls)
	}
}

package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/custom-icon-badges/custom-icon-badges/internal/db/models"
	"github.com/custom-icon-badges/custom-icon-badges/internal/iconstore"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "icons.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open("  "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestInsertGetRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	in := models.Icon{Slug: "rocket", Type: "svg+xml", Data: "PHN2Zz4="}
	if err := store.Insert(ctx, in); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := store.Get(ctx, "rocket")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || *got != in {
		t.Fatalf("get = %+v, want %+v", got, in)
	}

	missing, err := store.Get(ctx, "Rocket")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("slug lookup should be case-sensitive, got %+v", missing)
	}
}

func TestInsertDuplicateReturnsSlugTaken(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.Insert(ctx, models.Icon{Slug: "a", Type: "png", Data: "x"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := store.Insert(ctx, models.Icon{Slug: "a", Type: "png", Data: "y"})
	if !errors.Is(err, iconstore.ErrSlugTaken) {
		t.Fatalf("duplicate insert = %v, want ErrSlugTaken", err)
	}
}

func TestListInsertionOrder(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	empty, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("list = %#v, want empty slice", empty)
	}

	for _, slug := range []string{"zeta", "alpha", "mid"} {
		if err := store.Insert(ctx, models.Icon{Slug: slug, Type: "png", Data: "x"}); err != nil {
			t.Fatalf("insert %s: %v", slug, err)
		}
	}
	icons, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var slugs []string
	for _, i := range icons {
		slugs = append(slugs, i.Slug)
	}
	if len(slugs) != 3 || slugs[0] != "zeta" || slugs[1] != "alpha" || slugs[2] != "mid" {
		t.Fatalf("list order = %v", slugs)
	}
}

func TestConcurrentInsertSingleWinner(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.Insert(ctx, models.Icon{Slug: "race", Type: "png", Data: "x"})
		}()
	}
	wg.Wait()
	close(results)

	var ok, taken int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, iconstore.ErrSlugTaken):
			taken++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("successful inserts = %d, want 1 (taken=%d)", ok, taken)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	if err := openTempStore(t).Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

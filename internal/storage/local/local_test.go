package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/custom-icon-badges/custom-icon-badges/internal/config"
	"github.com/custom-icon-badges/custom-icon-badges/internal/storage"
)

// newTestStorage creates a LocalStorage backed by a temporary directory.
func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := New(&config.LocalStorageConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatal("New:", err)
	}
	return s
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_CreatesDirectory(t *testing.T) {
	subDir := filepath.Join(t.TempDir(), "a", "b", "c")
	if _, err := New(&config.LocalStorageConfig{BasePath: subDir}); err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := os.Stat(subDir); os.IsNotExist(err) {
		t.Error("New() did not create base directory")
	}
}

// ---------------------------------------------------------------------------
// PutIfAbsent / Get
// ---------------------------------------------------------------------------

func TestPutIfAbsent_ThenGet(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.PutIfAbsent(ctx, "icons/a.json", []byte(`{"slug":"a"}`), "application/json"); err != nil {
		t.Fatalf("PutIfAbsent() error: %v", err)
	}

	got, err := s.Get(ctx, "icons/a.json")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got) != `{"slug":"a"}` {
		t.Errorf("Get() = %q", got)
	}
}

func TestPutIfAbsent_Existing(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.PutIfAbsent(ctx, "icons/a.json", []byte("first"), ""); err != nil {
		t.Fatal(err)
	}
	err := s.PutIfAbsent(ctx, "icons/a.json", []byte("second"), "")
	if !errors.Is(err, storage.ErrExists) {
		t.Fatalf("PutIfAbsent() error = %v, want ErrExists", err)
	}

	got, _ := s.Get(ctx, "icons/a.json")
	if string(got) != "first" {
		t.Errorf("existing object overwritten: %q", got)
	}
}

func TestPutIfAbsent_Concurrent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var ok atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.PutIfAbsent(ctx, "icons/race.json", []byte("x"), ""); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	if ok.Load() != 1 {
		t.Errorf("successful writes = %d, want 1", ok.Load())
	}
}

func TestPutIfAbsent_RejectsTraversal(t *testing.T) {
	s := newTestStorage(t)
	for _, p := range []string{"../escape.json", "a/../../escape.json", "", "/abs.json"} {
		if err := s.PutIfAbsent(context.Background(), p, []byte("x"), ""); err == nil {
			t.Errorf("PutIfAbsent(%q) = nil, want error", p)
		}
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.Get(context.Background(), "icons/missing.json")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// List / Exists
// ---------------------------------------------------------------------------

func TestList_PrefixAndOrder(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	for _, p := range []string{"icons/b.json", "icons/a.json", "other/c.json"} {
		if err := s.PutIfAbsent(ctx, p, []byte("x"), ""); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.List(ctx, "icons/")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	want := []string{"icons/a.json", "icons/b.json"}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestList_Empty(t *testing.T) {
	s := newTestStorage(t)
	got, err := s.List(context.Background(), "icons/")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List() = %v, want empty", got)
	}
}

func TestExists(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	exists, err := s.Exists(ctx, "icons/a.json")
	if err != nil || exists {
		t.Fatalf("Exists() before write = %v, %v", exists, err)
	}
	if err := s.PutIfAbsent(ctx, "icons/a.json", []byte("x"), ""); err != nil {
		t.Fatal(err)
	}
	exists, err = s.Exists(ctx, "icons/a.json")
	if err != nil || !exists {
		t.Fatalf("Exists() after write = %v, %v", exists, err)
	}
}

package localstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sample struct {
	Name  string        `json:"name"`
	Left  time.Duration `json:"left"`
	Count int           `json:"count"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "state.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestGetMissingKey(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	var v sample
	if err := s.Get("nope", &v); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSetGetAcrossInstances(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	in := sample{Name: "focus", Left: 90 * time.Second, Count: 3}
	if err := s.Set(KeyTimerState, in); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("other", 42); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	reopened, err := Open(s.Path())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	var out sample
	if err := reopened.Get(KeyTimerState, &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out != in {
		t.Errorf("Expected %+v, got %+v", in, out)
	}

	var n int
	if err := reopened.Get("other", &n); err != nil || n != 42 {
		t.Errorf("Expected 42, got %d (%v)", n, err)
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	if err := s.Delete("missing"); err != nil {
		t.Errorf("Deleting a missing key should not fail: %v", err)
	}
	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	var v string
	if err := s.Get("k", &v); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestCorruptFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	if err := os.WriteFile(s.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	var v string
	if err := s.Get("k", &v); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Expected corruption error, got %v", err)
	}
}

func TestNoTempFilesLeft(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		if err := s.Set("k", i); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the state file, got %d entries", len(entries))
	}
}

func TestClearRecoversCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set("k", 1); err == nil {
		t.Fatal("expected error writing over a corrupt file")
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := s.Set("k", 1); err != nil {
		t.Fatalf("Set after Clear: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

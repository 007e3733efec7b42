package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

// exercise runs the behavior every backend must share.
func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "doc:missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "doc:a", []byte("alpha"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := s.Set(ctx, "doc:b", []byte("beta"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := s.Set(ctx, "render:x", []byte("svg"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	data, ok, err := s.Get(ctx, "doc:a")
	if err != nil || !ok || string(data) != "alpha" {
		t.Fatalf("Get(doc:a) = %q, %v, %v", data, ok, err)
	}

	if err := s.Set(ctx, "doc:a", []byte("alpha-2"), 0); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}
	if data, _, _ := s.Get(ctx, "doc:a"); string(data) != "alpha-2" {
		t.Errorf("Get after overwrite = %q", data)
	}

	keys, err := s.Keys(ctx, "doc:")
	if err != nil {
		t.Fatalf("Keys error: %v", err)
	}
	if !slices.Equal(keys, []string{"doc:a", "doc:b"}) {
		t.Errorf("Keys(doc:) = %v", keys)
	}

	if err := s.Delete(ctx, "doc:a"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := s.Delete(ctx, "doc:a"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "doc:a"); ok {
		t.Error("Get after Delete should miss")
	}
	keys, _ = s.Keys(ctx, "doc:")
	if !slices.Equal(keys, []string{"doc:b"}) {
		t.Errorf("Keys after delete = %v", keys)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exercise(t, s)
}

func TestMemoryStore_CopiesData(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	buf := []byte("abc")
	s.Set(ctx, "k", buf, 0)
	buf[0] = 'X'

	got, _, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller buffer: %q", got)
	}
	got[1] = 'Y'
	again, _, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("returned value aliased store: %q", again)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Set(ctx, "k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("expired entry should miss")
	}
	if keys, _ := s.Keys(ctx, ""); len(keys) != 0 {
		t.Errorf("Keys() includes expired entries: %v", keys)
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Close()

	if _, _, err := s.Get(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get after Close error = %v", err)
	}
	if err := s.Set(ctx, "k", nil, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("Set after Close error = %v", err)
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, s)
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir)
	s.Set(context.Background(), "doc:a", []byte("x"), 0)

	hash := Hash([]byte("doc:a"))
	if _, err := os.Stat(filepath.Join(dir, hash[:2], hash[2:]+".json")); err != nil {
		t.Errorf("entry not at hashed path: %v", err)
	}
}

func TestFileStore_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, _ := NewFileStore(dir)
	s.Set(ctx, "k", []byte("v"), 0)

	path := s.path("k")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := s.Get(ctx, "k"); ok || err != nil {
		t.Errorf("Get(corrupt) = ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())
	s.Set(ctx, "k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("expired entry should miss")
	}
}

func TestNullStore(t *testing.T) {
	ctx := context.Background()
	s := NewNullStore()
	defer s.Close()

	if err := s.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("NullStore should not store data")
	}
	if keys, _ := s.Keys(ctx, ""); len(keys) != 0 {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestScoped(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	s := Scoped(inner, "tenant1:")
	exercise(t, s)

	if _, ok, _ := inner.Get(ctx, "tenant1:doc:b"); !ok {
		t.Error("scoped key not stored under prefix")
	}
	if Scoped(inner, "") != Store(inner) {
		t.Error("empty prefix should return inner store")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Backend: BackendFile, Dir: t.TempDir(), Namespace: "ns:"})
	if err != nil {
		t.Fatalf("Open(file) error: %v", err)
	}
	if _, ok := s.(*ScopedStore); !ok {
		t.Errorf("Open with namespace = %T, want *ScopedStore", s)
	}

	if s, _ := Open(ctx, Config{Backend: BackendMemory}); s == nil {
		t.Error("Open(memory) returned nil")
	}
	if _, err := Open(ctx, Config{Backend: "etcd"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(etcd) error = %v", err)
	}
	if _, err := Open(ctx, Config{Backend: BackendFile}); err == nil {
		t.Error("Open(file) without dir should fail")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestRetryWithBackoff(t *testing.T) {
	old := RetryDelay
	RetryDelay = time.Millisecond
	defer func() { RetryDelay = old }()
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("flaky"))
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	permanent := errors.New("permanent")
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Errorf("permanent: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(errors.New("down"))
	})
	if !IsRetryable(err) || calls != 3 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}

	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
}

func TestRetryWithBackoff_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errors.New("down"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("Get(missing) should miss")
	}

	if err := c.Set(ctx, "order:1", []byte(`["a","b"]`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "order:1")
	if err != nil || !hit || string(data) != `["a","b"]` {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "order:1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "order:1"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "order:1"); err != nil {
		t.Errorf("Delete(absent) = %v, want nil", err)
	}
}

func TestFileCacheExpired(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), time.Hour)
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cache dir not empty: %d entries", len(entries))
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q", c.Dir())
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	tests := []struct {
		name string
		a, b string
	}{
		{
			"order kinds",
			k.OrderKey("ws1", OrderKeyOpts{Kinds: "project"}),
			k.OrderKey("ws1", OrderKeyOpts{Kinds: "project,container"}),
		},
		{
			"order workspace",
			k.OrderKey("ws1", OrderKeyOpts{}),
			k.OrderKey("ws2", OrderKeyOpts{}),
		},
		{
			"order roots",
			k.OrderKey("ws1", OrderKeyOpts{Roots: []string{"app"}}),
			k.OrderKey("ws1", OrderKeyOpts{Roots: []string{"lib"}}),
		},
		{
			"classpath policy",
			k.ClasspathKey("ws1", ClasspathKeyOpts{Roots: []string{"a"}, Policy: "fail"}),
			k.ClasspathKey("ws1", ClasspathKeyOpts{Roots: []string{"a"}, Policy: "highest"}),
		},
		{
			"cycles kinds",
			k.CyclesKey("ws1", CyclesKeyOpts{Kinds: "project"}),
			k.CyclesKey("ws1", CyclesKeyOpts{}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.a == tt.b {
				t.Errorf("keys should differ: %s", tt.a)
			}
		})
	}

	if got := k.OrderKey("ws1", OrderKeyOpts{}); !strings.HasPrefix(got, "order:") {
		t.Errorf("OrderKey prefix: %s", got)
	}
	if k.OrderKey("ws1", OrderKeyOpts{Set: "core"}) != k.OrderKey("ws1", OrderKeyOpts{Set: "core"}) {
		t.Error("OrderKey should be deterministic")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "api:")
	inner := NewDefaultKeyer()

	if got, want := scoped.OrderKey("ws", OrderKeyOpts{}), "api:"+inner.OrderKey("ws", OrderKeyOpts{}); got != want {
		t.Errorf("OrderKey = %s, want %s", got, want)
	}
	if got := scoped.ClasspathKey("ws", ClasspathKeyOpts{}); !strings.HasPrefix(got, "api:classpath:") {
		t.Errorf("ClasspathKey = %s", got)
	}
	if got := NewScopedKeyer(nil, "p:").CyclesKey("ws", CyclesKeyOpts{}); !strings.HasPrefix(got, "p:cycles:") {
		t.Errorf("nil inner CyclesKey = %s", got)
	}
}

var errDown = errors.New("connection refused")

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(errDown)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != errDown.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if !errors.Is(err, errDown) {
		t.Error("wrapped error should unwrap")
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return errDown
	})
	if err != errDown || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errDown)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry once: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(errDown)
	})
	if !IsRetryable(err) || calls != 3 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errDown)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

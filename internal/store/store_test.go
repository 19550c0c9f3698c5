package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "flagz.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flagz.db")
	ctx := context.Background()

	s1, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s1.Set(ctx, "learningState", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	s1.Close()

	s2, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get(ctx, "learningState")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("got %s, want {\"a\":1}", got)
	}
}

// exerciseKV runs the shared contract against any driver.
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, err := kv.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) err = %v, want ErrNotFound", err)
	}

	if err := kv.Set(ctx, "k1", []byte("one")); err != nil {
		t.Fatalf("Set k1: %v", err)
	}
	if err := kv.Set(ctx, "k1", []byte("uno")); err != nil {
		t.Fatalf("overwrite k1: %v", err)
	}
	if err := kv.Set(ctx, "k2", []byte("two")); err != nil {
		t.Fatalf("Set k2: %v", err)
	}

	got, err := kv.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get k1: %v", err)
	}
	if string(got) != "uno" {
		t.Errorf("k1 = %q, want %q", got, "uno")
	}

	if err := kv.Delete(ctx, "k1", "k2", "never-set"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for _, k := range []string{"k1", "k2"} {
		if _, err := kv.Get(ctx, k); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%s) after delete err = %v, want ErrNotFound", k, err)
		}
	}

	if err := kv.Delete(ctx); err != nil {
		t.Errorf("Delete with no keys: %v", err)
	}
}

func TestSQLiteKV(t *testing.T) {
	exerciseKV(t, openTestStore(t))
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemory())
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	buf := []byte("abc")
	_ = m.Set(ctx, "k", buf)
	buf[0] = 'x'

	got, _ := m.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value mutated through caller slice: %q", got)
	}
}

func TestPostgresKV(t *testing.T) {
	dsn := os.Getenv("FLAGZ_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FLAGZ_TEST_POSTGRES_DSN not set")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer s.Close()
	exerciseKV(t, s)
}

func TestRedisKV(t *testing.T) {
	addr := os.Getenv("FLAGZ_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FLAGZ_TEST_REDIS_ADDR not set")
	}
	s, err := OpenRedis(context.Background(), addr, "flagz-test:")
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	defer s.Close()
	exerciseKV(t, s)
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mongo"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Run("env override", func(t *testing.T) {
		want := filepath.Join(dir, "custom", "x.db")
		t.Setenv("FLAGZ_DB", want)
		got, err := DefaultDBPath()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
		if _, err := os.Stat(filepath.Dir(want)); err != nil {
			t.Errorf("parent dir not created: %v", err)
		}
	})

	t.Run("xdg data home", func(t *testing.T) {
		t.Setenv("FLAGZ_DB", "")
		t.Setenv("XDG_DATA_HOME", dir)
		got, err := DefaultDBPath()
		if err != nil {
			t.Fatal(err)
		}
		want := filepath.Join(dir, "flagz", "flagz.db")
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

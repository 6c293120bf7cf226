package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func sampleRecords() []Record {
	return []Record{
		{Time: 1, Assigned: 2, Launched: 1, Pending: 0, Active: 1},
		{Time: 2, Active: 1},
		{Time: 3, Skipped: true, Error: "scheduling skipped: invalid destination", Active: 1},
		{Time: 4, Retired: 1},
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	for _, r := range sampleRecords() {
		if err := store.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := store.Query(ctx, Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 4 || all[0] != sampleRecords()[0] || all[2] != sampleRecords()[2] {
		t.Fatalf("unexpected records: %+v", all)
	}

	ranged, err := store.Query(ctx, Query{From: 2, To: 3})
	if err != nil {
		t.Fatalf("range query: %v", err)
	}
	if len(ranged) != 2 || ranged[0].Time != 2 || ranged[1].Time != 3 {
		t.Fatalf("unexpected range: %+v", ranged)
	}

	errs, err := store.Query(ctx, Query{ErrorsOnly: true})
	if err != nil {
		t.Fatalf("errors query: %v", err)
	}
	if len(errs) != 1 || errs[0].Time != 3 {
		t.Fatalf("unexpected errors: %+v", errs)
	}

	limited, err := store.Query(ctx, Query{Limit: 2})
	if err != nil {
		t.Fatalf("limit query: %v", err)
	}
	if len(limited) != 2 || limited[1].Time != 2 {
		t.Fatalf("unexpected limit: %+v", limited)
	}
}

func TestJSONLStore(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "journal.jsonl"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestJSONLStoreSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	if err := os.WriteFile(path, []byte("not json\n{\"time\":5}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := NewJSONLStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	out, err := store.Query(context.Background(), Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].Time != 5 {
		t.Fatalf("unexpected records: %+v", out)
	}
}

func TestRotatingJSONLStore(t *testing.T) {
	store, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "sub", "journal.jsonl"), 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestRotatingJSONLStoreRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 3, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	big := Record{Error: string(make([]byte, 200*1024))}
	for i := 0; i < 8; i++ {
		big.Time = int64(i + 1)
		if err := store.Append(context.Background(), big); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	backups, _ := filepath.Glob(filepath.Join(dir, "journal-*.jsonl"))
	if len(backups) == 0 {
		t.Fatalf("expected rotated files")
	}
	out, err := store.Query(context.Background(), Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 8 || out[0].Time != 1 || out[7].Time != 8 {
		t.Fatalf("expected records across backups in order, got %d", len(out))
	}
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		cfg  Config
		want any
	}{
		{Config{}, NopStore{}},
		{Config{Backend: BackendJSONL, Path: filepath.Join(dir, "a.jsonl")}, &JSONLStore{}},
		{Config{Backend: BackendJSONL, Path: filepath.Join(dir, "b.jsonl"), MaxSizeMB: 5}, &RotatingJSONLStore{}},
		{Config{Backend: BackendSQLite, Path: filepath.Join(dir, "c.db")}, &SQLiteStore{}},
	}
	for _, tc := range cases {
		s, err := Open(tc.cfg)
		if err != nil {
			t.Fatalf("open %+v: %v", tc.cfg, err)
		}
		switch tc.want.(type) {
		case NopStore:
			if _, ok := s.(NopStore); !ok {
				t.Errorf("backend %q: got %T", tc.cfg.Backend, s)
			}
		case *JSONLStore:
			if _, ok := s.(*JSONLStore); !ok {
				t.Errorf("backend %q: got %T", tc.cfg.Backend, s)
			}
		case *RotatingJSONLStore:
			if _, ok := s.(*RotatingJSONLStore); !ok {
				t.Errorf("backend %q: got %T", tc.cfg.Backend, s)
			}
		case *SQLiteStore:
			if _, ok := s.(*SQLiteStore); !ok {
				t.Errorf("backend %q: got %T", tc.cfg.Backend, s)
			}
		}
		_ = s.Close()
	}

	if _, err := Open(Config{Backend: "postgres", Path: "x"}); err == nil {
		t.Fatalf("expected unknown backend error")
	}
	if _, err := Open(Config{Backend: BackendSQLite}); err == nil {
		t.Fatalf("expected missing path error")
	}
}

package database

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBucketLifecycle(t *testing.T) {
	db := openTestDB(t)

	done, err := db.BucketDone("20200101", "20200131")
	if err != nil {
		t.Fatalf("BucketDone: %v", err)
	}
	if done {
		t.Error("fresh bucket should not be done")
	}

	if err := db.MarkBucketDone("20200101", "20200131", 4, 321); err != nil {
		t.Fatalf("MarkBucketDone: %v", err)
	}

	done, err = db.BucketDone("20200101", "20200131")
	if err != nil {
		t.Fatalf("BucketDone: %v", err)
	}
	if !done {
		t.Error("marked bucket should be done")
	}

	// Re-marking overwrites the counts instead of failing.
	if err := db.MarkBucketDone("20200101", "20200131", 5, 400); err != nil {
		t.Fatalf("re-mark: %v", err)
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Buckets != 1 || stats.Pages != 5 || stats.Records != 400 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestClearBuckets(t *testing.T) {
	db := openTestDB(t)

	if err := db.MarkBucketDone("20200101", "20200131", 1, 10); err != nil {
		t.Fatal(err)
	}
	if err := db.ClearBuckets(); err != nil {
		t.Fatalf("ClearBuckets: %v", err)
	}

	done, err := db.BucketDone("20200101", "20200131")
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("cleared bucket should not be done")
	}
}

func TestReopenKeepsLedger(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.db")

	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.MarkBucketDone("20210101", "20210131", 2, 50); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("re-open: %v", err)
	}
	defer db.Close()

	done, err := db.BucketDone("20210101", "20210131")
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("ledger should survive reopen")
	}
}

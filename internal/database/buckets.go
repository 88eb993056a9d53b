package database

import "fmt"

// BucketDone reports whether a month bucket has already been fully fetched.
func (db *DB) BucketDone(start, end string) (bool, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM buckets WHERE start_date = ? AND end_date = ?",
		start, end,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking bucket %s..%s: %w", start, end, err)
	}
	return count > 0, nil
}

// MarkBucketDone records a fully fetched bucket with its page and record
// counts. Re-marking an existing bucket overwrites the counts.
func (db *DB) MarkBucketDone(start, end string, pages, records int) error {
	_, err := db.conn.Exec(`
INSERT INTO buckets (start_date, end_date, pages, records, fetched_at)
VALUES (?, ?, ?, ?, datetime('now'))
ON CONFLICT(start_date, end_date) DO UPDATE SET
    pages = excluded.pages,
    records = excluded.records,
    fetched_at = excluded.fetched_at
`, start, end, pages, records)
	if err != nil {
		return fmt.Errorf("marking bucket %s..%s: %w", start, end, err)
	}
	return nil
}

// ClearBuckets drops all completion records, forcing the next fetch to
// re-download everything.
func (db *DB) ClearBuckets() error {
	if _, err := db.conn.Exec("DELETE FROM buckets"); err != nil {
		return fmt.Errorf("clearing buckets: %w", err)
	}
	return nil
}

// Stats summarizes the ledger for fetch output.
type Stats struct {
	Buckets int
	Pages   int
	Records int
}

// GetStats returns totals across all completed buckets.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	err := db.conn.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(pages), 0), COALESCE(SUM(records), 0) FROM buckets",
	).Scan(&s.Buckets, &s.Pages, &s.Records)
	if err != nil {
		return nil, fmt.Errorf("reading ledger stats: %w", err)
	}
	return s, nil
}

package aggregate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NDua7/Technical-Assignment/internal/event"
)

func record(dateStarted string, products []event.Product) event.Record {
	return event.Record{DateStarted: dateStarted, Products: products}
}

func TestYearFiltering(t *testing.T) {
	a := New(Query{StartYear: 2019, EndYear: 2021})
	years := []string{"20180601", "20190101", "20201231", "20211231", "20220101"}
	for _, d := range years {
		r := record(d, nil)
		a.Add(&r)
	}
	// Unparsable dates exclude the record entirely.
	bad := record("not-a-date", nil)
	a.Add(&bad)

	s := a.Finish()
	if s.Total != 3 {
		t.Errorf("total = %d, want 3", s.Total)
	}
	if s.ByYear[2019] != 1 || s.ByYear[2020] != 1 || s.ByYear[2021] != 1 {
		t.Errorf("by-year = %v", s.ByYear)
	}
}

func TestOpenEndYearResolvesToMaxSeen(t *testing.T) {
	a := New(Query{StartYear: 2019})
	for _, d := range []string{"20190101", "20230601", "20170101"} {
		r := record(d, nil)
		a.Add(&r)
	}
	s := a.Finish()
	// 2017 is outside the filter but still advances the max seen year.
	if s.EndYear != 2023 {
		t.Errorf("end year = %d, want 2023", s.EndYear)
	}
	if s.Total != 2 {
		t.Errorf("total = %d, want 2", s.Total)
	}
}

func TestOpenEndYearEmptyCorpus(t *testing.T) {
	s := New(Query{StartYear: 2000}).Finish()
	if s.EndYear != 2000 {
		t.Errorf("end year = %d, want start year fallback", s.EndYear)
	}
}

func TestProductFilterSuspectRoles(t *testing.T) {
	a := New(Query{StartYear: 2000, Product: "tylenol"})

	// Only product matches the name but has a concomitant role: excluded.
	concomitant := record("20200101", []event.Product{
		{Name: "Tylenol Extra", Role: "CONCOMITANT"},
	})
	a.Add(&concomitant)

	// Blank role counts as suspect: included.
	blank := record("20200101", []event.Product{
		{Name: "Tylenol PM"},
	})
	a.Add(&blank)

	// Explicit suspect role, case-insensitive match: included.
	suspect := record("20200101", []event.Product{
		{Name: "TYLENOL Rapid Release", Role: "suspect"},
	})
	a.Add(&suspect)

	// Suspect product that doesn't match the filter: excluded.
	other := record("20200101", []event.Product{
		{Name: "Advil", Role: "SUSPECT"},
	})
	a.Add(&other)

	s := a.Finish()
	if s.Total != 2 {
		t.Errorf("total = %d, want 2", s.Total)
	}
}

func TestOnlySuspectProductsCounted(t *testing.T) {
	a := New(Query{StartYear: 2000})
	r := record("20200101", []event.Product{
		{Name: "Fish Oil", Role: "SUSPECT"},
		{Name: "Multivitamin", Role: "CONCOMITANT"},
		{Name: "Green Tea Extract"},
	})
	a.Add(&r)

	s := a.Finish()
	if s.Products.Len() != 2 {
		t.Errorf("suspect product keys = %d, want 2", s.Products.Len())
	}
}

func TestAgePartitioning(t *testing.T) {
	a := New(Query{StartYear: 2000})

	female := event.Record{
		DateStarted: "20200101",
		Consumer:    &event.Consumer{Gender: "F", Age: "40", AgeUnit: "Y"},
	}
	male := event.Record{
		DateStarted: "20210101",
		Consumer:    &event.Consumer{Gender: "M", Age: "24", AgeUnit: "MONTHS"},
	}
	unknown := event.Record{
		DateStarted: "20200101",
		Consumer:    &event.Consumer{Age: "60", AgeUnit: "Y"},
	}
	noAge := event.Record{DateStarted: "20200101"}

	for _, r := range []event.Record{female, male, unknown, noAge} {
		rr := r
		a.Add(&rr)
	}

	s := a.Finish()
	if len(s.AgesAll) != 3 {
		t.Errorf("overall ages = %v", s.AgesAll)
	}
	if len(s.AgesFemale) != 1 || s.AgesFemale[0] != 40 {
		t.Errorf("female ages = %v", s.AgesFemale)
	}
	if len(s.AgesMale) != 1 || s.AgesMale[0] != 2 {
		t.Errorf("male ages = %v", s.AgesMale)
	}
	// Unknown gender still counts toward overall and per-year lists.
	if len(s.AgesByYear[2020]) != 2 || len(s.AgesByYear[2021]) != 1 {
		t.Errorf("ages by year = %v", s.AgesByYear)
	}
	if s.Total != 4 {
		t.Errorf("total = %d, want 4", s.Total)
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("b.json", `{"results": [
		{"date_started": "20200101", "outcomes": ["Hospitalization"],
		 "products": [{"name_brand": "Fish Oil"}]}
	]}`)
	write("a.json", `{"results": [
		{"date_started": "20190601", "reactions": ["Nausea"],
		 "products": [{"name_brand": "FISH OIL", "role": "SUSPECT"}]}
	]}`)
	write("broken.json", `{"results": [`)
	write("notes.txt", "not scanned")

	s, err := New(Query{StartYear: 2000}).ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}

	if s.FilesScanned != 2 || s.FilesSkipped != 1 {
		t.Errorf("scanned=%d skipped=%d", s.FilesScanned, s.FilesSkipped)
	}
	if s.Total != 2 {
		t.Errorf("total = %d, want 2", s.Total)
	}
	if s.EndYear != 2020 {
		t.Errorf("end year = %d, want 2020", s.EndYear)
	}

	// Files scan in sorted path order, so a.json's spelling is first-seen
	// and wins the representative-label tie.
	top := s.Products.Top(1)
	if len(top) != 1 || top[0].Label != "FISH OIL" || top[0].Count != 2 {
		t.Errorf("products top = %+v", top)
	}
}

func TestScanDirMissing(t *testing.T) {
	_, err := New(Query{StartYear: 2000}).ScanDir(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Error("expected error for missing data directory")
	}
}

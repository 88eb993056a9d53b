// Package aggregate runs the single-pass scan over the report corpus:
// year-range and suspect-product filtering, canonical-key counting with
// representative labels, and age-sample accumulation.
package aggregate

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/NDua7/Technical-Assignment/internal/event"
	"github.com/NDua7/Technical-Assignment/internal/normalize"
)

// Stats is the final state of one aggregation run.
type Stats struct {
	Query Query
	// EndYear is the resolved upper bound: the query's end year, or the
	// latest year observed across all parsed records when the query left
	// the range open.
	EndYear int

	Total  int
	ByYear map[int]int

	Outcomes  *Counter
	Reactions *Counter
	Products  *Counter

	AgesAll    []float64
	AgesFemale []float64
	AgesMale   []float64
	AgesByYear map[int][]float64

	FilesScanned int
	FilesSkipped int
}

// Aggregator owns all mutable scan state for one run. It is not safe for
// concurrent use; the scan is a single synchronous pass so records are
// counted in sorted file-path order and first-seen tie-breaks stay stable.
type Aggregator struct {
	query       Query
	filter      string // uppercased product filter, "" when absent
	stats       *Stats
	maxYearSeen int
}

// New creates an aggregator for one run.
func New(q Query) *Aggregator {
	return &Aggregator{
		query:  q,
		filter: strings.ToUpper(q.Product),
		stats: &Stats{
			Query:      q,
			ByYear:     make(map[int]int),
			Outcomes:   NewCounter(),
			Reactions:  NewCounter(),
			Products:   NewCounter(),
			AgesByYear: make(map[int][]float64),
		},
	}
}

// ScanDir scans every *.json file under dir in sorted path order and returns
// the finished stats. A missing directory is the only fatal condition; files
// that fail to read or parse are skipped and the scan continues.
func (a *Aggregator) ScanDir(dir string) (*Stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading data directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			log.Printf("Skipping unreadable file %s: %v", p, err)
			a.stats.FilesSkipped++
			continue
		}
		records, err := event.ParseReports(data)
		if err != nil {
			log.Printf("Skipping malformed file %s: %v", p, err)
			a.stats.FilesSkipped++
			continue
		}
		a.stats.FilesScanned++
		for i := range records {
			a.Add(&records[i])
		}
	}

	return a.Finish(), nil
}

// Add feeds one record through the filters and into the running totals.
func (a *Aggregator) Add(r *event.Record) {
	y, ok := r.Year()
	if !ok {
		return
	}
	// The maximum year is tracked across all records, before any filter,
	// so an open-ended range can resolve to the latest year in the data.
	if y > a.maxYearSeen {
		a.maxYearSeen = y
	}

	if y < a.query.StartYear {
		return
	}
	if a.query.EndYear != 0 && y > a.query.EndYear {
		return
	}

	products := r.ProductList()
	if a.filter != "" && !a.matchesFilter(products) {
		return
	}

	a.stats.Total++
	a.stats.ByYear[y]++

	for _, o := range r.OutcomeTerms() {
		a.stats.Outcomes.Record(o, normalize.Outcome)
	}
	for _, rx := range r.ReactionTerms() {
		a.stats.Reactions.Record(rx, normalize.Reaction)
	}
	for _, p := range products {
		if suspectRole(p.Role) {
			a.stats.Products.Record(p.Name, normalize.Product)
		}
	}

	if age, ok := r.AgeYears(); ok {
		a.stats.AgesAll = append(a.stats.AgesAll, age)
		a.stats.AgesByYear[y] = append(a.stats.AgesByYear[y], age)
		switch r.GenderCode() {
		case "F":
			a.stats.AgesFemale = append(a.stats.AgesFemale, age)
		case "M":
			a.stats.AgesMale = append(a.stats.AgesMale, age)
		}
	}
}

// Finish resolves the open end of the year range and returns the stats.
func (a *Aggregator) Finish() *Stats {
	a.stats.EndYear = a.query.EndYear
	if a.stats.EndYear == 0 {
		if a.maxYearSeen != 0 {
			a.stats.EndYear = a.maxYearSeen
		} else {
			a.stats.EndYear = a.query.StartYear
		}
	}
	return a.stats
}

// matchesFilter reports whether any suspect product's name contains the
// filter substring.
func (a *Aggregator) matchesFilter(products []event.NamedProduct) bool {
	for _, p := range products {
		if suspectRole(p.Role) && strings.Contains(strings.ToUpper(p.Name), a.filter) {
			return true
		}
	}
	return false
}

// suspectRole reports whether a product role implicates the product: an
// explicit suspect role, or no role at all.
func suspectRole(role string) bool {
	return role == "" || strings.Contains(strings.ToUpper(role), "SUSPECT")
}

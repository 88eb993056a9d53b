package aggregate

import (
	"sort"
	"strings"
)

// Entry is one row of a Top listing: the representative label for a
// canonical key and the total occurrences counted under that key.
type Entry struct {
	Label string
	Count int
}

// Counter counts occurrences per canonical key while remembering every raw
// surface form seen for the key, so output can show the most common original
// spelling. All tie-breaks fall back to first-seen order, which makes Top
// deterministic for a fixed input order.
type Counter struct {
	counts     map[string]int
	labels     map[string]map[string]int
	keyOrder   map[string]int
	labelOrder map[string]map[string]int
	nextKey    int
}

// NewCounter creates an empty labeled counter.
func NewCounter() *Counter {
	return &Counter{
		counts:     make(map[string]int),
		labels:     make(map[string]map[string]int),
		keyOrder:   make(map[string]int),
		labelOrder: make(map[string]map[string]int),
	}
}

// Record normalizes raw through norm and counts it under the resulting
// canonical key. Empty raw strings and empty keys are ignored, never counted.
func (c *Counter) Record(raw string, norm func(string) string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	key := norm(raw)
	if key == "" {
		return
	}

	if _, seen := c.counts[key]; !seen {
		c.keyOrder[key] = c.nextKey
		c.nextKey++
		c.labels[key] = make(map[string]int)
		c.labelOrder[key] = make(map[string]int)
	}
	c.counts[key]++

	pool := c.labels[key]
	if _, seen := pool[raw]; !seen {
		c.labelOrder[key][raw] = len(c.labelOrder[key])
	}
	pool[raw]++
}

// Len returns the number of distinct canonical keys.
func (c *Counter) Len() int {
	return len(c.counts)
}

// Top returns up to n entries ordered by count descending, ties broken by
// first-seen key order. Each entry's label is the most frequent raw form for
// its key, ties broken by first-seen raw form.
func (c *Counter) Top(n int) []Entry {
	keys := make([]string, 0, len(c.counts))
	for k := range c.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if c.counts[a] != c.counts[b] {
			return c.counts[a] > c.counts[b]
		}
		return c.keyOrder[a] < c.keyOrder[b]
	})
	if len(keys) > n {
		keys = keys[:n]
	}

	out := make([]Entry, len(keys))
	for i, k := range keys {
		out[i] = Entry{Label: c.representative(k), Count: c.counts[k]}
	}
	return out
}

// representative picks the most frequent raw form for a key.
func (c *Counter) representative(key string) string {
	pool := c.labels[key]
	order := c.labelOrder[key]
	best := ""
	bestCount := -1
	for raw, ct := range pool {
		switch {
		case ct > bestCount:
			best, bestCount = raw, ct
		case ct == bestCount && order[raw] < order[best]:
			best = raw
		}
	}
	if best == "" {
		return key
	}
	return best
}

// Package scrapecache remembers the last successfully scraped (title, locations) pair.
package scrapecache

import (
	"sort"
	"strings"
	"sync"

	"github.com/hyperjump/jobscout/pkg/utils"
)

// Cache holds the last scraped title and normalized location set.
// The zero value is ready to use; state lives for the process only.
type Cache struct {
	mu        sync.RWMutex
	set       bool
	title     string
	locations []string
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{}
}

// ShouldScrape reports whether title or locations differ from the last recorded pair.
// It always returns true before the first MarkScraped.
func (c *Cache) ShouldScrape(title string, locations []string) bool {
	t, locs := normalizeTitle(title), NormalizeLocations(locations)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set || c.title != t || len(c.locations) != len(locs) {
		return true
	}
	for i := range locs {
		if c.locations[i] != locs[i] {
			return true
		}
	}
	return false
}

// MarkScraped records the pair. Call only after ingestion completed without a fatal error.
func (c *Cache) MarkScraped(title string, locations []string) {
	t, locs := normalizeTitle(title), NormalizeLocations(locations)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = true
	c.title = t
	c.locations = locs
}

// Reset forgets the recorded pair.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = false
	c.title = ""
	c.locations = nil
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeLocations trims, collapses whitespace and case-folds each location,
// drops empties and duplicates, and returns the set sorted.
func NormalizeLocations(locations []string) []string {
	seen := make(map[string]struct{}, len(locations))
	out := make([]string, 0, len(locations))
	for _, l := range locations {
		n := strings.ToLower(utils.CollapseSpace(l))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

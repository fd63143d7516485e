// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache learns which acquisition methods work for which publishers
// and publication eras, and reorders candidate method lists so historically
// successful methods are tried first. It is an optimization layer: every
// failure mode degrades to doing nothing.
package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// topN is how many leading methods each frequency table contributes to a
// reorder.
const topN = 3

// Stats is the persisted success-frequency state. Counters are monotonic:
// failures are recorded in the totals but never penalize a method.
type Stats struct {
	PublisherSuccess map[string]map[string]int `json:"publisher_success"`
	YearSuccess      map[string]map[string]int `json:"year_success"`
	TotalAttempts    int                       `json:"total_attempts"`
	TotalSuccesses   int                       `json:"total_successes"`
}

func newStats() Stats {
	return Stats{
		PublisherSuccess: make(map[string]map[string]int),
		YearSuccess:      make(map[string]map[string]int),
	}
}

// SmartCache is a file-backed frequency table with serialized mutation.
// Construct one per process and inject it; it is safe for concurrent use.
type SmartCache struct {
	mu    sync.Mutex
	path  string
	stats Stats
	warn  io.Writer
}

// Open loads the statistics file at path, or starts empty when it does not
// exist or cannot be parsed. Persistence warnings go to warn.
func Open(path string, warn io.Writer) *SmartCache {
	if warn == nil {
		warn = io.Discard
	}
	c := &SmartCache{path: path, stats: newStats(), warn: warn}

	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	var loaded Stats
	if err := json.Unmarshal(data, &loaded); err != nil {
		fmt.Fprintf(warn, "warning: ignoring unreadable cache file %s: %v\n", path, err)
		return c
	}
	if loaded.PublisherSuccess == nil {
		loaded.PublisherSuccess = make(map[string]map[string]int)
	}
	if loaded.YearSuccess == nil {
		loaded.YearSuccess = make(map[string]map[string]int)
	}
	c.stats = loaded
	return c
}

// DefaultPath returns the per-user cache file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".paper-finder-cache.json"
	}
	return filepath.Join(home, ".paper-finder-cache.json")
}

// RecordAttempt registers one acquisition attempt. Successes increment the
// publisher and year-bucket counters for the method; failures only bump the
// totals. Every mutation is followed by a full-state write; a write failure
// is logged and swallowed.
func (c *SmartCache) RecordAttempt(publisher string, year int, method string, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.TotalAttempts++
	if success {
		c.stats.TotalSuccesses++
		if publisher != "" {
			increment(c.stats.PublisherSuccess, publisher, method)
		}
		if bucket := (types.Metadata{Year: year}).YearBucket(); bucket != "" {
			increment(c.stats.YearSuccess, bucket, method)
		}
	}

	if err := c.persistLocked(); err != nil {
		fmt.Fprintf(c.warn, "warning: could not save cache: %v\n", err)
	}
}

func increment(table map[string]map[string]int, key, method string) {
	if table[key] == nil {
		table[key] = make(map[string]int)
	}
	table[key][method]++
}

// persistLocked writes the whole state atomically: temp file then rename.
func (c *SmartCache) persistLocked() error {
	data, err := json.MarshalIndent(c.stats, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		if writeErr != nil {
			return writeErr
		}
		return closeErr
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// bestMethods returns up to n method names from table[key] in descending
// success-count order. Ties break lexically so the order is stable.
func bestMethods(table map[string]map[string]int, key string, n int) []string {
	counts := table[key]
	if len(counts) == 0 {
		return nil
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// Reorder fronts the union of the top publisher-table and year-bucket-table
// methods, keeping their descending frequency order, and appends all
// remaining methods in their original order. With no recorded history the
// input is returned unchanged.
func (c *SmartCache) Reorder(methods []string, publisher string, year int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var preferred []string
	seen := make(map[string]bool)
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				preferred = append(preferred, n)
			}
		}
	}
	if publisher != "" {
		add(bestMethods(c.stats.PublisherSuccess, publisher, topN))
	}
	if bucket := (types.Metadata{Year: year}).YearBucket(); bucket != "" {
		add(bestMethods(c.stats.YearSuccess, bucket, topN))
	}
	if len(preferred) == 0 {
		return methods
	}

	inInput := make(map[string]bool, len(methods))
	for _, m := range methods {
		inInput[m] = true
	}

	reordered := make([]string, 0, len(methods))
	for _, m := range preferred {
		if inInput[m] {
			reordered = append(reordered, m)
		}
	}
	for _, m := range methods {
		if !seen[m] {
			reordered = append(reordered, m)
		}
	}
	return reordered
}

// Summary returns a human-readable statistics report for the CLI.
func (c *SmartCache) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	rate := 0.0
	if c.stats.TotalAttempts > 0 {
		rate = float64(c.stats.TotalSuccesses) / float64(c.stats.TotalAttempts) * 100
	}

	out := fmt.Sprintf("Attempts: %d\nSuccesses: %d\nSuccess rate: %.1f%%\n",
		c.stats.TotalAttempts, c.stats.TotalSuccesses, rate)

	publishers := make([]string, 0, len(c.stats.PublisherSuccess))
	for p := range c.stats.PublisherSuccess {
		publishers = append(publishers, p)
	}
	sort.Strings(publishers)
	if len(publishers) > 0 {
		out += "Top methods by publisher:\n"
		for _, p := range publishers {
			best := bestMethods(c.stats.PublisherSuccess, p, 1)
			if len(best) > 0 {
				out += fmt.Sprintf("  %s: %s (%d successes)\n", p, best[0], c.stats.PublisherSuccess[p][best[0]])
			}
		}
	}
	return out
}

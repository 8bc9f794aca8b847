package store

import "sync"

// stageCounter is the cached version and prompt count of one stage.
type stageCounter struct {
	version int
	count   int
}

// CounterCache holds per-(project, stage) version and prompt counts so that
// repeated saves in one run do not rescan the record store. It is safe for
// concurrent use. One cache is shared by every Versioned store that writes
// the same records.
type CounterCache struct {
	mu       sync.RWMutex
	projects map[string]map[int]stageCounter
}

// NewCounterCache creates an empty cache.
func NewCounterCache() *CounterCache {
	return &CounterCache{projects: make(map[string]map[int]stageCounter)}
}

// Get returns the cached counters for a stage.
func (c *CounterCache) Get(projectID string, stage int) (version, count int, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sc, ok := c.projects[projectID][stage]
	return sc.version, sc.count, ok
}

// Set records the counters for a stage after a completed save or read.
func (c *CounterCache) Set(projectID string, stage, version, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stages, ok := c.projects[projectID]
	if !ok {
		stages = make(map[int]stageCounter)
		c.projects[projectID] = stages
	}
	stages[stage] = stageCounter{version: version, count: count}
}

// Invalidate drops every cached counter of a project.
func (c *CounterCache) Invalidate(projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.projects, projectID)
}

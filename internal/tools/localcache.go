package tools

import "sync"

// localCache is the in-process stand-in used when the remote cache tools are
// unavailable. It is bounded by entry count, evicting the oldest insertion
// once full, so a sustained toolbox outage cannot grow it without limit.
//
// Entries written here are never reconciled back to the remote store; once
// the toolbox recovers they stay invisible to it until rewritten.
type localCache struct {
	mu      sync.Mutex
	entries map[string]string
	order   []string
	max     int
}

func newLocalCache(max int) *localCache {
	if max <= 0 {
		max = 1024
	}
	return &localCache{
		entries: make(map[string]string),
		max:     max,
	}
}

func (c *localCache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		if len(c.order) >= c.max {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = value
}

func (c *localCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *localCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

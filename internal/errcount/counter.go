package errcount

import (
	"maps"
	"sync"
)

// Counter maps a domain to its consecutive failure count.
type Counter struct {
	mutex  sync.Mutex
	counts map[string]int
}

func NewCounter(initial map[string]int) *Counter {
	counts := make(map[string]int, len(initial))
	for domain, n := range initial {
		if n < 0 {
			n = 0
		}
		counts[domain] = n
	}
	return &Counter{counts: counts}
}

// Record applies one probe outcome and returns the domain's new count.
func (c *Counter) Record(domain string, success bool) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if success {
		c.counts[domain] = 0
	} else {
		c.counts[domain]++
	}
	return c.counts[domain]
}

func (c *Counter) Get(domain string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.counts[domain]
}

// Snapshot copies the current counts. Domains are never dropped.
func (c *Counter) Snapshot() map[string]int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return maps.Clone(c.counts)
}

func (c *Counter) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.counts)
}

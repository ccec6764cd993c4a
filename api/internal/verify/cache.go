package verify

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// SessionCache maps fingerprints to verdicts within one logical session.
// Concurrent requests for the same fingerprint coalesce: the second waits
// for the first's result instead of starting a divergent orchestration.
// Entries live until the session is dropped; growth within a session is
// unbounded by contract.
type SessionCache struct {
	mu      sync.RWMutex
	entries map[Fingerprint]CacheEntry
	flight  singleflight.Group
}

func NewSessionCache() *SessionCache {
	return &SessionCache{entries: make(map[Fingerprint]CacheEntry)}
}

func (c *SessionCache) Get(fp Fingerprint) (Verdict, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[fp]
	return e.Verdict, ok
}

// Put overwrites any existing entry for fp.
func (c *SessionCache) Put(fp Fingerprint, v Verdict) {
	c.mu.Lock()
	c.entries[fp] = CacheEntry{Fingerprint: fp, Verdict: v, CreatedAt: time.Now()}
	c.mu.Unlock()
}

func (c *SessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

type computed struct {
	verdict Verdict
	cached  bool
}

// GetOrCompute returns the cached verdict for fp, or runs compute exactly
// once per fingerprint even under concurrency and caches its result.
// Errors are never cached. The bool reports whether the verdict came from
// the cache.
func (c *SessionCache) GetOrCompute(fp Fingerprint, compute func() (Verdict, error)) (Verdict, bool, error) {
	if v, ok := c.Get(fp); ok {
		return v, true, nil
	}
	res, err, _ := c.flight.Do(string(fp), func() (any, error) {
		if v, ok := c.Get(fp); ok {
			return computed{verdict: v, cached: true}, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.Put(fp, v)
		return computed{verdict: v}, nil
	})
	if err != nil {
		return Verdict{}, false, err
	}
	r := res.(computed)
	return r.verdict, r.cached, nil
}

// Sessions keys caches by a caller-supplied correlation id so verdicts
// never leak across sessions.
type Sessions struct {
	mu sync.Mutex
	m  map[string]*SessionCache
}

func NewSessions() *Sessions {
	return &Sessions{m: make(map[string]*SessionCache)}
}

// Get returns the session's cache, creating it on first use.
func (s *Sessions) Get(sessionID string) *SessionCache {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.m[sessionID]
	if !ok {
		c = NewSessionCache()
		s.m[sessionID] = c
	}
	return c
}

// Drop tears a session down, discarding its verdicts.
func (s *Sessions) Drop(sessionID string) {
	s.mu.Lock()
	delete(s.m, sessionID)
	s.mu.Unlock()
}

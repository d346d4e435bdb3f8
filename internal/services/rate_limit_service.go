package services

import (
	"sync"
	"time"
)

// RateLimitStore tracks request counts per key within fixed windows. A key's
// window is anchored at its first hit and expires one window length later.
// Implementations must be safe for concurrent use.
type RateLimitStore interface {
	// Increment records a hit for key and returns the count after the
	// hit plus the start of the window it fell in. A key with no live
	// window opens one starting at now.
	Increment(key string, now time.Time, window time.Duration) (count int, windowStart time.Time)
	// Count returns the current hit count for key without recording
	// anything. An expired window counts as zero.
	Count(key string, now time.Time, window time.Duration) int
	// Cleanup drops windows that started before cutoff and returns
	// how many entries were removed.
	Cleanup(cutoff time.Time) int
}

// RateLimitConfig holds fixed-window rate limiting configuration
type RateLimitConfig struct {
	MaxRequests int           // Max requests per key per window
	Window      time.Duration // Window length
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 60,
		Window:      1 * time.Minute,
	}
}

// RateLimitService enforces per-client fixed-window rate limits
type RateLimitService struct {
	config RateLimitConfig
	store  RateLimitStore
	now    func() time.Time
}

// NewRateLimitService creates a new rate limit service backed by an
// in-memory store
func NewRateLimitService(config RateLimitConfig) *RateLimitService {
	if config.MaxRequests <= 0 {
		config.MaxRequests = DefaultRateLimitConfig().MaxRequests
	}
	if config.Window <= 0 {
		config.Window = DefaultRateLimitConfig().Window
	}
	return &RateLimitService{
		config: config,
		store:  NewMemoryRateLimitStore(),
		now:    time.Now,
	}
}

// NewRateLimitServiceWithStore creates a rate limit service with a
// custom store and clock. A nil now falls back to time.Now.
func NewRateLimitServiceWithStore(config RateLimitConfig, store RateLimitStore, now func() time.Time) *RateLimitService {
	s := NewRateLimitService(config)
	if store != nil {
		s.store = store
	}
	if now != nil {
		s.now = now
	}
	return s
}

// Check records a hit for key and returns a RateLimitError if the key
// has exceeded the window's budget. The window is anchored at the key's
// first request, so the budget resets one window length after that hit,
// not at a clock boundary. The hit that crosses the limit is still
// counted, so repeated calls keep failing until the window expires.
func (s *RateLimitService) Check(key string) error {
	now := s.now()
	count, start := s.store.Increment(key, now, s.config.Window)

	if count > s.config.MaxRequests {
		retryAfter := start.Add(s.config.Window).Sub(now)
		seconds := int(retryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		return &RateLimitError{RetryAfterSeconds: seconds}
	}

	return nil
}

// IsRateLimited reports whether key has already exhausted its current
// window without recording a hit
func (s *RateLimitService) IsRateLimited(key string) bool {
	return s.store.Count(key, s.now(), s.config.Window) >= s.config.MaxRequests
}

// CleanupExpired removes windows that have already expired and returns
// how many entries were dropped
func (s *RateLimitService) CleanupExpired() int {
	cutoff := s.now().Add(-s.config.Window)
	return s.store.Cleanup(cutoff)
}

type windowEntry struct {
	start time.Time
	count int
}

// MemoryRateLimitStore is the default process-local store
type MemoryRateLimitStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
}

// NewMemoryRateLimitStore creates an empty in-memory store
func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{
		entries: make(map[string]*windowEntry),
	}
}

// Increment records a hit for key, opening a fresh window anchored at
// now when none is live
func (m *MemoryRateLimitStore) Increment(key string, now time.Time, window time.Duration) (int, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || !now.Before(entry.start.Add(window)) {
		entry = &windowEntry{start: now}
		m.entries[key] = entry
	}
	entry.count++
	return entry.count, entry.start
}

// Count returns the current hit count for key's live window
func (m *MemoryRateLimitStore) Count(key string, now time.Time, window time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || !now.Before(entry.start.Add(window)) {
		return 0
	}
	return entry.count
}

// Cleanup drops entries whose window started before cutoff
func (m *MemoryRateLimitStore) Cleanup(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.entries {
		if entry.start.Before(cutoff) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

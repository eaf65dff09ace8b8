// Package handle caches the single currently open resource of an
// orchestrator or dispatcher instance. It is a one-slot cache, not a pool:
// putting a handle for a new key always closes the previous handle first,
// and the close-before-open transition happens exactly once per switch.
package handle

import "io"

// Stats counts slot activity. A hit means a request reused the cached
// handle; a miss means the caller had to open a new resource.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Closes uint64 `json:"closes"`
}

// Slot holds at most one open resource, identified by a key such as a
// resolved path or a cell id. The zero value is an empty slot. Slot is not
// safe for concurrent use; each orchestrator instance owns its own.
type Slot[T io.Closer] struct {
	key   string
	value T
	open  bool
	stats Stats
}

// Get returns the cached resource if it is open for the given key.
func (s *Slot[T]) Get(key string) (T, bool) {
	if s.open && s.key == key {
		s.stats.Hits++
		return s.value, true
	}
	s.stats.Misses++
	var zero T
	return zero, false
}

// Put closes any previously cached resource and stores the new one. The
// old handle is closed even when the key is unchanged, so callers should
// Get first. A close failure is reported but the new handle is cached
// regardless; the slot never leaks the old handle.
func (s *Slot[T]) Put(key string, value T) error {
	err := s.Close()
	s.key = key
	s.value = value
	s.open = true
	return err
}

// Current returns the cached resource without touching the hit counters.
func (s *Slot[T]) Current() (T, bool) {
	if !s.open {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Key returns the key of the cached resource, or "" when empty.
func (s *Slot[T]) Key() string {
	if !s.open {
		return ""
	}
	return s.key
}

// Open reports whether the slot holds a resource.
func (s *Slot[T]) Open() bool {
	return s.open
}

// Close releases the cached resource. Closing an empty slot is a no-op, so
// Close is idempotent.
func (s *Slot[T]) Close() error {
	if !s.open {
		return nil
	}
	err := s.value.Close()
	var zero T
	s.value = zero
	s.open = false
	s.stats.Closes++
	return err
}

// Drop forgets the cached resource without closing it. Used when the
// underlying open failed and the handle was never usable.
func (s *Slot[T]) Drop() {
	var zero T
	s.value = zero
	s.open = false
	s.key = ""
}

// Stats returns a copy of the slot counters.
func (s *Slot[T]) Stats() Stats {
	return s.stats
}

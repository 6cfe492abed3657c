package store

import (
	"errors"
	"strings"

	"github.com/ValentinKolb/maxstore/lib/entry"
)

// registry is the ordered, duplicate free list of physical keys written by a store.
type registry struct {
	keys  []string
	index map[string]struct{}
}

func newRegistry(keys []string) *registry {
	r := &registry{
		keys:  make([]string, 0, len(keys)),
		index: make(map[string]struct{}, len(keys)),
	}
	for _, k := range keys {
		r.add(k)
	}
	return r
}

// add appends key unless it is already listed. It reports whether the registry changed.
func (r *registry) add(key string) bool {
	if _, ok := r.index[key]; ok {
		return false
	}
	r.index[key] = struct{}{}
	r.keys = append(r.keys, key)
	return true
}

// remove drops key, keeping the order of the others. It reports whether the registry changed.
func (r *registry) remove(key string) bool {
	if _, ok := r.index[key]; !ok {
		return false
	}
	delete(r.index, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
	return true
}

func (r *registry) has(key string) bool {
	_, ok := r.index[key]
	return ok
}

func (r *registry) len() int {
	return len(r.keys)
}

func (r *registry) snapshot() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// --------------------------------------------------------------------------
// Persistence
// --------------------------------------------------------------------------

// loadRegistry reads the registry entry, persisting an empty one if it is absent.
func (s *Store) loadRegistry() (*registry, error) {
	regKey := s.registryKey()

	raw, ok, err := s.medium.Get(regKey)
	if err != nil {
		return nil, wrapError(RetCStorageUnavailable, "failed to read registry", err)
	}

	if !ok {
		reg := newRegistry(nil)
		if err := s.writeRegistry(reg); err != nil {
			return nil, wrapError(RetCStorageUnavailable, "failed to initialize registry", err)
		}
		return reg, nil
	}

	e, err := entry.Decode(raw)
	if err != nil {
		return nil, wrapError(RetCStorageUnavailable, "malformed registry entry", err)
	}
	var keys []string
	if err := e.Unmarshal(&keys); err != nil {
		return nil, wrapError(RetCStorageUnavailable, "registry entry is not a list of keys", err)
	}

	reg := newRegistry(nil)
	for _, k := range keys {
		if k != regKey {
			reg.add(k)
		}
	}
	return reg, nil
}

// writeRegistry persists reg under the registry key. The registry never expires.
func (s *Store) writeRegistry(reg *registry) error {
	raw, err := entry.Encode(reg.keys, 0, s.clock)
	if err != nil {
		return err
	}
	return s.medium.Set(s.registryKey(), raw)
}

// track adds phys to the registry and persists it on every tracked write, so a
// registry entry wiped by Clear is restored with the next write.
// On a failed write a newly added key is rolled back.
func (s *Store) track(phys string) error {
	added := s.registry.add(phys)
	if err := s.writeRegistry(s.registry); err != nil {
		if added {
			s.registry.remove(phys)
		}
		return err
	}
	s.metrics.registrySize(s.registry.len())
	return nil
}

// untrack removes phys from the registry and persists it if it changed.
// On a failed write the previous registry is restored.
func (s *Store) untrack(phys string) error {
	prev := s.registry.snapshot()
	if !s.registry.remove(phys) {
		return nil
	}
	if err := s.writeRegistry(s.registry); err != nil {
		s.registry = newRegistry(prev)
		return err
	}
	s.metrics.registrySize(s.registry.len())
	return nil
}

// --------------------------------------------------------------------------
// Registry backed operations
// --------------------------------------------------------------------------

// Keys returns the logical keys of all live registered entries in registry order.
// Expired entries are removed on the way and keys whose entry has disappeared from
// the medium are dropped from the registry. The registry is persisted at most once.
func (s *Store) Keys() ([]string, error) {
	s.metrics.op(opKeys)

	now := s.clock()
	keys := make([]string, 0, s.registry.len())
	changed := false

	for _, phys := range s.registry.snapshot() {
		raw, ok, err := s.medium.Get(phys)
		if err != nil {
			return keys, err
		}

		if !ok {
			Logger.Debugf("dropping %q from registry: entry is gone", phys)
			s.registry.remove(phys)
			changed = true
			continue
		}

		e, err := entry.Decode(raw)
		if err != nil {
			Logger.Warningf("registered entry %q is malformed: %v", phys, err)
		} else if e.Expired(now) {
			if err := s.medium.Remove(phys); err != nil {
				return keys, err
			}
			Logger.Debugf("evicted expired entry %q", phys)
			s.metrics.expired()
			s.registry.remove(phys)
			changed = true
			continue
		}

		keys = append(keys, strings.TrimPrefix(phys, s.ns))
	}

	if changed {
		s.metrics.registrySize(s.registry.len())
		if err := s.writeRegistry(s.registry); err != nil {
			return keys, err
		}
	}
	return keys, nil
}

// RegisteredKeys returns a copy of the registry: the physical keys of all entries
// written through this store and not yet removed. It performs no I/O.
func (s *Store) RegisteredKeys() []string {
	return s.registry.snapshot()
}

// Len returns the number of registered keys.
func (s *Store) Len() int {
	return s.registry.len()
}

// RemoveAll removes every registered entry and empties the registry. Unlike Clear it
// leaves entries of other namespaces and untracked writes alone. Keys that could not be
// removed stay registered. It returns the number of removed entries.
func (s *Store) RemoveAll() (int, error) {
	s.metrics.op(opRemoveAll)

	var errs []error
	removed := 0
	for _, phys := range s.registry.snapshot() {
		if err := s.medium.Remove(phys); err != nil {
			errs = append(errs, err)
			continue
		}
		s.registry.remove(phys)
		removed++
	}

	s.metrics.registrySize(s.registry.len())
	if removed > 0 {
		if err := s.writeRegistry(s.registry); err != nil {
			errs = append(errs, err)
		}
	}
	return removed, errors.Join(errs...)
}

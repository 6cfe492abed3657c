package store

import (
	"encoding/json"
	"time"

	"github.com/ValentinKolb/maxstore/lib/entry"
)

// Scope is what an Interceptor sees and returns.
type Scope struct {
	Namespace string
}

// Interceptor chooses the namespace for a single write. Writes that go through an
// interceptor are not added to the registry.
type Interceptor func(Scope) Scope

// RemoveCallback is called with the logical key after an entry was removed.
type RemoveCallback func(key string)

// Item describes a single write.
type Item struct {
	Key   string
	Value any
	// Expire is the time to live. Zero or negative values store a permanent entry.
	Expire time.Duration
	// Interceptor, if set, redirects the write to another namespace (untracked).
	Interceptor Interceptor
	// Callback, if set, is called with Value once the write has completed.
	Callback func(value any)
}

// Handle refers to the physical entry produced by SetItem.
type Handle struct {
	// Key is the physical key the entry was written under.
	Key string
	// LogicalKey is the key as given by the caller.
	LogicalKey string
	// Tracked reports whether the entry was added to the registry.
	Tracked bool

	store *Store
	item  Item
}

// Remove deletes exactly the entry this handle refers to. It reports whether an
// entry was present.
func (h *Handle) Remove() (bool, error) {
	h.store.metrics.op(opRemove)
	return h.store.removePhysical(h.Key)
}

// PrevSet repeats the write that produced this handle under the same physical key.
// A TTL is applied again relative to the current time.
func (h *Handle) PrevSet() (*Handle, error) {
	return h.store.write(h.Key, h.Tracked, h.item)
}

// --------------------------------------------------------------------------
// Single entry operations
// --------------------------------------------------------------------------

// SetItem encodes item and writes it to the medium. Tracked writes (no interceptor)
// add the physical key to the registry once the value is written; medium errors are
// returned unchanged and leave the registry untouched.
func (s *Store) SetItem(item Item) (*Handle, error) {
	if item.Interceptor != nil {
		return s.setUntracked(item)
	}
	return s.write(physicalKey(s.ns, item.Key), true, item)
}

// setUntracked writes item into the namespace chosen by its interceptor.
func (s *Store) setUntracked(item Item) (*Handle, error) {
	scope := item.Interceptor(Scope{Namespace: s.ns})
	return s.write(physicalKey(scope.Namespace, item.Key), false, item)
}

func (s *Store) write(phys string, tracked bool, item Item) (*Handle, error) {
	s.metrics.op(opSet)

	if err := s.checkWritable(phys); err != nil {
		return nil, err
	}

	raw, err := entry.Encode(item.Value, item.Expire, s.clock)
	if err != nil {
		return nil, err
	}
	if err := s.medium.Set(phys, raw); err != nil {
		return nil, err
	}

	if tracked {
		if err := s.track(phys); err != nil {
			return nil, err
		}
	}

	if item.Callback != nil {
		item.Callback(item.Value)
	}

	return &Handle{
		Key:        phys,
		LogicalKey: item.Key,
		Tracked:    tracked,
		store:      s,
		item:       item,
	}, nil
}

// GetItem returns the raw JSON value stored for key. The boolean is false if the key
// is absent or its entry has expired; an expired entry is removed from the medium and
// the registry before returning. Malformed entries return an entry.DecodeError.
func (s *Store) GetItem(key string) (json.RawMessage, bool, error) {
	s.metrics.op(opGet)
	phys := physicalKey(s.ns, key)

	raw, ok, err := s.medium.Get(phys)
	if err != nil || !ok {
		return nil, false, err
	}

	e, err := entry.Decode(raw)
	if err != nil {
		Logger.Warningf("entry %q is malformed: %v", phys, err)
		return nil, false, err
	}

	if e.Expired(s.clock()) {
		Logger.Debugf("evicting expired entry %q", phys)
		s.metrics.expired()
		if err := s.medium.Remove(phys); err != nil {
			return nil, false, err
		}
		return nil, false, s.untrack(phys)
	}

	return e.Value, true, nil
}

// Get reads key from s and decodes the value into T.
func Get[T any](s *Store, key string) (T, bool, error) {
	var out T
	raw, ok, err := s.GetItem(key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := (entry.Entry{Value: raw}).Unmarshal(&out); err != nil {
		return out, false, err
	}
	return out, true, nil
}

// RemoveItem deletes key if it is present and drops it from the registry. The callback
// (optional) is called only if an entry was removed, so a second call is a no-op.
func (s *Store) RemoveItem(key string, cb RemoveCallback) (bool, error) {
	s.metrics.op(opRemove)

	removed, err := s.removePhysical(physicalKey(s.ns, key))
	if err != nil {
		return false, err
	}
	if removed && cb != nil {
		cb(key)
	}
	return removed, nil
}

// removePhysical deletes phys if present and prunes it from the registry, also when
// the entry was already gone.
func (s *Store) removePhysical(phys string) (bool, error) {
	if err := s.checkWritable(phys); err != nil {
		return false, err
	}

	_, ok, err := s.medium.Get(phys)
	if err != nil {
		return false, err
	}
	if ok {
		if err := s.medium.Remove(phys); err != nil {
			return false, err
		}
	}

	if err := s.untrack(phys); err != nil {
		return ok, err
	}
	return ok, nil
}

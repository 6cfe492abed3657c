package store

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/ValentinKolb/maxstore/lib/entry"
)

// RemoveEntry names a key for RemoveItems with an optional callback.
type RemoveEntry struct {
	Key      string
	Callback RemoveCallback
}

// GetItemsSequence returns the values of keys in input order. Missing and expired
// keys are skipped. It stops at the first error and returns what it read so far.
func (s *Store) GetItemsSequence(keys []string) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(keys))
	for _, k := range keys {
		v, ok, err := s.GetItem(k)
		if err != nil {
			return out, err
		}
		if ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// GetItemsMapping is GetItemsSequence with the values keyed by their logical key.
func (s *Store) GetItemsMapping(keys []string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		v, ok, err := s.GetItem(k)
		if err != nil {
			return out, err
		}
		if ok {
			out[k] = v
		}
	}
	return out, nil
}

// GetSequence is GetItemsSequence with every value decoded into T.
func GetSequence[T any](s *Store, keys []string) ([]T, error) {
	raws, err := s.GetItemsSequence(keys)
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if uerr := (entry.Entry{Value: raw}).Unmarshal(&v); uerr != nil {
			return out, uerr
		}
		out = append(out, v)
	}
	return out, err
}

// GetMapping is GetItemsMapping with every value decoded into T.
func GetMapping[T any](s *Store, keys []string) (map[string]T, error) {
	raws, err := s.GetItemsMapping(keys)
	out := make(map[string]T, len(raws))
	for k, raw := range raws {
		var v T
		if uerr := (entry.Entry{Value: raw}).Unmarshal(&v); uerr != nil {
			return out, uerr
		}
		out[k] = v
	}
	return out, err
}

// SetItemsSequence writes items in order and returns their handles keyed by logical
// key. It stops at the first failing write and returns the handles collected so far.
func (s *Store) SetItemsSequence(items []Item) (map[string]*Handle, error) {
	handles := make(map[string]*Handle, len(items))
	for _, item := range items {
		h, err := s.SetItem(item)
		if err != nil {
			return handles, err
		}
		handles[item.Key] = h
	}
	return handles, nil
}

// SetItemsMapping writes permanent, tracked entries for every key of values in
// sorted key order.
func (s *Store) SetItemsMapping(values map[string]any) (map[string]*Handle, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]Item, 0, len(keys))
	for _, k := range keys {
		items = append(items, Item{Key: k, Value: values[k]})
	}
	return s.SetItemsSequence(items)
}

// RemoveItems calls RemoveItem for every entry. A failure on one entry does not stop
// the others; all failures are joined. It returns the number of removed entries.
func (s *Store) RemoveItems(entries []RemoveEntry) (int, error) {
	var errs []error
	removed := 0
	for _, e := range entries {
		ok, err := s.RemoveItem(e.Key, e.Callback)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			removed++
		}
	}
	return removed, errors.Join(errs...)
}

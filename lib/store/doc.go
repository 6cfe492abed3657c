// Package store provides a namespaced key-value store with per-entry expiration on top
// of a medium.IMedium.
//
// Every logical key is stored under namespace+key. Values are encoded with the entry
// package as {"value":...,"expire":...}; an entry whose deadline has passed is treated
// as absent and removed the next time it is read (there is no background sweep).
//
// Key Components:
//
//   - Store: the facade. It owns the namespace, the clock and the registry mirror.
//     A Store is not safe for concurrent use.
//
//   - Registry: the ordered list of physical keys written through the store and not yet
//     removed. It is persisted as an ordinary entry under the logical key UNI_KEYS_ARRAY
//     and loaded once in New. Writes that go through an Interceptor bypass it.
//
//   - Error System: store.Error carries a RetCode. Errors of the medium and the entry
//     codec are passed through unchanged, so errors.Is(err, medium.ErrQuotaExceeded)
//     and errors.Is(err, entry.ErrDecode) work on the results of store operations.
//
// Clear removes every key of the medium, not only those of the namespace. RemoveAll
// is the namespace scoped variant.
//
// Example:
//
//	s, err := store.New(memory.NewMemoryMedium(nil), store.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	h, err := s.SetItem(store.Item{Key: "session", Value: token, Expire: time.Hour})
//	...
//	token, ok, err := store.Get[string](s, "session")
package store

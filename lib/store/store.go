package store

import (
	"fmt"

	"github.com/ValentinKolb/maxstore/lib/entry"
	"github.com/ValentinKolb/maxstore/lib/medium"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("store")

const (
	// DefaultNamespace is used when no namespace is configured.
	DefaultNamespace = "_MAXSTORAGE_"
	// RegistryKey is the reserved logical key the registry is persisted under.
	RegistryKey = "UNI_KEYS_ARRAY"
)

// Options configures a Store during initialization
type Options struct {
	// Namespace prefixes every logical key. An empty namespace selects DefaultNamespace.
	Namespace string
	// Clock is used for TTL deadlines and expiry checks.
	Clock entry.Clock
}

// DefaultOptions returns the default store options
func DefaultOptions() *Options {
	return &Options{
		Namespace: DefaultNamespace,
		Clock:     entry.SystemClock,
	}
}

// Store is a namespaced view of a medium with per-entry TTL and a registry of
// every key written through it.
//
// A Store is not safe for concurrent use. Two stores on the same medium and
// namespace each keep their own registry mirror, which may diverge.
type Store struct {
	medium   medium.IMedium
	ns       string
	clock    entry.Clock
	registry *registry
	metrics  *storeMetrics
}

// New creates a store over m and loads its registry. If the registry entry does not
// exist yet an empty one is persisted. Failing to read or write the registry returns
// an error with code RetCStorageUnavailable.
func New(m medium.IMedium, opts *Options) (*Store, error) {
	if m == nil {
		return nil, NewError(RetCStorageUnavailable, "no medium given")
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	s := &Store{
		medium: m,
		ns:     opts.Namespace,
		clock:  opts.Clock,
	}
	if s.ns == "" {
		s.ns = DefaultNamespace
	}
	if s.clock == nil {
		s.clock = entry.SystemClock
	}
	s.metrics = newStoreMetrics(s.ns)

	reg, err := s.loadRegistry()
	if err != nil {
		return nil, err
	}
	s.registry = reg
	s.metrics.registrySize(reg.len())

	Logger.Debugf("store for namespace %q loaded with %d registered keys", s.ns, reg.len())
	return s, nil
}

// Namespace returns the namespace of the store.
func (s *Store) Namespace() string {
	return s.ns
}

// Clear removes every key of the underlying medium, including entries of other
// namespaces and the registry entry itself. The in-memory registry is left as it is
// and is written back on the next tracked write; Keys drops the wiped entries from it. Use RemoveAll to clear only the
// entries of this store.
func (s *Store) Clear() error {
	s.metrics.op(opClear)
	Logger.Warningf("clearing the whole medium from namespace %q", s.ns)
	return s.medium.Clear()
}

// physicalKey returns the key under which key is stored in namespace ns.
func physicalKey(ns, key string) string {
	return ns + key
}

func (s *Store) registryKey() string {
	return physicalKey(s.ns, RegistryKey)
}

// checkWritable refuses writes and removals that would clobber the registry entry.
func (s *Store) checkWritable(phys string) error {
	if phys == s.registryKey() {
		return NewError(RetCInvalidOperation, fmt.Sprintf("key %q is reserved for the registry", phys))
	}
	return nil
}

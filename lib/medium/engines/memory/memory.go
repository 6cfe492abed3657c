package memory

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/maxstore/lib/medium"
	"github.com/puzpuzpuz/xsync/v3"
)

// Options configures the memory medium during initialization
type Options struct {
	// QuotaBytes limits the summed length of all keys and values (0 = unlimited).
	QuotaBytes int
}

// DefaultOptions returns the default memory medium options
func DefaultOptions() *Options {
	return &Options{
		QuotaBytes: 0,
	}
}

// memoryImpl implements medium.IMedium on top of a concurrent map
type memoryImpl struct {
	data   *xsync.MapOf[string, string]
	quota  int
	used   atomic.Int64
	closed atomic.Bool

	// writeMu serializes quota accounting for writes; reads never take it
	writeMu sync.Mutex
}

// NewMemoryMedium creates a new in-memory medium with the specified options (optional)
func NewMemoryMedium(opts *Options) medium.IMedium {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &memoryImpl{
		data:  xsync.NewMapOf[string, string](),
		quota: opts.QuotaBytes,
	}
}

// Factory returns a medium.Factory creating memory mediums with the given options
func Factory(opts *Options) medium.Factory {
	return func() (medium.IMedium, error) {
		return NewMemoryMedium(opts), nil
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see medium.IMedium)
// --------------------------------------------------------------------------

func (m *memoryImpl) Get(key string) (string, bool, error) {
	if m.closed.Load() {
		return "", false, medium.NewError(medium.RetCUnavailable, "memory medium is closed")
	}
	value, ok := m.data.Load(key)
	return value, ok, nil
}

func (m *memoryImpl) Set(key, value string) error {
	if m.closed.Load() {
		return medium.NewError(medium.RetCUnavailable, "memory medium is closed")
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	// size delta of this write
	delta := len(key) + len(value)
	if old, ok := m.data.Load(key); ok {
		delta -= len(key) + len(old)
	}

	if m.quota > 0 && m.used.Load()+int64(delta) > int64(m.quota) {
		return medium.NewError(medium.RetCQuotaExceeded,
			fmt.Sprintf("setting %q would exceed the quota of %d bytes", key, m.quota))
	}

	m.data.Store(key, value)
	m.used.Add(int64(delta))
	return nil
}

func (m *memoryImpl) Remove(key string) error {
	if m.closed.Load() {
		return medium.NewError(medium.RetCUnavailable, "memory medium is closed")
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if old, loaded := m.data.LoadAndDelete(key); loaded {
		m.used.Add(-int64(len(key) + len(old)))
	}
	return nil
}

func (m *memoryImpl) Clear() error {
	if m.closed.Load() {
		return medium.NewError(medium.RetCUnavailable, "memory medium is closed")
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.data.Clear()
	m.used.Store(0)
	return nil
}

func (m *memoryImpl) Keys() ([]string, error) {
	if m.closed.Load() {
		return nil, medium.NewError(medium.RetCUnavailable, "memory medium is closed")
	}
	keys := make([]string, 0, m.data.Size())
	m.data.Range(func(key string, _ string) bool {
		keys = append(keys, key)
		return true
	})
	return keys, nil
}

func (m *memoryImpl) Close() error {
	m.closed.Store(true)
	return nil
}

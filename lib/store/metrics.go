package store

import (
	"fmt"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	opSet       = "set"
	opGet       = "get"
	opRemove    = "remove"
	opClear     = "clear"
	opKeys      = "keys"
	opRemoveAll = "remove_all"
)

// registrySizes holds the last observed registry size per namespace. Stores on the
// same namespace and medium share one registry entry, so the latest value wins.
var registrySizes = xsync.NewMapOf[string, *atomic.Int64]()

// storeMetrics holds the counters of one namespace. Counters are shared by all
// stores using the same namespace.
type storeMetrics struct {
	ops          map[string]*metrics.Counter
	expiredTotal *metrics.Counter
	registryKeys *atomic.Int64
}

func newStoreMetrics(ns string) *storeMetrics {
	size, loaded := registrySizes.LoadOrStore(ns, new(atomic.Int64))
	if !loaded {
		metrics.GetOrCreateGauge(fmt.Sprintf(`maxstore_store_registry_size{namespace=%q}`, ns), func() float64 {
			return float64(size.Load())
		})
	}

	m := &storeMetrics{
		ops: make(map[string]*metrics.Counter),
		expiredTotal: metrics.GetOrCreateCounter(
			fmt.Sprintf(`maxstore_store_expired_total{namespace=%q}`, ns)),
		registryKeys: size,
	}
	for _, op := range []string{opSet, opGet, opRemove, opClear, opKeys, opRemoveAll} {
		m.ops[op] = metrics.GetOrCreateCounter(
			fmt.Sprintf(`maxstore_store_ops_total{namespace=%q,op=%q}`, ns, op))
	}
	return m
}

func (m *storeMetrics) op(name string) {
	if c, ok := m.ops[name]; ok {
		c.Inc()
	}
}

func (m *storeMetrics) expired() {
	m.expiredTotal.Inc()
}

func (m *storeMetrics) registrySize(n int) {
	m.registryKeys.Store(int64(n))
}

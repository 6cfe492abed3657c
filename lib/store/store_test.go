package store

import (
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/maxstore/lib/entry"
	"github.com/ValentinKolb/maxstore/lib/medium"
	"github.com/ValentinKolb/maxstore/lib/medium/engines/memory"
)

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// fakeClock is a manually advanced clock in Unix milliseconds.
type fakeClock struct {
	now int64
}

func (c *fakeClock) Now() int64 { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now += d.Milliseconds() }

// faultyMedium wraps a medium and fails selected operations.
type faultyMedium struct {
	medium.IMedium
	failGet    error
	failSet    func(key string) error
	failRemove error
}

func (f *faultyMedium) Get(key string) (string, bool, error) {
	if f.failGet != nil {
		return "", false, f.failGet
	}
	return f.IMedium.Get(key)
}

func (f *faultyMedium) Set(key, value string) error {
	if f.failSet != nil {
		if err := f.failSet(key); err != nil {
			return err
		}
	}
	return f.IMedium.Set(key, value)
}

func (f *faultyMedium) Remove(key string) error {
	if f.failRemove != nil {
		return f.failRemove
	}
	return f.IMedium.Remove(key)
}

func newTestStore(t *testing.T, m medium.IMedium, ns string, clock *fakeClock) *Store {
	t.Helper()
	opts := &Options{Namespace: ns}
	if clock != nil {
		opts.Clock = clock.Now
	}
	s, err := New(m, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func mustSet(t *testing.T, s *Store, item Item) *Handle {
	t.Helper()
	h, err := s.SetItem(item)
	if err != nil {
		t.Fatalf("SetItem(%q) failed: %v", item.Key, err)
	}
	return h
}

// physicalNamespaceKeys lists the keys present in m under ns, without the registry entry.
func physicalNamespaceKeys(t *testing.T, m medium.IMedium, ns string) []string {
	t.Helper()
	keys, err := m.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	var out []string
	for _, k := range keys {
		if strings.HasPrefix(k, ns) && k != ns+RegistryKey {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func sorted(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	return out
}

// assertNoDrift checks that the registry and the medium agree, both in memory and
// in the persisted registry entry.
func assertNoDrift(t *testing.T, s *Store, m medium.IMedium) {
	t.Helper()
	physical := strings.Join(physicalNamespaceKeys(t, m, s.Namespace()), ",")

	if mirror := strings.Join(sorted(s.RegisteredKeys()), ","); mirror != physical {
		t.Errorf("registry mirror %q differs from medium %q", mirror, physical)
	}

	reloaded, err := New(m, &Options{Namespace: s.Namespace(), Clock: s.clock})
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if persisted := strings.Join(sorted(reloaded.RegisteredKeys()), ","); persisted != physical {
		t.Errorf("persisted registry %q differs from medium %q", persisted, physical)
	}
}

// --------------------------------------------------------------------------
// Construction
// --------------------------------------------------------------------------

func TestNewInitializesRegistry(t *testing.T) {
	m := memory.NewMemoryMedium(nil)
	s, err := New(m, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if s.Namespace() != DefaultNamespace {
		t.Errorf("Expected default namespace, got %q", s.Namespace())
	}

	raw, ok, _ := m.Get(DefaultNamespace + RegistryKey)
	if !ok {
		t.Fatalf("Expected registry entry to be persisted")
	}
	if raw != `{"value":[]}` {
		t.Errorf("Unexpected registry entry %s", raw)
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty registry, got %d keys", s.Len())
	}
}

func TestNewLoadsExistingRegistry(t *testing.T) {
	m := memory.NewMemoryMedium(nil)
	_ = m.Set("ns:"+RegistryKey, `{"value":["ns:a","ns:b","ns:a","ns:`+RegistryKey+`"]}`)

	s := newTestStore(t, m, "ns:", nil)

	got := strings.Join(s.RegisteredKeys(), ",")
	if got != "ns:a,ns:b" {
		t.Errorf("Expected deduplicated registry without itself, got %q", got)
	}
}

func TestNewFailures(t *testing.T) {
	boom := medium.NewError(medium.RetCUnavailable, "boom")

	tests := []struct {
		name  string
		setup func() medium.IMedium
		cause error
	}{
		{
			name: "Unreadable",
			setup: func() medium.IMedium {
				return &faultyMedium{IMedium: memory.NewMemoryMedium(nil), failGet: boom}
			},
			cause: medium.ErrUnavailable,
		},
		{
			name: "Unwritable",
			setup: func() medium.IMedium {
				return &faultyMedium{
					IMedium: memory.NewMemoryMedium(nil),
					failSet: func(string) error { return medium.ErrQuotaExceeded },
				}
			},
			cause: medium.ErrQuotaExceeded,
		},
		{
			name: "Malformed",
			setup: func() medium.IMedium {
				m := memory.NewMemoryMedium(nil)
				_ = m.Set(DefaultNamespace+RegistryKey, "not json")
				return m
			},
			cause: entry.ErrDecode,
		},
		{
			name: "NotAList",
			setup: func() medium.IMedium {
				m := memory.NewMemoryMedium(nil)
				_ = m.Set(DefaultNamespace+RegistryKey, `{"value":{"a":1}}`)
				return m
			},
			cause: entry.ErrDecode,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.setup(), nil)
			if !errors.Is(err, ErrStorageUnavailable) {
				t.Fatalf("Expected ErrStorageUnavailable, got %v", err)
			}
			if !errors.Is(err, tc.cause) {
				t.Errorf("Expected cause %v, got %v", tc.cause, err)
			}
		})
	}

	if _, err := New(nil, nil); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("Expected ErrStorageUnavailable for nil medium, got %v", err)
	}
}

// --------------------------------------------------------------------------
// Round trip and expiry
// --------------------------------------------------------------------------

func TestRoundTrip(t *testing.T) {
	type user struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	clock := &fakeClock{now: 1_000}
	s := newTestStore(t, memory.NewMemoryMedium(nil), "", clock)

	for _, ttl := range []time.Duration{0, time.Minute} {
		mustSet(t, s, Item{Key: "user", Value: user{"alice", 30}, Expire: ttl})

		got, ok, err := Get[user](s, "user")
		if err != nil || !ok {
			t.Fatalf("ttl=%v: Get failed ok=%v err=%v", ttl, ok, err)
		}
		if got != (user{"alice", 30}) {
			t.Errorf("ttl=%v: unexpected value %+v", ttl, got)
		}
	}

	// falsy values are still values
	mustSet(t, s, Item{Key: "zero", Value: 0})
	if v, ok, _ := Get[int](s, "zero"); !ok || v != 0 {
		t.Errorf("Expected stored zero, got ok=%v v=%d", ok, v)
	}

	if _, ok, err := s.GetItem("missing"); ok || err != nil {
		t.Errorf("Expected missing key to be absent without error, ok=%v err=%v", ok, err)
	}
}

func TestExpiryBoundary(t *testing.T) {
	clock := &fakeClock{now: 10_000}
	m := memory.NewMemoryMedium(nil)
	s := newTestStore(t, m, "A", clock)

	ttl := 5 * time.Second
	mustSet(t, s, Item{Key: "k", Value: "v", Expire: ttl})

	clock.Advance(ttl - time.Millisecond)
	if v, ok, err := Get[string](s, "k"); err != nil || !ok || v != "v" {
		t.Fatalf("Expected value one millisecond before deadline, ok=%v err=%v", ok, err)
	}

	clock.Advance(time.Millisecond)
	if _, ok, err := s.GetItem("k"); ok || err != nil {
		t.Fatalf("Expected absent at the deadline, ok=%v err=%v", ok, err)
	}

	if _, ok, _ := m.Get("Ak"); ok {
		t.Errorf("Expected physical entry to be removed after expiry")
	}
	if s.Len() != 0 {
		t.Errorf("Expected registry to drop expired key, got %v", s.RegisteredKeys())
	}
	assertNoDrift(t, s, m)
}

func TestExpiredEntryEvictionFailure(t *testing.T) {
	clock := &fakeClock{}
	fm := &faultyMedium{IMedium: memory.NewMemoryMedium(nil)}
	s := newTestStore(t, fm, "", clock)

	mustSet(t, s, Item{Key: "k", Value: 1, Expire: time.Second})
	clock.Advance(time.Second)

	fm.failRemove = medium.ErrUnavailable
	if _, ok, err := s.GetItem("k"); ok || !errors.Is(err, medium.ErrUnavailable) {
		t.Errorf("Expected eviction error to propagate, ok=%v err=%v", ok, err)
	}
}

func TestMalformedEntrySurfaces(t *testing.T) {
	m := memory.NewMemoryMedium(nil)
	s := newTestStore(t, m, "", nil)
	_ = m.Set(DefaultNamespace+"broken", "{{{")

	_, ok, err := s.GetItem("broken")
	if ok || !errors.Is(err, entry.ErrDecode) {
		t.Errorf("Expected ErrDecode, got ok=%v err=%v", ok, err)
	}

	mustSet(t, s, Item{Key: "text", Value: "abc"})
	if _, _, err := Get[int](s, "text"); !errors.Is(err, entry.ErrDecode) {
		t.Errorf("Expected ErrDecode for type mismatch, got %v", err)
	}
}

// --------------------------------------------------------------------------
// Namespaces and interceptors
// --------------------------------------------------------------------------

func TestNamespaceIsolation(t *testing.T) {
	m := memory.NewMemoryMedium(nil)
	a := newTestStore(t, m, "A", nil)
	b := newTestStore(t, m, "B", nil)

	mustSet(t, a, Item{Key: "k", Value: 1})

	if _, ok, _ := b.GetItem("k"); ok {
		t.Errorf("Store B must not see keys of store A")
	}
	if removed, _ := b.RemoveItem("k", nil); removed {
		t.Errorf("Store B must not remove keys of store A")
	}
	if v, ok, _ := Get[int](a, "k"); !ok || v != 1 {
		t.Errorf("Store A lost its key")
	}
}

func TestInterceptorEscapeHatch(t *testing.T) {
	m := memory.NewMemoryMedium(nil)
	s := newTestStore(t, m, "", nil)

	var seen Scope
	h := mustSet(t, s, Item{
		Key:   "k",
		Value: 1,
		Interceptor: func(scope Scope) Scope {
			seen = scope
			return Scope{Namespace: "OTHER_"}
		},
	})

	if seen.Namespace != DefaultNamespace {
		t.Errorf("Interceptor should see the store namespace, got %q", seen.Namespace)
	}
	if h.Key != "OTHER_k" || h.Tracked {
		t.Errorf("Unexpected handle %+v", h)
	}
	if _, ok, _ := m.Get("OTHER_k"); !ok {
		t.Errorf("Expected entry under OTHER_k")
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 0 || s.Len() != 0 {
		t.Errorf("Interceptor write must not be registered, got %v", s.RegisteredKeys())
	}

	// the handle still removes the foreign entry
	if removed, err := h.Remove(); !removed || err != nil {
		t.Errorf("Handle.Remove failed: removed=%v err=%v", removed, err)
	}
	if _, ok, _ := m.Get("OTHER_k"); ok {
		t.Errorf("Expected OTHER_k to be removed")
	}
}

func TestReservedRegistryKey(t *testing.T) {
	m := memory.NewMemoryMedium(nil)
	s := newTestStore(t, m, "", nil)

	if _, err := s.SetItem(Item{Key: RegistryKey, Value: []string{"x"}}); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation, got %v", err)
	}

	intercepted := Item{
		Key:         RegistryKey,
		Value:       1,
		Interceptor: func(scope Scope) Scope { return scope },
	}
	if _, err := s.SetItem(intercepted); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation through interceptor, got %v", err)
	}

	if _, err := s.RemoveItem(RegistryKey, nil); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation on remove, got %v", err)
	}

	if raw, _, _ := m.Get(DefaultNamespace + RegistryKey); raw != `{"value":[]}` {
		t.Errorf("Registry entry was modified: %s", raw)
	}
}

// --------------------------------------------------------------------------
// Write path
// --------------------------------------------------------------------------

func TestSetItemCallbackOrder(t *testing.T) {
	m := memory.NewMemoryMedium(nil)
	s := newTestStore(t, m, "", nil)

	called := 0
	mustSet(t, s, Item{
		Key:   "k",
		Value: "v",
		Callback: func(value any) {
			called++
			if value != "v" {
				t.Errorf("Callback got %v", value)
			}
			if _, ok, _ := m.Get(DefaultNamespace + "k"); !ok {
				t.Errorf("Callback fired before the value was written")
			}
			if !s.registry.has(DefaultNamespace + "k") {
				t.Errorf("Callback fired before the key was registered")
			}
		},
	})

	if called != 1 {
		t.Errorf("Expected one callback, got %d", called)
	}
}

func TestSetItemFailureLeavesRegistry(t *testing.T) {
	fm := &faultyMedium{IMedium: memory.NewMemoryMedium(nil)}
	s := newTestStore(t, fm, "", nil)

	fm.failSet = func(key string) error {
		if key == DefaultNamespace+"big" {
			return medium.ErrQuotaExceeded
		}
		return nil
	}

	called := false
	_, err := s.SetItem(Item{Key: "big", Value: "x", Callback: func(any) { called = true }})
	if !errors.Is(err, medium.ErrQuotaExceeded) {
		t.Fatalf("Expected quota error unchanged, got %v", err)
	}
	if called {
		t.Errorf("Callback must not fire on a failed write")
	}
	if s.Len() != 0 {
		t.Errorf("Failed write must not be registered")
	}
	assertNoDrift(t, s, fm)
}

func TestSetItemRegistryWriteFailure(t *testing.T) {
	fm := &faultyMedium{IMedium: memory.NewMemoryMedium(nil)}
	s := newTestStore(t, fm, "", nil)

	fm.failSet = func(key string) error {
		if key == DefaultNamespace+RegistryKey {
			return medium.ErrQuotaExceeded
		}
		return nil
	}

	if _, err := s.SetItem(Item{Key: "k", Value: 1}); !errors.Is(err, medium.ErrQuotaExceeded) {
		t.Fatalf("Expected quota error from registry write, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("In-memory registry must be rolled back, got %v", s.RegisteredKeys())
	}
}

func TestQuotaExceededPropagates(t *testing.T) {
	m := memory.NewMemoryMedium(&memory.Options{QuotaBytes: 200})
	s := newTestStore(t, m, "", nil)

	_, err := s.SetItem(Item{Key: "huge", Value: strings.Repeat("x", 500)})
	if !errors.Is(err, medium.ErrQuotaExceeded) {
		t.Fatalf("Expected ErrQuotaExceeded, got %v", err)
	}
	var mErr *medium.Error
	if !errors.As(err, &mErr) {
		t.Errorf("Expected the medium error unchanged, got %T", err)
	}
	if _, ok, _ := s.GetItem("huge"); ok {
		t.Errorf("Failed write must leave the entry absent")
	}
}

func TestUnserializableValue(t *testing.T) {
	s := newTestStore(t, memory.NewMemoryMedium(nil), "", nil)

	if _, err := s.SetItem(Item{Key: "ch", Value: make(chan int)}); !errors.Is(err, entry.ErrEncode) {
		t.Errorf("Expected ErrEncode, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Failed encode must not be registered")
	}
}

func TestRegistryPersistedOnTrackedWrite(t *testing.T) {
	writes := 0
	fm := &faultyMedium{
		IMedium: memory.NewMemoryMedium(nil),
		failSet: func(key string) error {
			if key == DefaultNamespace+RegistryKey {
				writes++
			}
			return nil
		},
	}
	s := newTestStore(t, fm, "", nil)
	writes = 0

	mustSet(t, s, Item{Key: "k", Value: 1})
	mustSet(t, s, Item{Key: "k", Value: 2})
	mustSet(t, s, Item{Key: "k", Value: 3})

	if writes != 3 {
		t.Errorf("Expected one registry write per tracked set, got %d", writes)
	}
	if s.Len() != 1 {
		t.Errorf("Expected registry to stay unique, got %v", s.RegisteredKeys())
	}
}

func TestUntrackRollsBackOnWriteFailure(t *testing.T) {
	clock := &fakeClock{now: 0}
	fm := &faultyMedium{IMedium: memory.NewMemoryMedium(nil)}
	s := newTestStore(t, fm, "", clock)
	mustSet(t, s, Item{Key: "a", Value: 1})
	mustSet(t, s, Item{Key: "old", Value: 2, Expire: time.Second})
	mustSet(t, s, Item{Key: "b", Value: 3})
	want := strings.Join(s.RegisteredKeys(), ",")

	fm.failSet = func(key string) error {
		if key == DefaultNamespace+RegistryKey {
			return medium.ErrUnavailable
		}
		return nil
	}

	clock.Advance(time.Second)
	if _, _, err := s.GetItem("old"); !errors.Is(err, medium.ErrUnavailable) {
		t.Fatalf("Expected registry write failure from GetItem, got %v", err)
	}
	if got := strings.Join(s.RegisteredKeys(), ","); got != want {
		t.Errorf("Expected registry %q after failed eviction, got %q", want, got)
	}

	if _, err := s.RemoveItem("a", nil); !errors.Is(err, medium.ErrUnavailable) {
		t.Fatalf("Expected registry write failure from RemoveItem, got %v", err)
	}
	if got := strings.Join(s.RegisteredKeys(), ","); got != want {
		t.Errorf("Expected registry %q after failed removal, got %q", want, got)
	}

	fm.failSet = nil
	if _, err := s.Keys(); err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	assertNoDrift(t, s, fm)
}

func TestHandle(t *testing.T) {
	clock := &fakeClock{now: 0}
	m := memory.NewMemoryMedium(nil)
	s := newTestStore(t, m, "", clock)

	h := mustSet(t, s, Item{Key: "k", Value: "v", Expire: time.Second})
	if h.Key != DefaultNamespace+"k" || h.LogicalKey != "k" || !h.Tracked {
		t.Errorf("Unexpected handle %+v", h)
	}

	removed, err := h.Remove()
	if err != nil || !removed {
		t.Fatalf("Remove failed: removed=%v err=%v", removed, err)
	}
	if removed, _ := h.Remove(); removed {
		t.Errorf("Second Remove should be a no-op")
	}
	assertNoDrift(t, s, m)

	// PrevSet restores the entry with a fresh deadline
	clock.Advance(10 * time.Second)
	h2, err := h.PrevSet()
	if err != nil {
		t.Fatalf("PrevSet failed: %v", err)
	}
	if h2.Key != h.Key {
		t.Errorf("PrevSet wrote to %q instead of %q", h2.Key, h.Key)
	}
	if v, ok, _ := Get[string](s, "k"); !ok || v != "v" {
		t.Errorf("Expected PrevSet to restore the value")
	}
	clock.Advance(time.Second)
	if _, ok, _ := s.GetItem("k"); ok {
		t.Errorf("Expected restored entry to expire one TTL after PrevSet")
	}
	assertNoDrift(t, s, m)
}

// --------------------------------------------------------------------------
// Removal
// --------------------------------------------------------------------------

func TestIdempotentRemove(t *testing.T) {
	m := memory.NewMemoryMedium(nil)
	s := newTestStore(t, m, "", nil)
	mustSet(t, s, Item{Key: "k", Value: 1})

	var calls []string
	cb := func(key string) { calls = append(calls, key) }

	if removed, err := s.RemoveItem("k", cb); !removed || err != nil {
		t.Fatalf("First RemoveItem failed: removed=%v err=%v", removed, err)
	}
	if removed, err := s.RemoveItem("k", cb); removed || err != nil {
		t.Fatalf("Second RemoveItem should be a no-op: removed=%v err=%v", removed, err)
	}

	if len(calls) != 1 || calls[0] != "k" {
		t.Errorf("Expected exactly one callback for k, got %v", calls)
	}
}

// The original behavior of removeItem left the key in the registry and only the
// expiry path pruned it. RemoveItem prunes on every removal so the registry
// matches the medium; this test pins that change.
func TestRemoveItemPrunesRegistry(t *testing.T) {
	m := memory.NewMemoryMedium(nil)
	s := newTestStore(t, m, "", nil)
	mustSet(t, s, Item{Key: "a", Value: 1})
	mustSet(t, s, Item{Key: "b", Value: 2})

	if _, err := s.RemoveItem("a", nil); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}

	if got := strings.Join(s.RegisteredKeys(), ","); got != DefaultNamespace+"b" {
		t.Errorf("Divergence from original removeItem: expected registry pruned to b, got %q", got)
	}
	assertNoDrift(t, s, m)
}

func TestRemoveItemMediumFailure(t *testing.T) {
	fm := &faultyMedium{IMedium: memory.NewMemoryMedium(nil)}
	s := newTestStore(t, fm, "", nil)
	mustSet(t, s, Item{Key: "k", Value: 1})

	fm.failRemove = medium.ErrUnavailable
	called := false
	removed, err := s.RemoveItem("k", func(string) { called = true })
	if removed || !errors.Is(err, medium.ErrUnavailable) {
		t.Errorf("Expected medium error, got removed=%v err=%v", removed, err)
	}
	if called {
		t.Errorf("Callback must not fire on a failed removal")
	}
	if s.Len() != 1 {
		t.Errorf("Failed removal must keep the key registered")
	}
}

// --------------------------------------------------------------------------
// Registry consistency
// --------------------------------------------------------------------------

func TestRegistryCompleteness(t *testing.T) {
	clock := &fakeClock{now: 0}
	m := memory.NewMemoryMedium(nil)
	s := newTestStore(t, m, "ns_", clock)
	other := newTestStore(t, m, "other_", clock)

	steps := []struct {
		name string
		run  func()
	}{
		{"set a", func() { mustSet(t, s, Item{Key: "a", Value: 1}) }},
		{"set b ttl", func() { mustSet(t, s, Item{Key: "b", Value: 2, Expire: time.Second}) }},
		{"set c ttl", func() { mustSet(t, s, Item{Key: "c", Value: 3, Expire: 3 * time.Second}) }},
		{"overwrite a", func() { mustSet(t, s, Item{Key: "a", Value: 10}) }},
		{"foreign write", func() { mustSet(t, other, Item{Key: "a", Value: 99}) }},
		{"remove missing", func() { _, _ = s.RemoveItem("zzz", nil) }},
		{"expire b via get", func() { clock.Advance(time.Second); _, _, _ = s.GetItem("b") }},
		{"remove a", func() { _, _ = s.RemoveItem("a", nil) }},
		{"remove a again", func() { _, _ = s.RemoveItem("a", nil) }},
		{"set b again", func() { mustSet(t, s, Item{Key: "b", Value: 4}) }},
		{"expire c via keys", func() { clock.Advance(5 * time.Second); _, _ = s.Keys() }},
		{"set d", func() { mustSet(t, s, Item{Key: "d", Value: 5, Expire: time.Second}) }},
		{"expire d via bulk get", func() { clock.Advance(time.Second); _, _ = s.GetItemsSequence([]string{"d", "b"}) }},
		{"clear then set b", func() {
			if err := s.Clear(); err != nil {
				t.Fatalf("Clear failed: %v", err)
			}
			mustSet(t, s, Item{Key: "b", Value: 6})
		}},
		{"set e after clear", func() { mustSet(t, s, Item{Key: "e", Value: 7}) }},
		{"remove e", func() { _, _ = s.RemoveItem("e", nil) }},
	}

	for _, step := range steps {
		step.run()
		t.Run(step.name, func(t *testing.T) {
			assertNoDrift(t, s, m)
		})
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if strings.Join(keys, ",") != "b" {
		t.Errorf("Expected only b to survive, got %v", keys)
	}
}

func TestKeysRepairsDrift(t *testing.T) {
	clock := &fakeClock{now: 0}
	m := memory.NewMemoryMedium(nil)
	s := newTestStore(t, m, "", clock)

	mustSet(t, s, Item{Key: "live", Value: 1})
	mustSet(t, s, Item{Key: "gone", Value: 2})
	mustSet(t, s, Item{Key: "old", Value: 3, Expire: time.Second})

	// removed behind the store's back
	_ = m.Remove(DefaultNamespace + "gone")
	clock.Advance(time.Second)

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if strings.Join(keys, ",") != "live" {
		t.Errorf("Expected [live], got %v", keys)
	}
	if _, ok, _ := m.Get(DefaultNamespace + "old"); ok {
		t.Errorf("Expected expired entry to be evicted by Keys")
	}
	assertNoDrift(t, s, m)
}

func TestClearWipesWholeMedium(t *testing.T) {
	m := memory.NewMemoryMedium(nil)
	a := newTestStore(t, m, "A", nil)
	b := newTestStore(t, m, "B", nil)
	_ = m.Set("unrelated", "x")

	mustSet(t, a, Item{Key: "k", Value: 1})
	mustSet(t, b, Item{Key: "k", Value: 2})

	if err := a.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if keys, _ := m.Keys(); len(keys) != 0 {
		t.Errorf("Expected Clear to wipe every key, %d left", len(keys))
	}
	if a.Len() != 1 {
		t.Errorf("Clear must not reset the in-memory registry, got %v", a.RegisteredKeys())
	}

	keys, err := a.Keys()
	if err != nil || len(keys) != 0 {
		t.Errorf("Expected Keys to report nothing after Clear, got %v err=%v", keys, err)
	}
	if a.Len() != 0 {
		t.Errorf("Expected Keys to repair the registry after Clear")
	}
}

func TestSetAfterClearRestoresRegistry(t *testing.T) {
	m := memory.NewMemoryMedium(nil)
	s := newTestStore(t, m, "A", nil)
	mustSet(t, s, Item{Key: "k", Value: 1})

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	mustSet(t, s, Item{Key: "k", Value: 2})

	if _, ok, _ := m.Get("A" + RegistryKey); !ok {
		t.Errorf("Expected the registry entry to be written back by the next set")
	}
	assertNoDrift(t, s, m)

	reloaded := newTestStore(t, m, "A", nil)
	keys, err := reloaded.Keys()
	if err != nil || strings.Join(keys, ",") != "k" {
		t.Errorf("Expected reloaded store to list [k], got %v err=%v", keys, err)
	}
}

func TestRemoveAll(t *testing.T) {
	m := memory.NewMemoryMedium(nil)
	s := newTestStore(t, m, "A", nil)
	other := newTestStore(t, m, "B", nil)

	mustSet(t, s, Item{Key: "x", Value: 1})
	mustSet(t, s, Item{Key: "y", Value: 2})
	mustSet(t, s, Item{Key: "esc", Value: 3, Interceptor: func(Scope) Scope { return Scope{Namespace: "C"} }})
	mustSet(t, other, Item{Key: "x", Value: 4})

	n, err := s.RemoveAll()
	if err != nil || n != 2 {
		t.Fatalf("RemoveAll: n=%d err=%v", n, err)
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty registry after RemoveAll")
	}
	if _, ok, _ := other.GetItem("x"); !ok {
		t.Errorf("RemoveAll must not touch other namespaces")
	}
	if _, ok, _ := m.Get("Cesc"); !ok {
		t.Errorf("RemoveAll must not touch untracked writes")
	}
	assertNoDrift(t, s, m)
}

func TestRemoveAllPartialFailure(t *testing.T) {
	fm := &faultyMedium{IMedium: memory.NewMemoryMedium(nil)}
	s := newTestStore(t, fm, "", nil)
	mustSet(t, s, Item{Key: "x", Value: 1})

	fm.failRemove = medium.ErrUnavailable
	n, err := s.RemoveAll()
	if n != 0 || !errors.Is(err, medium.ErrUnavailable) {
		t.Errorf("Expected failure to be reported, n=%d err=%v", n, err)
	}
	if s.Len() != 1 {
		t.Errorf("Keys that could not be removed stay registered")
	}
}

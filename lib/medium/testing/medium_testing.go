package testing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/ValentinKolb/maxstore/lib/medium"
)

// MediumFactory is a function that creates a new, empty instance of a medium implementation
type MediumFactory func(t testing.TB) medium.IMedium

// RunMediumTests runs the conformance suite for a medium implementation.
func RunMediumTests(t *testing.T, name string, factory MediumFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory(t))
		})

		t.Run("Remove", func(t *testing.T) {
			testRemove(t, factory(t))
		})

		t.Run("Clear", func(t *testing.T) {
			testClear(t, factory(t))
		})

		t.Run("Keys", func(t *testing.T) {
			testKeys(t, factory(t))
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory(t))
		})

		t.Run("ManyKeys", func(t *testing.T) {
			testManyKeys(t, factory(t))
		})

		t.Run("ParallelUsage", func(t *testing.T) {
			testParallelUsage(t, factory(t))
		})

		t.Run("Closed", func(t *testing.T) {
			testClosed(t, factory(t))
		})
	})
}

// RunQuotaTests checks the overflow behavior of a medium created with a quota of quotaBytes.
func RunQuotaTests(t *testing.T, name string, quotaBytes int, factory MediumFactory) {
	t.Run(name, func(t *testing.T) {
		m := factory(t)
		defer m.Close()

		// fill up to the limit
		key := "k"
		value := strings.Repeat("x", quotaBytes-len(key))
		if err := m.Set(key, value); err != nil {
			t.Fatalf("Set within quota failed: %v", err)
		}

		// one byte more must be refused
		err := m.Set("k2", "y")
		if !errors.Is(err, medium.ErrQuotaExceeded) {
			t.Fatalf("Expected ErrQuotaExceeded, got %v", err)
		}
		if _, ok, _ := m.Get("k2"); ok {
			t.Errorf("Refused write must not be stored")
		}

		// a failed overwrite leaves the old value in place
		err = m.Set(key, value+"z")
		if !errors.Is(err, medium.ErrQuotaExceeded) {
			t.Fatalf("Expected ErrQuotaExceeded on growing overwrite, got %v", err)
		}
		got, ok, err := m.Get(key)
		if err != nil || !ok || got != value {
			t.Errorf("Expected old value to survive failed overwrite, got ok=%v err=%v", ok, err)
		}

		// removing frees space again
		if err := m.Remove(key); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		if err := m.Set("k2", "y"); err != nil {
			t.Errorf("Set after freeing space failed: %v", err)
		}
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, m medium.IMedium) {
	defer m.Close()

	if err := m.Set("test-key", "test-value1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, ok, err := m.Get("test-key")
	if err != nil || !ok {
		t.Fatalf("Expected key to exist after Set, ok=%v err=%v", ok, err)
	}
	if result != "test-value1" {
		t.Errorf("Expected value %s, got %s", "test-value1", result)
	}

	if err := m.Set("test-key", "test-value2"); err != nil {
		t.Fatalf("Set (overwrite) failed: %v", err)
	}

	result, ok, err = m.Get("test-key")
	if err != nil || !ok {
		t.Fatalf("Expected key to exist after overwrite, ok=%v err=%v", ok, err)
	}
	if result != "test-value2" {
		t.Errorf("Expected value %s, got %s", "test-value2", result)
	}

	_, ok, err = m.Get("nonexistent-key")
	if err != nil {
		t.Fatalf("Get of missing key returned error: %v", err)
	}
	if ok {
		t.Errorf("Expected nonexistent key to return ok=false")
	}
}

func testRemove(t *testing.T, m medium.IMedium) {
	defer m.Close()

	_ = m.Set("a", "1")
	_ = m.Set("b", "2")

	if err := m.Remove("a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if _, ok, _ := m.Get("a"); ok {
		t.Errorf("Expected removed key to be gone")
	}
	if _, ok, _ := m.Get("b"); !ok {
		t.Errorf("Expected other key to survive Remove")
	}

	// removing a missing key is not an error
	if err := m.Remove("a"); err != nil {
		t.Errorf("Remove of missing key returned error: %v", err)
	}
}

func testClear(t *testing.T, m medium.IMedium) {
	defer m.Close()

	for i := 0; i < 10; i++ {
		_ = m.Set(fmt.Sprintf("ns1:%d", i), "v")
		_ = m.Set(fmt.Sprintf("ns2:%d", i), "v")
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	keys, err := m.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("Expected empty medium after Clear, got %d keys", len(keys))
	}

	// the medium stays usable
	if err := m.Set("after", "clear"); err != nil {
		t.Errorf("Set after Clear failed: %v", err)
	}
}

func testKeys(t *testing.T, m medium.IMedium) {
	defer m.Close()

	want := []string{"alpha", "beta", "gamma"}
	for _, k := range want {
		_ = m.Set(k, "v")
	}
	// overwrite must not duplicate
	_ = m.Set("beta", "v2")

	keys, err := m.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	sort.Strings(keys)

	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Errorf("Expected keys %v, got %v", want, keys)
	}
}

func testEdgeCases(t *testing.T, m medium.IMedium) {
	defer m.Close()

	cases := map[string]string{
		"":                   "empty key",
		"empty-value":        "",
		"unicode-ключ-🔑":     "значение ✓",
		"json":               `{"value":{"nested":[1,2,3]},"expire":1700000000000}`,
		"spaces and\nnewlin": "multi\nline\tvalue",
		"quote'\"":           "'; DROP TABLE ItemTable; --",
	}

	for k, v := range cases {
		if err := m.Set(k, v); err != nil {
			t.Errorf("Set(%q) failed: %v", k, err)
		}
	}

	for k, v := range cases {
		got, ok, err := m.Get(k)
		if err != nil || !ok {
			t.Errorf("Get(%q) ok=%v err=%v", k, ok, err)
			continue
		}
		if got != v {
			t.Errorf("Get(%q) = %q, want %q", k, got, v)
		}
	}

	largeValue := strings.Repeat("0123456789", 100_000) // ~1MB
	if err := m.Set("large", largeValue); err != nil {
		t.Fatalf("Set large value failed: %v", err)
	}
	got, ok, _ := m.Get("large")
	if !ok || got != largeValue {
		t.Errorf("Large value did not round trip (ok=%v, len=%d)", ok, len(got))
	}
}

func testManyKeys(t *testing.T, m medium.IMedium) {
	defer m.Close()

	numKeys := 1000

	for i := 0; i < numKeys; i++ {
		if err := m.Set(fmt.Sprintf("key-%d", i), fmt.Sprintf("value-%d", i)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	for i := 0; i < numKeys; i += 2 {
		_ = m.Remove(fmt.Sprintf("key-%d", i))
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("key-%d", i)
		value, ok, err := m.Get(key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}

		if i%2 == 0 {
			if ok {
				t.Errorf("Key %s should be removed", key)
			}
		} else if !ok || value != fmt.Sprintf("value-%d", i) {
			t.Errorf("Key %s should still exist with its value, got ok=%v value=%s", key, ok, value)
		}
	}

	keys, _ := m.Keys()
	if len(keys) != numKeys/2 {
		t.Errorf("Expected %d keys, got %d", numKeys/2, len(keys))
	}
}

func testParallelUsage(t *testing.T, m medium.IMedium) {
	defer m.Close()

	numWorkers := 8
	opsPerWorker := 200

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	errs := make(chan error, numWorkers*opsPerWorker)

	for w := 0; w < numWorkers; w++ {
		go func(workerID int) {
			defer wg.Done()
			for i := 0; i < opsPerWorker; i++ {
				key := fmt.Sprintf("w%d-k%d", workerID, i)
				if err := m.Set(key, key); err != nil {
					errs <- err
					continue
				}
				if _, _, err := m.Get(fmt.Sprintf("hot-%d", i%10)); err != nil {
					errs <- err
				}
				if i%3 == 0 {
					if err := m.Remove(key); err != nil {
						errs <- err
					}
				}
			}
		}(w)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Parallel operation failed: %v", err)
	}

	for w := 0; w < numWorkers; w++ {
		for i := 0; i < opsPerWorker; i++ {
			key := fmt.Sprintf("w%d-k%d", w, i)
			value, ok, _ := m.Get(key)
			if i%3 == 0 && ok {
				t.Errorf("Key %s should be removed", key)
			}
			if i%3 != 0 && (!ok || value != key) {
				t.Errorf("Key %s should hold its own name, got ok=%v value=%s", key, ok, value)
			}
		}
	}
}

func testClosed(t *testing.T, m medium.IMedium) {
	_ = m.Set("k", "v")

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, _, err := m.Get("k"); err == nil {
		t.Errorf("Expected Get on closed medium to fail")
	}
	if err := m.Set("k", "v"); err == nil {
		t.Errorf("Expected Set on closed medium to fail")
	}
}

package testing

import (
	"fmt"
	"strings"
	"testing"
)

// RunMediumBenchmarks runs the standard benchmarks for a medium implementation.
func RunMediumBenchmarks(b *testing.B, name string, factory MediumFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Set", func(b *testing.B) {
			m := factory(b)
			defer m.Close()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = m.Set(fmt.Sprintf("key-%d", i%1000), "value")
			}
		})

		b.Run("SetLargeValue", func(b *testing.B) {
			m := factory(b)
			defer m.Close()
			value := strings.Repeat("x", 64*1024)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = m.Set(fmt.Sprintf("key-%d", i%100), value)
			}
		})

		b.Run("Get", func(b *testing.B) {
			m := factory(b)
			defer m.Close()
			for i := 0; i < 1000; i++ {
				_ = m.Set(fmt.Sprintf("key-%d", i), "value")
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _, _ = m.Get(fmt.Sprintf("key-%d", i%1000))
			}
		})

		b.Run("Remove", func(b *testing.B) {
			m := factory(b)
			defer m.Close()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				key := fmt.Sprintf("key-%d", i)
				_ = m.Set(key, "value")
				_ = m.Remove(key)
			}
		})
	})
}

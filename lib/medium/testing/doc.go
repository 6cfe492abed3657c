// Package testing provides standardised tests and benchmarks for
// medium implementations that satisfy the medium.IMedium interface.
//
// The package contains:
//   - RunMediumTests: a conformance suite for the IMedium contract
//   - RunQuotaTests: overflow checks for mediums created with a byte quota
//   - RunMediumBenchmarks: throughput of the basic operations
//
// Example usage:
//
//	factory := func(t testing.TB) medium.IMedium {
//		return memory.NewMemoryMedium(nil)
//	}
//
//	mediumtesting.RunMediumTests(t, "Memory", factory)
//	mediumtesting.RunMediumBenchmarks(b, "Memory", factory)
package testing
